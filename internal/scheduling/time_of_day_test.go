package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 570},
		{in: "23:59", want: 1439},
		{in: "24:00", want: 1440},
		{in: "17:00:00", want: 1020},
		{in: " 08:15 ", want: 495},
		{in: "24:01", wantErr: true},
		{in: "25:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "9:00", wantErr: true},
		{in: "0900", wantErr: true},
		{in: "12:00:0", wantErr: true},
		{in: "", wantErr: true},
		{in: "ab:cd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDayOn(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)

	got := MustParseTimeOfDay("09:15").On(time.Date(2030, time.March, 4, 23, 0, 0, 0, time.UTC), loc)

	assert.Equal(t, time.Date(2030, time.March, 4, 9, 15, 0, 0, loc), got)
	assert.Equal(t, "09:15", TimeOfDayOf(got).String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2030-01-07", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, "2030-01-07", DateKey(d))

	_, err = ParseDate("07/01/2030", time.UTC)
	assert.Error(t, err)
}

func TestWindowValid(t *testing.T) {
	w, err := NewWindow("09:00", "24:00")
	require.NoError(t, err)
	assert.True(t, w.Valid())

	w, err = NewWindow("10:00", "10:00")
	require.NoError(t, err)
	assert.False(t, w.Valid())

	_, err = NewWindow("10:00", "nope")
	assert.Error(t, err)
}
