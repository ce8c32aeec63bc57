package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AvailabilityKind distinguishes weekly hours from single-date exceptions
type AvailabilityKind string

const (
	AvailabilityRecurring        AvailabilityKind = "recurring"
	AvailabilityOneTimeAvailable AvailabilityKind = "one_time_available"
	AvailabilityOneTimeBlocked   AvailabilityKind = "one_time_blocked"
)

// Valid reports whether k is a known availability kind
func (k AvailabilityKind) Valid() bool {
	switch k {
	case AvailabilityRecurring, AvailabilityOneTimeAvailable, AvailabilityOneTimeBlocked:
		return true
	}
	return false
}

// AvailabilityEntry is one provider working-hours window or exception.
// Exactly one of DayOfWeek (recurring) and SpecificDate (one-time) is set.
// Entries are never edited in place; changes are delete + recreate.
type AvailabilityEntry struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProviderID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"provider_id"`
	Kind         AvailabilityKind `gorm:"column:availability_type;type:varchar(32);not null;index" json:"availability_type"`
	DayOfWeek    *int             `gorm:"type:smallint" json:"day_of_week,omitempty"`
	SpecificDate *datatypes.Date  `gorm:"type:date;index" json:"specific_date,omitempty"`
	StartTime    string           `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime      string           `gorm:"type:varchar(5);not null" json:"end_time"`
	Notes        *string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (AvailabilityEntry) TableName() string {
	return "availability_entries"
}

// IsRecurring checks if the entry repeats weekly
func (e *AvailabilityEntry) IsRecurring() bool {
	return e.Kind == AvailabilityRecurring
}

// IsBlock checks if the entry removes time from the schedule
func (e *AvailabilityEntry) IsBlock() bool {
	return e.Kind == AvailabilityOneTimeBlocked
}

// DateKey returns the YYYY-MM-DD of a one-time entry, or "" for recurring ones.
func (e *AvailabilityEntry) DateKey() string {
	if e.SpecificDate == nil {
		return ""
	}
	return time.Time(*e.SpecificDate).Format("2006-01-02")
}
