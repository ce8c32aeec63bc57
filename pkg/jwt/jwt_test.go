package jwt

import (
	"testing"
	"time"

	"care-booking-marketplace/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(secret string) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:        secret,
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: time.Hour,
	})
}

func TestIssueAndParse(t *testing.T) {
	s := newTestService("secret")
	userID := uuid.New()

	token, err := s.Issue(AccessToken, userID, "ada@example.com", 2)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, token.TTL)

	claims, err := s.Parse(token.Signed, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, 2, claims.RoleID)
	assert.Equal(t, token.ID, claims.TokenID)
	assert.Equal(t, token.ID, claims.ID)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestParse_Rejections(t *testing.T) {
	s := newTestService("secret")
	userID := uuid.New()

	refresh, err := s.Issue(RefreshToken, userID, "ada@example.com", 2)
	require.NoError(t, err)

	foreign, err := newTestService("other").Issue(AccessToken, userID, "ada@example.com", 2)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{TokenType: AccessToken}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{TokenType: AccessToken}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = s.Parse(refresh.Signed, AccessToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	for name, token := range map[string]string{
		"other secret": foreign.Signed,
		"alg none":     unsigned,
		"no issuer":    noIssuer,
		"garbage":      "not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Parse(token, AccessToken)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParse_Expired(t *testing.T) {
	s := newTestService("secret")
	issuedAt := time.Date(2030, time.January, 7, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issuedAt }

	token, err := s.Issue(AccessToken, uuid.New(), "ada@example.com", 2)
	require.NoError(t, err)

	s.now = func() time.Time { return issuedAt.Add(16 * time.Minute) }
	_, err = s.Parse(token.Signed, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssue_UnknownType(t *testing.T) {
	_, err := newTestService("secret").Issue(TokenType("id"), uuid.New(), "ada@example.com", 2)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}
