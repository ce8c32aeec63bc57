package jwt

import (
	"errors"
	"fmt"
	"time"

	"care-booking-marketplace/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is stamped on every token and required when parsing
const Issuer = "care-booking-marketplace"

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims identify the caller. TokenID keys the token's liveness entry in
// Redis, so revoking a token is deleting that key.
type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	RoleID    int       `json:"role_id"`
	TokenType TokenType `json:"token_type"`
	TokenID   string    `json:"token_id"`
	jwt.RegisteredClaims
}

// Token is a signed token together with the values needed to track it
type Token struct {
	Signed string
	ID     string
	TTL    time.Duration
}

type JWTService struct {
	secret []byte
	ttl    map[TokenType]time.Duration
	now    func() time.Time
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		ttl: map[TokenType]time.Duration{
			AccessToken:  cfg.AccessExpiry,
			RefreshToken: cfg.RefreshExpiry,
		},
		now: time.Now,
	}
}

// Issue signs a token of the given type for the user
func (s *JWTService) Issue(tokenType TokenType, userID uuid.UUID, email string, roleID int) (Token, error) {
	ttl, ok := s.ttl[tokenType]
	if !ok {
		return Token{}, fmt.Errorf("%w: %q", ErrWrongTokenType, tokenType)
	}

	now := s.now()
	tokenID := uuid.NewString()
	claims := Claims{
		UserID:    userID,
		Email:     email,
		RoleID:    roleID,
		TokenType: tokenType,
		TokenID:   tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID.String(),
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return Token{Signed: signed, ID: tokenID, TTL: ttl}, nil
}

// Parse verifies signature, issuer and expiry, and that the token is of the
// wanted type.
func (s *JWTService) Parse(tokenString string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func (s *JWTService) TTL(tokenType TokenType) time.Duration {
	return s.ttl[tokenType]
}
