package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/usecase"
	"care-booking-marketplace/pkg/jwt"
	"care-booking-marketplace/pkg/response"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	callerKey  contextKey = "caller"
	TokenIDKey contextKey = "token_id"
)

type AuthMiddleware struct {
	jwtService  *jwt.JWTService
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewAuthMiddleware(jwtService *jwt.JWTService, redisClient *redis.Client, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:  jwtService,
		redisClient: redisClient,
		log:         log,
	}
}

// Authenticate rejects requests without a valid, unrevoked access token
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		claims, status, msg := m.resolve(r.Context(), authHeader)
		if claims == nil {
			if status == http.StatusInternalServerError {
				response.InternalServerError(w, msg)
				return
			}
			response.Unauthorized(w, msg)
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// OptionalAuthenticate resolves the caller when a valid token is sent and
// otherwise continues anonymously. A present but invalid token is rejected.
func (m *AuthMiddleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, status, msg := m.resolve(r.Context(), authHeader)
		if claims == nil {
			if status == http.StatusInternalServerError {
				response.InternalServerError(w, msg)
				return
			}
			response.Unauthorized(w, msg)
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func (m *AuthMiddleware) resolve(ctx context.Context, authHeader string) (*jwt.Claims, int, string) {
	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, http.StatusUnauthorized, "Invalid authorization header format"
	}

	claims, err := m.jwtService.Parse(parts[1], jwt.AccessToken)
	if errors.Is(err, jwt.ErrWrongTokenType) {
		return nil, http.StatusUnauthorized, "Invalid token type"
	}
	if err != nil {
		return nil, http.StatusUnauthorized, "Invalid or expired token"
	}

	// Check if token exists in Redis (not revoked)
	exists, err := m.redisClient.Exists(ctx, usecase.AccessTokenKey(claims.UserID, claims.TokenID)).Result()
	if err != nil {
		m.log.Warnf("Failed to check token %s: %+v", claims.TokenID, err)
		return nil, http.StatusInternalServerError, "Failed to validate token"
	}
	if exists == 0 {
		return nil, http.StatusUnauthorized, "Token has been revoked"
	}

	return claims, http.StatusOK, ""
}

func withClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	ctx = WithCallerIdentity(ctx, CallerFromClaims(claims))
	return context.WithValue(ctx, TokenIDKey, claims.TokenID)
}

// CallerFromClaims maps token claims to the identity usecases authorize
// against. Patient and provider ids are the user id of that role.
func CallerFromClaims(claims *jwt.Claims) entity.CallerIdentity {
	userID := claims.UserID
	caller := entity.CallerIdentity{UserID: &userID, RoleID: claims.RoleID}
	switch claims.RoleID {
	case entity.RoleIDPatient:
		caller.PatientID = &userID
	case entity.RoleIDProvider:
		caller.ProviderID = &userID
	}
	return caller
}

// WithCallerIdentity stores the caller in ctx
func WithCallerIdentity(ctx context.Context, caller entity.CallerIdentity) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// GetCallerIdentity returns the caller, or an anonymous identity when none was set
func GetCallerIdentity(ctx context.Context) entity.CallerIdentity {
	caller, _ := ctx.Value(callerKey).(entity.CallerIdentity)
	return caller
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	caller := GetCallerIdentity(ctx)
	if caller.UserID == nil {
		return uuid.Nil, false
	}
	return *caller.UserID, true
}

// GetTokenIDFromContext extracts token ID from context
func GetTokenIDFromContext(ctx context.Context) (string, bool) {
	tokenID, ok := ctx.Value(TokenIDKey).(string)
	return tokenID, ok
}
