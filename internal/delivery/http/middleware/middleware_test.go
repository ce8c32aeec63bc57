package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"care-booking-marketplace/config"
	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/usecase"
	"care-booking-marketplace/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type authFixture struct {
	mw    *AuthMiddleware
	jwt   *jwt.JWTService
	redis *redis.Client
	mr    *miniredis.Miniredis
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	jwtService := jwt.NewJWTService(config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: time.Hour,
	})
	return &authFixture{
		mw:    NewAuthMiddleware(jwtService, client, newTestLogger()),
		jwt:   jwtService,
		redis: client,
		mr:    mr,
	}
}

// issue signs an access token and registers it as live
func (f *authFixture) issue(t *testing.T, userID uuid.UUID, roleID int) string {
	t.Helper()
	token, err := f.jwt.Issue(jwt.AccessToken, userID, "user@example.com", roleID)
	require.NoError(t, err)
	require.NoError(t, f.redis.Set(context.Background(), usecase.AccessTokenKey(userID, token.ID), "1", time.Minute).Err())
	return token.Signed
}

// captureCaller records the identity a request reached the handler with
func captureCaller(got *entity.CallerIdentity, reached *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		*got = GetCallerIdentity(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticate(t *testing.T) {
	f := newAuthFixture(t)
	patientID := uuid.New()
	valid := f.issue(t, patientID, entity.RoleIDPatient)

	refresh, err := f.jwt.Issue(jwt.RefreshToken, patientID, "user@example.com", entity.RoleIDPatient)
	require.NoError(t, err)
	revoked, err := f.jwt.Issue(jwt.AccessToken, patientID, "user@example.com", entity.RoleIDPatient)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + valid, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh.Signed, http.StatusUnauthorized},
		{"revoked token", "Bearer " + revoked.Signed, http.StatusUnauthorized},
		{"valid token", "Bearer " + valid, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var caller entity.CallerIdentity
			var reached bool
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			f.mw.Authenticate(captureCaller(&caller, &reached)).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status == http.StatusNoContent, reached)
			if reached {
				require.NotNil(t, caller.PatientID)
				assert.Equal(t, patientID, *caller.PatientID)
				assert.True(t, caller.IsPatient(patientID))
			}
		})
	}
}

func TestAuthenticate_RedisDown(t *testing.T) {
	f := newAuthFixture(t)
	token := f.issue(t, uuid.New(), entity.RoleIDPatient)
	f.mr.Close()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	var reached bool
	f.mw.Authenticate(captureCaller(&entity.CallerIdentity{}, &reached)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, reached)
}

func TestOptionalAuthenticate(t *testing.T) {
	f := newAuthFixture(t)
	providerID := uuid.New()

	t.Run("no header continues anonymously", func(t *testing.T) {
		var caller entity.CallerIdentity
		var reached bool
		rec := httptest.NewRecorder()
		f.mw.OptionalAuthenticate(captureCaller(&caller, &reached)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, caller.IsAnonymous())
	})

	t.Run("valid token resolves the provider", func(t *testing.T) {
		var caller entity.CallerIdentity
		var reached bool
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+f.issue(t, providerID, entity.RoleIDProvider))
		rec := httptest.NewRecorder()
		f.mw.OptionalAuthenticate(captureCaller(&caller, &reached)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, caller.ProviderID)
		assert.Equal(t, providerID, *caller.ProviderID)
		assert.Nil(t, caller.PatientID)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		var reached bool
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer expired")
		rec := httptest.NewRecorder()
		f.mw.OptionalAuthenticate(captureCaller(&entity.CallerIdentity{}, &reached)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})
}

func TestContextHelpers(t *testing.T) {
	userID := uuid.New()
	ctx := withClaims(context.Background(), &jwt.Claims{UserID: userID, RoleID: entity.RoleIDAdmin, TokenID: "tok-1"})

	got, ok := GetUserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, userID, got)

	tokenID, ok := GetTokenIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", tokenID)

	caller := GetCallerIdentity(ctx)
	assert.Nil(t, caller.PatientID)
	assert.Nil(t, caller.ProviderID)

	_, ok = GetUserIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestRequireRole(t *testing.T) {
	userID := uuid.New()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name       string
		caller     *entity.CallerIdentity
		middleware func(http.Handler) http.Handler
		status     int
	}{
		{"anonymous", nil, RequireAdmin, http.StatusUnauthorized},
		{"patient on admin route", &entity.CallerIdentity{UserID: &userID, PatientID: &userID, RoleID: entity.RoleIDPatient}, RequireAdmin, http.StatusForbidden},
		{"admin", &entity.CallerIdentity{UserID: &userID, RoleID: entity.RoleIDAdmin}, RequireAdmin, http.StatusOK},
		{"provider", &entity.CallerIdentity{UserID: &userID, ProviderID: &userID, RoleID: entity.RoleIDProvider}, RequireProvider, http.StatusOK},
		{"provider on patient route", &entity.CallerIdentity{UserID: &userID, ProviderID: &userID, RoleID: entity.RoleIDProvider}, RequirePatient, http.StatusForbidden},
		{"either role", &entity.CallerIdentity{UserID: &userID, PatientID: &userID, RoleID: entity.RoleIDPatient}, RequireRole(entity.RoleIDProvider, entity.RoleIDPatient), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.caller != nil {
				req = req.WithContext(WithCallerIdentity(req.Context(), *tt.caller))
			}
			rec := httptest.NewRecorder()
			tt.middleware(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2, newTestLogger())
	handler := limiter.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, send("10.0.0.1"))
	assert.Equal(t, http.StatusCreated, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusCreated, send("10.0.0.2"), "limits are per client")
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(1, 1, newTestLogger())
	start := time.Now()

	limiter.getLimiter("10.0.0.1", start)
	limiter.getLimiter("10.0.0.2", start.Add(11*time.Minute))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.limiters, "10.0.0.1")
	assert.Contains(t, limiter.limiters, "10.0.0.2")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:1234"
	assert.Equal(t, "192.0.2.10", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", clientIP(req))
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("any origin when unconfigured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://anywhere.test")
		rec := httptest.NewRecorder()
		NewCORSMiddleware(nil).Handle(next).ServeHTTP(rec, req)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("configured origins only", func(t *testing.T) {
		mw := NewCORSMiddleware([]string{"https://app.test"})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.test")
		rec := httptest.NewRecorder()
		mw.Handle(next).ServeHTTP(rec, req)
		assert.Equal(t, "https://app.test", rec.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.test")
		rec = httptest.NewRecorder()
		mw.Handle(next).ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short circuits", func(t *testing.T) {
		var reached bool
		rec := httptest.NewRecorder()
		NewCORSMiddleware(nil).Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
		})).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/bookings", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, reached)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	})
}
