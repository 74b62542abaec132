package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-health/internal/platform/apperr"
	"pet-health/internal/platform/logger"
	"pet-health/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type ownerMap map[string]string

func (m ownerMap) OwnerOf(ctx context.Context, petID string) (string, error) {
	if petID == "boom" {
		return "", errors.New("db down")
	}
	owner, ok := m[petID]
	if !ok {
		return "", apperr.NotFound("pet", petID)
	}
	return owner, nil
}

var stubVerifier = auth.VerifierFunc(func(ctx context.Context, token string) (auth.Claims, error) {
	if token == "good" {
		return auth.Claims{UserID: "user-from-token"}, nil
	}
	return auth.Claims{}, errors.New("invalid token")
})

func ownerRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(AuthContext(nil, nil))
	r.With(RequirePetOwner(ownerMap{"pet-1": "owner-1"})).Get("/pets/{petID}/health/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestRequirePetOwner(t *testing.T) {
	cases := []struct {
		name   string
		pet    string
		user   string
		status int
	}{
		{"owner", "pet-1", "owner-1", http.StatusOK},
		{"no claims", "pet-1", "", http.StatusUnauthorized},
		{"other user", "pet-1", "intruder", http.StatusForbidden},
		{"missing pet", "pet-9", "owner-1", http.StatusNotFound},
		{"lookup failure", "boom", "owner-1", http.StatusInternalServerError},
	}
	h := ownerRouter()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/pets/"+tc.pet+"/health/stats", nil)
			if tc.user != "" {
				req.Header.Set(DebugUserHeader, tc.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestAuthContext_WithVerifier(t *testing.T) {
	var got auth.Claims
	var ok bool
	h := AuthContext(stubVerifier, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = GetClaims(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, ok)
	assert.Equal(t, "user-from-token", got.UserID)

	// Con verifier configurado el header de debug no vale.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DebugUserHeader, "sneaky")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, ok)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, ok)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken("abc"))
	assert.Empty(t, bearerToken(""))
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewFromZap(zap.New(core))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(AccessLog(log))
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Get("/missing", func(w http.ResponseWriter, _ *http.Request) { http.NotFound(w, nil) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/ok", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
	assert.NotEmpty(t, fields["request_id"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusNotFound, entries[1].ContextMap()["status"])
}
