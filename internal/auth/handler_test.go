package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/terrena-pm/terrena/internal/shared"
)

func loginRouter(t *testing.T, repo Repository) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, NewService(repo), NewTokenIssuer(testSecret, time.Hour))
	r := chi.NewRouter()
	r.Route("/auth", h.MountRoutes)
	return r
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginIssuesToken(t *testing.T) {
	repo := &stubRepo{byEmail: map[string]*ActorRecord{
		"ana@terrena.test": {
			ID:           "u1",
			Email:        "ana@terrena.test",
			PasswordHash: hashed(t, "correct-horse"),
			Role:         shared.RolePromoter,
			Status:       shared.StatusActive,
			Tenant:       "acme",
		},
	}}
	router := loginRouter(t, repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"ana@terrena.test","password":"correct-horse"}`)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, time.Minute)

	claims, err := VerifyToken(testSecret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "acme", claims.Tenant)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &stubRepo{byEmail: map[string]*ActorRecord{
		"ana@terrena.test": {
			ID:           "u1",
			Email:        "ana@terrena.test",
			PasswordHash: hashed(t, "correct-horse"),
			Status:       shared.StatusActive,
		},
	}}
	router := loginRouter(t, repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"ana@terrena.test","password":"wrong-password"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// Unknown accounts and bad passwords fail identically.
func TestLoginUnknownAccount(t *testing.T) {
	router := loginRouter(t, &stubRepo{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"ghost@terrena.test","password":"irrelevant-1"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginValidation(t *testing.T) {
	router := loginRouter(t, &stubRepo{})

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"email":`},
		{"missing email", `{"password":"long-enough"}`},
		{"short password", `{"email":"ana@terrena.test","password":"short"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
