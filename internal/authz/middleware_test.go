package authz

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrena-pm/terrena/internal/shared"
)

type stubSource struct {
	snapshots map[string]*Project
	err       error
	calls     int
}

func (s *stubSource) AccessSnapshot(_ context.Context, id string) (*Project, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if p, ok := s.snapshots[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

type recordingObserver struct {
	allowed []bool
	reasons []string
}

func (o *recordingObserver) ObserveDecision(allowed bool, reason string) {
	o.allowed = append(o.allowed, allowed)
	o.reasons = append(o.reasons, reason)
}

func newGuardRouter(m Middleware, scope *shared.RequestScope) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if scope != nil {
				req = req.WithContext(shared.ContextWithScope(req.Context(), scope))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Group(func(r chi.Router) {
		r.Use(m.RequireProjectAccess)
		r.Handle("/projects", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		r.Handle("/projects/{id}", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		r.Handle("/projects/{id}/permits", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
	})
	return r
}

func activeScope(role string) *shared.RequestScope {
	return &shared.RequestScope{
		Tenant: "acme",
		Actor:  shared.Actor{ID: "u1", Role: role, Status: shared.StatusActive, Tenant: "acme"},
	}
}

func TestRequireProjectAccessNoScope(t *testing.T) {
	source := &stubSource{}
	m := Middleware{Engine: NewEngine(DefaultConfig()), Projects: source, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	rec := httptest.NewRecorder()
	newGuardRouter(m, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects/p1", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, source.calls, "no lookup before authentication")
	assert.Contains(t, rec.Body.String(), "not_authenticated")
}

func TestRequireProjectAccessAllow(t *testing.T) {
	source := &stubSource{snapshots: map[string]*Project{
		"p1": {ID: "p1", Tenant: "acme", PublishStatus: PublishApproved, AssignedUsers: []string{"u1"}},
	}}
	obs := &recordingObserver{}
	m := Middleware{
		Engine:   NewEngine(DefaultConfig()),
		Projects: source,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Observer: obs,
	}

	rec := httptest.NewRecorder()
	newGuardRouter(m, activeScope(shared.RoleTechnical)).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/projects/p1/permits", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, obs.allowed, 1)
	assert.True(t, obs.allowed[0])
}

func TestRequireProjectAccessDeny(t *testing.T) {
	source := &stubSource{snapshots: map[string]*Project{
		"p1": {ID: "p1", Tenant: "acme", PublishStatus: PublishPending},
	}}
	obs := &recordingObserver{}
	m := Middleware{
		Engine:   NewEngine(DefaultConfig()),
		Projects: source,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Observer: obs,
	}

	rec := httptest.NewRecorder()
	newGuardRouter(m, activeScope(shared.RoleLegal)).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/projects/p1", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), string(ReasonNotAssigned))
	require.Len(t, obs.reasons, 1)
	assert.Equal(t, string(ReasonNotAssigned), obs.reasons[0])
}

// Infrastructure failures surface as 500, never as a silent deny.
func TestRequireProjectAccessLookupError(t *testing.T) {
	source := &stubSource{err: errors.New("connection refused")}
	m := Middleware{Engine: NewEngine(DefaultConfig()), Projects: source, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	rec := httptest.NewRecorder()
	newGuardRouter(m, activeScope(shared.RoleAdmin)).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/projects/p1", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// A missing project is not an authorization failure; the route decides.
func TestRequireProjectAccessUnknownProject(t *testing.T) {
	source := &stubSource{}
	m := Middleware{Engine: NewEngine(DefaultConfig()), Projects: source, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	rec := httptest.NewRecorder()
	newGuardRouter(m, activeScope(shared.RoleLegal)).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/projects/ghost", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, source.calls)
}

func TestResolveProjectID(t *testing.T) {
	t.Run("route param id wins", func(t *testing.T) {
		r := chi.NewRouter()
		var got string
		r.Get("/projects/{id}", func(_ http.ResponseWriter, req *http.Request) {
			got = ResolveProjectID(req)
		})
		req := httptest.NewRequest(http.MethodGet, "/projects/route-7?projectId=query-9", nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "route-7", got)
	})

	t.Run("body projectId before query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/search?projectId=query-9",
			strings.NewReader(`{"projectId":"body-3"}`))
		assert.Equal(t, "body-3", ResolveProjectID(req))
	})

	t.Run("numeric body id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/search",
			strings.NewReader(`{"projectId":42}`))
		assert.Equal(t, "42", ResolveProjectID(req))
	})

	t.Run("query proj fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/search?proj=q-5", nil)
		assert.Equal(t, "q-5", ResolveProjectID(req))
	})

	t.Run("body proj last", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/search",
			strings.NewReader(`{"proj":"b-8"}`))
		assert.Equal(t, "b-8", ResolveProjectID(req))
	})

	t.Run("nothing found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/search", nil)
		assert.Empty(t, ResolveProjectID(req))
	})

	t.Run("body still readable afterwards", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/search",
			strings.NewReader(`{"projectId":"body-3","name":"n"}`))
		_ = ResolveProjectID(req)
		data, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"projectId":"body-3","name":"n"}`, string(data))
	})

	t.Run("malformed body ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/search?proj=q-5",
			strings.NewReader(`{"projectId":`))
		assert.Equal(t, "q-5", ResolveProjectID(req))
	})
}
