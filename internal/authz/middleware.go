package authz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terrena-pm/terrena/internal/platform/httpx"
	"github.com/terrena-pm/terrena/internal/shared"
)

// ProjectSource loads the access snapshot for a project id. Implementations
// return shared.ErrNotFound when no such project exists; any other error is
// an infrastructure failure.
type ProjectSource interface {
	AccessSnapshot(ctx context.Context, id string) (*Project, error)
}

// DecisionObserver records decision outcomes for monitoring.
type DecisionObserver interface {
	ObserveDecision(allowed bool, reason string)
}

// Middleware runs the decision engine against project-scoped routes.
type Middleware struct {
	Engine   *Engine
	Projects ProjectSource
	Options  Options
	Logger   *slog.Logger
	Observer DecisionObserver
}

// RequireProjectAccess resolves the target project, evaluates the decision
// engine, and rejects with 403 plus a stable reason on deny. Lookup
// failures surface as 500, never as an implicit deny.
func (m Middleware) RequireProjectAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := shared.ScopeFromContext(r.Context())
		if scope == nil {
			httpx.ProblemReason(w, http.StatusUnauthorized, "Unauthorized", "no authenticated subject", "not_authenticated")
			return
		}

		var project *Project
		if id := ResolveProjectID(r); id != "" {
			snapshot, err := m.Projects.AccessSnapshot(r.Context(), id)
			switch {
			case err == nil:
				project = snapshot
			case errors.Is(err, shared.ErrNotFound):
				// Request names a project that does not exist; rule 4
				// leaves authorization to the route itself.
			default:
				if m.Logger != nil {
					m.Logger.Error("project access lookup", slog.String("project", id), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
		}

		verdict := m.Engine.Decide(Input{
			Actor:   scope.Actor,
			Project: project,
			Method:  r.Method,
			Path:    r.URL.Path,
			Flags:   RouteFlags{Sales: scope.RouteSales, Checklist: scope.RouteChecklist},
			Options: m.Options,
		})
		if m.Observer != nil {
			m.Observer.ObserveDecision(verdict.Allowed, string(verdict.Reason))
		}
		if !verdict.Allowed {
			if m.Logger != nil {
				m.Logger.Warn("access denied",
					slog.String("reason", string(verdict.Reason)),
					slog.String("role", scope.Actor.Role),
					slog.String("path", r.URL.Path))
			}
			httpx.ProblemReason(w, http.StatusForbidden, "Forbidden", "access denied", string(verdict.Reason))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// maxPeekBytes bounds how much request body the id resolver will buffer.
const maxPeekBytes = 1 << 20

// ResolveProjectID finds the project id targeted by a request, checking in
// order: route params id/projectId, body field projectId, query fields
// projectId/proj, body field proj. The body is buffered and restored so
// handlers can still decode it.
func ResolveProjectID(r *http.Request) string {
	if id := chi.URLParam(r, "id"); id != "" {
		return id
	}
	if id := chi.URLParam(r, "projectId"); id != "" {
		return id
	}
	body := peekJSONBody(r)
	if id := stringField(body, "projectId"); id != "" {
		return id
	}
	if id := r.URL.Query().Get("projectId"); id != "" {
		return id
	}
	if id := r.URL.Query().Get("proj"); id != "" {
		return id
	}
	return stringField(body, "proj")
}

func peekJSONBody(r *http.Request) map[string]any {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil || len(data) == 0 {
		return nil
	}
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil
	}
	return fields
}

func stringField(fields map[string]any, name string) string {
	switch v := fields[name].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}
