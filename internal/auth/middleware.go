package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/terrena-pm/terrena/internal/platform/httpx"
	"github.com/terrena-pm/terrena/internal/shared"
	"github.com/terrena-pm/terrena/internal/tenant"
)

// Middleware wires the identity verifier and the active-account guard.
type Middleware struct {
	Secret  string
	Service *Service
	Logger  *slog.Logger
}

// Verdict reasons emitted by the guard chain.
const (
	ReasonMissingCredential = "missing_credential"
	ReasonInvalidCredential = "invalid_credential"
	ReasonMissingTenant     = "missing_tenant"
	ReasonNotAuthenticated  = "not_authenticated"
	ReasonUnknownActor      = "unknown_actor"
	ReasonAccountNotActive  = "account_not_active"
)

// VerifyIdentity validates the bearer credential and reconciles the claimed
// tenant against the request-declared tenant. On mismatch the token wins:
// the request scope is overwritten and a diagnostic is logged, never an
// error. That trust decision tolerates client-side tenant drift and is
// deliberate; see the tenant package for the carrier order.
func (m Middleware) VerifyIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := ExtractBearer(r.Header.Get("Authorization"))
		if err != nil {
			httpx.ProblemReason(w, http.StatusUnauthorized, "Unauthorized", "missing bearer credential", ReasonMissingCredential)
			return
		}
		claims, err := VerifyToken(m.Secret, raw)
		if err != nil {
			httpx.ProblemReason(w, http.StatusUnauthorized, "Unauthorized", "credential rejected", ReasonInvalidCredential)
			return
		}

		scope := shared.ScopeFromContext(r.Context())
		if scope == nil {
			scope = &shared.RequestScope{}
			r = r.WithContext(shared.ContextWithScope(r.Context(), scope))
		}

		reqTenant := tenant.Resolve(r, scope)
		if reqTenant == "" && claims.Tenant != "" {
			reqTenant = claims.Tenant
			scope.Tenant = claims.Tenant
		}
		if reqTenant == "" {
			httpx.ProblemReason(w, http.StatusForbidden, "Forbidden", "no tenant resolved for request", ReasonMissingTenant)
			return
		}
		if claims.Tenant != "" && claims.Tenant != reqTenant {
			m.logDiagnostic("tenant mismatch normalized to credential",
				slog.String("request_tenant", reqTenant),
				slog.String("token_tenant", claims.Tenant),
				slog.String("subject", claims.Subject))
			reqTenant = claims.Tenant
			scope.Tenant = claims.Tenant
		} else {
			scope.Tenant = reqTenant
		}

		// Role is taken authoritatively from the credential; the account
		// guard replaces it with the persisted value later.
		scope.Actor = shared.Actor{
			ID:     claims.Subject,
			Role:   claims.Role,
			Status: claims.Status,
			Tenant: reqTenant,
		}

		next.ServeHTTP(w, r)
	})
}

// RequireActiveAccount re-checks the persisted actor record. The persisted
// record is final authority for everything except the subject id.
func (m Middleware) RequireActiveAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := shared.ScopeFromContext(r.Context())
		if scope == nil || scope.Actor.ID == "" {
			httpx.ProblemReason(w, http.StatusUnauthorized, "Unauthorized", "no authenticated subject", ReasonNotAuthenticated)
			return
		}

		actor, err := m.Service.FindActor(r.Context(), scope.Actor.ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				httpx.ProblemReason(w, http.StatusUnauthorized, "Unauthorized", "actor record not found", ReasonUnknownActor)
				return
			}
			if m.Logger != nil {
				m.Logger.Error("actor lookup", slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}

		persistedTenant := tenant.Normalize(actor.Tenant)
		reqTenant := tenant.Resolve(r, scope)
		if reqTenant == "" {
			reqTenant = scope.Actor.Tenant
		}
		if reqTenant != persistedTenant {
			m.logDiagnostic("tenant mismatch normalized to persisted record",
				slog.String("request_tenant", reqTenant),
				slog.String("actor_tenant", persistedTenant),
				slog.String("subject", actor.ID))
		}
		scope.Tenant = persistedTenant

		status := strings.ToLower(strings.TrimSpace(actor.Status))
		if status != shared.StatusActive {
			httpx.ProblemReason(w, http.StatusForbidden, "Forbidden", "account status: "+status, ReasonAccountNotActive)
			return
		}

		scope.Actor = shared.Actor{
			ID:     actor.ID,
			Role:   strings.ToLower(strings.TrimSpace(actor.Role)),
			Status: status,
			Tenant: persistedTenant,
			Email:  actor.Email,
			Name:   actor.Name,
		}

		next.ServeHTTP(w, r)
	})
}

func (m Middleware) logDiagnostic(msg string, attrs ...any) {
	if m.Logger == nil {
		return
	}
	m.Logger.Warn(msg, attrs...)
}
