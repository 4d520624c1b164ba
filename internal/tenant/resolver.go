// Package tenant resolves the tenant identifier carried by a request.
//
// Several generations of clients declare the tenant in different places. The
// resolver walks an explicit, ordered carrier list instead of ad hoc chained
// fallbacks so the precedence stays auditable and each carrier can be tested
// in isolation.
package tenant

import (
	"net/http"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/terrena-pm/terrena/internal/shared"
)

// Headers recognized as tenant carriers.
const (
	HeaderTenantID = "X-Tenant-ID"
	HeaderTenant   = "X-Tenant"
)

// carrier is a single named accessor in the resolution chain.
type carrier struct {
	name string
	get  func(r *http.Request, scope *shared.RequestScope) string
}

// carriers lists every tenant carrier in priority order. First non-empty
// value wins.
var carriers = []carrier{
	{"scope.tenant_ref.id", func(_ *http.Request, s *shared.RequestScope) string {
		if s == nil || s.TenantRef == nil {
			return ""
		}
		return s.TenantRef.ID
	}},
	{"scope.tenant_ref.slug", func(_ *http.Request, s *shared.RequestScope) string {
		if s == nil || s.TenantRef == nil {
			return ""
		}
		return s.TenantRef.Slug
	}},
	{"scope.tenant", func(_ *http.Request, s *shared.RequestScope) string {
		if s == nil {
			return ""
		}
		return s.Tenant
	}},
	{"header." + HeaderTenantID, func(r *http.Request, _ *shared.RequestScope) string {
		if r == nil {
			return ""
		}
		return r.Header.Get(HeaderTenantID)
	}},
	{"header." + HeaderTenant, func(r *http.Request, _ *shared.RequestScope) string {
		if r == nil {
			return ""
		}
		return r.Header.Get(HeaderTenant)
	}},
}

// Resolve returns the normalized tenant identifier for the request, or the
// empty string when no carrier holds one. It never applies a deployment
// default and never mutates the scope.
func Resolve(r *http.Request, scope *shared.RequestScope) string {
	for _, c := range carriers {
		if v := Normalize(c.get(r, scope)); v != "" {
			return v
		}
	}
	return ""
}

// Normalize canonicalizes a tenant identifier: NFKC fold, trim, lowercase.
// Identifiers compare equal iff their normalized forms match.
func Normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(v)))
}
