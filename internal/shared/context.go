package shared

import "context"

// TenantRef is a tenant context object attached upstream of the guard chain
// (gateway or tests). ID is the canonical key; Slug is the alternate key
// older clients still send.
type TenantRef struct {
	ID   string
	Slug string
}

// Actor carries the identity attached to the current request. Role and
// status are normalized to lowercase before any comparison.
type Actor struct {
	ID     string
	Role   string
	Status string
	Tenant string
	Email  string
	Name   string
}

// RequestScope is the mutable per-request state shared across the guard
// chain. A single pointer travels in the context so the identity verifier
// and the account guard can stamp the resolved tenant back for downstream
// handlers.
type RequestScope struct {
	TenantRef *TenantRef
	Tenant    string
	Actor     Actor

	// Route-level area flags set at route registration, consulted by the
	// area detector in addition to URL patterns.
	RouteSales     bool
	RouteChecklist bool
}

type scopeContextKey struct{}

// ContextWithScope stores the request scope in context.
func ContextWithScope(ctx context.Context, scope *RequestScope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// ScopeFromContext extracts the request scope from context.
func ScopeFromContext(ctx context.Context) *RequestScope {
	scope, _ := ctx.Value(scopeContextKey{}).(*RequestScope)
	return scope
}
