// Package authz implements the per-request access decision for
// project-scoped resources: an ordered rule chain over (role, project
// lifecycle, URL area, method), with per-role policies dispatched through a
// lookup table built at construction.
package authz

import (
	"net/http"
	"regexp"

	"github.com/terrena-pm/terrena/internal/shared"
)

// Publish lifecycle states of a project.
const (
	PublishDraft    = "draft"
	PublishPending  = "pending"
	PublishApproved = "approved"
	PublishRejected = "rejected"
)

// Reason is the stable machine-readable explanation attached to a verdict.
type Reason string

// Deny reasons.
const (
	ReasonNoRole              Reason = "no_role"
	ReasonCreateNotPermitted  Reason = "create_not_permitted"
	ReasonTenantMismatch      Reason = "tenant_mismatch"
	ReasonNotAssigned         Reason = "not_assigned"
	ReasonEditNotPermitted    Reason = "edit_not_permitted"
	ReasonSalesOnly           Reason = "sales_only"
	ReasonChecklistOrDocsOnly Reason = "checklist_or_docs_only"
	ReasonUnknownRoleDenied   Reason = "unknown_role"
)

// NotApprovedReason names the deny for a role blocked by publish state.
func NotApprovedReason(role string) Reason {
	return Reason("not_approved_for_" + role)
}

// Verdict is the outcome of a decision. Reason is empty on allow.
type Verdict struct {
	Allowed bool
	Reason  Reason
}

var allowed = Verdict{Allowed: true}

func deny(r Reason) Verdict {
	return Verdict{Reason: r}
}

// Options tune the decision per deployment without changing rule order.
type Options struct {
	AllowCreateFor          []string
	PromoterCanEditAssigned bool
	CommercialOnlySales     bool
}

// Config fixes the role sets the engine dispatches on. It is immutable
// after construction so tests can substitute alternate sets without
// process-wide side effects.
type Config struct {
	// Superuser bypasses every other rule, including the tenant check.
	Superuser string
	// FundingRole is trusted unconditionally within its tenant.
	FundingRole string
	// TrustedPermitReaders may read permit status regardless of assignment
	// and publish state.
	TrustedPermitReaders []string
	// PromoterRoles require assignment + approval and may be read-only.
	PromoterRoles []string
	// ApprovedOnlyRoles require assignment + approval, nothing else.
	ApprovedOnlyRoles []string
	// CommercialRoles additionally restrict to the sales area when the
	// option demands it.
	CommercialRoles []string
	// AreaBoundRoles are confined to checklist and docs areas.
	AreaBoundRoles []string
}

// DefaultConfig wires the production role matrix.
func DefaultConfig() Config {
	return Config{
		Superuser:            shared.RoleAdmin,
		FundingRole:          shared.RoleBank,
		TrustedPermitReaders: []string{shared.RoleBank, shared.RoleAdmin},
		PromoterRoles:        []string{shared.RolePromoter},
		ApprovedOnlyRoles: []string{
			shared.RoleManagement,
			shared.RolePartner,
			shared.RoleFinance,
			shared.RoleAccounting,
		},
		CommercialRoles: []string{shared.RoleCommercial},
		AreaBoundRoles:  []string{shared.RoleLegal, shared.RoleTechnical},
	}
}

// Input is the full read-only snapshot a decision is evaluated against.
// Identical inputs always yield identical verdicts.
type Input struct {
	Actor   shared.Actor
	Project *Project
	Method  string
	Path    string
	Flags   RouteFlags
	Options Options
}

type ruleFunc func(in Input, role string, area Area, assigned bool) Verdict

// Engine evaluates access decisions for project-scoped requests.
type Engine struct {
	cfg   Config
	rules map[string]ruleFunc
}

// NewEngine builds the role dispatch table from the config. Unknown roles
// have no table entry and are denied explicitly, never by fallthrough.
func NewEngine(cfg Config) *Engine {
	e := &Engine{cfg: cfg, rules: make(map[string]ruleFunc)}
	if cfg.FundingRole != "" {
		e.rules[cfg.FundingRole] = func(Input, string, Area, bool) Verdict { return allowed }
	}
	for _, role := range cfg.PromoterRoles {
		e.rules[role] = promoterRule
	}
	for _, role := range cfg.ApprovedOnlyRoles {
		e.rules[role] = approvedOnlyRule
	}
	for _, role := range cfg.CommercialRoles {
		e.rules[role] = commercialRule
	}
	for _, role := range cfg.AreaBoundRoles {
		e.rules[role] = areaBoundRule
	}
	return e
}

var (
	projectCollectionPattern = regexp.MustCompile(`/projects/?$`)
	permitsReadPattern       = regexp.MustCompile(`(?i)/permits(/|$)`)
)

// Decide evaluates the rule chain in order; the first matching rule
// terminates evaluation.
func (e *Engine) Decide(in Input) Verdict {
	role := in.Actor.Role
	if role == "" {
		return deny(ReasonNoRole)
	}
	if role == e.cfg.Superuser {
		return allowed
	}

	// Creation is gated on method and path alone; any project snapshot
	// resolved from stray body fields does not change the outcome.
	if in.Method == http.MethodPost && projectCollectionPattern.MatchString(in.Path) {
		if containsRole(in.Options.AllowCreateFor, role) {
			return allowed
		}
		return deny(ReasonCreateNotPermitted)
	}

	// Not project-scoped: the route authorizes itself.
	if in.Project == nil {
		return allowed
	}

	if in.Project.Tenant != in.Actor.Tenant {
		return deny(ReasonTenantMismatch)
	}

	assigned := Assigned(in.Project, in.Actor.ID)

	// Permit status must stay visible to assigned actors and trusted
	// reviewers even while the project is not yet approved.
	if in.Method == http.MethodGet && permitsReadPattern.MatchString(in.Path) {
		if assigned || containsRole(e.cfg.TrustedPermitReaders, role) {
			return allowed
		}
		return deny(ReasonNotAssigned)
	}

	rule, ok := e.rules[role]
	if !ok {
		return deny(ReasonUnknownRoleDenied)
	}
	area := DetectArea(in.Path, in.Method, in.Flags)
	return rule(in, role, area, assigned)
}

func promoterRule(in Input, role string, _ Area, assigned bool) Verdict {
	if !assigned {
		return deny(ReasonNotAssigned)
	}
	if in.Project.PublishStatus != PublishApproved {
		return deny(NotApprovedReason(role))
	}
	if !in.Options.PromoterCanEditAssigned && isMutating(in.Method) {
		return deny(ReasonEditNotPermitted)
	}
	return allowed
}

func approvedOnlyRule(in Input, role string, _ Area, assigned bool) Verdict {
	if !assigned {
		return deny(ReasonNotAssigned)
	}
	if in.Project.PublishStatus != PublishApproved {
		return deny(NotApprovedReason(role))
	}
	return allowed
}

func commercialRule(in Input, role string, area Area, assigned bool) Verdict {
	if !assigned {
		return deny(ReasonNotAssigned)
	}
	if in.Project.PublishStatus != PublishApproved {
		return deny(NotApprovedReason(role))
	}
	if in.Options.CommercialOnlySales && !area.IsSales {
		return deny(ReasonSalesOnly)
	}
	return allowed
}

func areaBoundRule(in Input, role string, area Area, assigned bool) Verdict {
	if !assigned {
		return deny(ReasonNotAssigned)
	}
	if in.Project.PublishStatus != PublishApproved {
		return deny(NotApprovedReason(role))
	}
	if !area.IsChecklist && !area.IsDocs {
		return deny(ReasonChecklistOrDocsOnly)
	}
	return allowed
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
