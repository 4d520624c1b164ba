package authz

import "github.com/terrena-pm/terrena/internal/shared"

// Project is the read-only snapshot the decision engine consumes. Both the
// legacy flat pool fields and the newer role-keyed Assignments map may hold
// membership data; both are consulted.
type Project struct {
	ID            string
	Tenant        string
	PublishStatus string

	// Legacy flat assignment pools.
	AssignedUsers []string
	Promoters     []string
	Commercial    []string
	Legal         []string
	Technical     []string
	Management    []string
	Partners      []string
	Finance       []string
	Accounting    []string

	// Role-keyed pools written by the current schema.
	Assignments map[string][]string
}

// assignmentRoleKeys are the Assignments map keys consulted, in order.
var assignmentRoleKeys = []string{
	shared.RolePromoter,
	shared.RoleCommercial,
	shared.RoleLegal,
	shared.RoleTechnical,
	shared.RoleManagement,
	shared.RolePartner,
	shared.RoleFinance,
	shared.RoleAccounting,
}

// pools returns every candidate membership pool in a fixed order: the nine
// legacy flat fields first, then the role-keyed map entries.
func (p *Project) pools() [][]string {
	out := [][]string{
		p.AssignedUsers,
		p.Promoters,
		p.Commercial,
		p.Legal,
		p.Technical,
		p.Management,
		p.Partners,
		p.Finance,
		p.Accounting,
	}
	for _, key := range assignmentRoleKeys {
		out = append(out, p.Assignments[key])
	}
	return out
}

// Assigned reports whether the actor id appears in any of the project's
// membership pools. A project with no assignment data at all grants no
// implicit access: the result is false. Comparison is by string equality
// since ids arrive in different representations.
func Assigned(p *Project, actorID string) bool {
	if p == nil || actorID == "" {
		return false
	}
	for _, pool := range p.pools() {
		for _, member := range pool {
			if member == actorID {
				return true
			}
		}
	}
	return false
}
