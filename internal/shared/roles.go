package shared

// Roles declared for the access decision engine. The set is closed: the
// engine receives these through its config, never by reading globals at
// decision time.
const (
	// RoleAdmin is the superuser role with unconditional access.
	RoleAdmin = "admin"
	// RoleBank is the funding institution reviewing projects it finances.
	RoleBank = "bank"

	// Project-scoped functional roles.
	RolePromoter   = "promoter"
	RoleCommercial = "commercial"
	RoleLegal      = "legal"
	RoleTechnical  = "technical"
	RoleManagement = "management"
	RolePartner    = "partner"
	RoleFinance    = "finance"
	RoleAccounting = "accounting"
)

// AllRoles lists every recognized role tag.
func AllRoles() []string {
	return []string{
		RoleAdmin,
		RoleBank,
		RolePromoter,
		RoleCommercial,
		RoleLegal,
		RoleTechnical,
		RoleManagement,
		RolePartner,
		RoleFinance,
		RoleAccounting,
	}
}

// AccountStatus values persisted for actors.
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusBlocked = "blocked"
)
