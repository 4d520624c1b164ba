package projects

import (
	"time"

	"github.com/terrena-pm/terrena/internal/authz"
)

// Project is a development programme owned by exactly one tenant. The nine
// flat pool fields predate the role-keyed Assignments map; writes go to the
// map, but historical rows still carry members only in the flat fields, so
// reads surface both.
type Project struct {
	ID            string              `json:"id"`
	Tenant        string              `json:"tenant"`
	Name          string              `json:"name"`
	PublishStatus string              `json:"publishStatus"`
	AssignedUsers []string            `json:"assignedUsers,omitempty"`
	Promoters     []string            `json:"promoters,omitempty"`
	Commercial    []string            `json:"commercial,omitempty"`
	Legal         []string            `json:"legal,omitempty"`
	Technical     []string            `json:"technical,omitempty"`
	Management    []string            `json:"management,omitempty"`
	Partners      []string            `json:"partners,omitempty"`
	Finance       []string            `json:"finance,omitempty"`
	Accounting    []string            `json:"accounting,omitempty"`
	Assignments   map[string][]string `json:"assignments,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// AccessSnapshot converts the project into the read-only view consumed by
// the decision engine.
func (p *Project) AccessSnapshot() *authz.Project {
	return &authz.Project{
		ID:            p.ID,
		Tenant:        p.Tenant,
		PublishStatus: p.PublishStatus,
		AssignedUsers: p.AssignedUsers,
		Promoters:     p.Promoters,
		Commercial:    p.Commercial,
		Legal:         p.Legal,
		Technical:     p.Technical,
		Management:    p.Management,
		Partners:      p.Partners,
		Finance:       p.Finance,
		Accounting:    p.Accounting,
		Assignments:   p.Assignments,
	}
}

// ValidPublishStatus reports whether s is a recognized lifecycle tag.
func ValidPublishStatus(s string) bool {
	switch s {
	case authz.PublishDraft, authz.PublishPending, authz.PublishApproved, authz.PublishRejected:
		return true
	}
	return false
}
