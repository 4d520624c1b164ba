package permits

import "time"

// TemplateItem is one named work item in a permit template. DependsOn lists
// the codes of prerequisite items within the same template.
type TemplateItem struct {
	Code      string   `json:"code"`
	Title     string   `json:"title"`
	DependsOn []string `json:"dependsOn,omitempty"`
	// Duration is a human expression like "3 meses" or "45"; see DurationDays.
	Duration string `json:"duration,omitempty"`
}

// Template is a reusable directed graph of permit work items. Immutable
// input to instantiation.
type Template struct {
	ID        string         `json:"id"`
	Tenant    string         `json:"tenant"`
	Name      string         `json:"name"`
	Items     []TemplateItem `json:"items"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Statuses of an instantiated permit item. Independent of the template.
const (
	ItemPending  = "pending"
	ItemActive   = "active"
	ItemDone     = "done"
	ItemRejected = "rejected"
)

// ProjectItem is the per-project mutable copy produced by instantiation.
type ProjectItem struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId"`
	TemplateID string    `json:"templateId"`
	Code       string    `json:"code"`
	Title      string    `json:"title"`
	DependsOn  []string  `json:"dependsOn,omitempty"`
	Status     string    `json:"status"`
	DueInDays  int       `json:"dueInDays"`
	CreatedAt  time.Time `json:"createdAt"`
}
