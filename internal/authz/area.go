package authz

import "regexp"

// Area is the coarse, URL-derived classification of a request. It is a
// secondary capability filter for limited-access roles, never the sole
// authorization basis. Stateless: recomputed per request, nothing persisted.
type Area struct {
	IsSales     bool
	IsChecklist bool
	IsDocs      bool
}

// RouteFlags are route-level overrides set at registration time for routes
// whose path does not carry the area (legacy sales endpoints mostly).
type RouteFlags struct {
	Sales     bool
	Checklist bool
}

// Path patterns accumulated across schema generations. "ventas" predates
// the English route names and is still served.
var (
	salesPattern     = regexp.MustCompile(`(?i)/(ventas|units)(/|$)`)
	checklistPattern = regexp.MustCompile(`(?i)/(checklist|tasks|permits)(/|$)`)
	docsPattern      = regexp.MustCompile(`(?i)/docs(/|$)`)
)

// DetectArea classifies a request path and method. Deterministic and free
// of I/O; the method parameter is accepted for signature stability but no
// current area depends on it.
func DetectArea(path, method string, flags RouteFlags) Area {
	_ = method
	return Area{
		IsSales:     flags.Sales || salesPattern.MatchString(path),
		IsChecklist: flags.Checklist || checklistPattern.MatchString(path),
		IsDocs:      docsPattern.MatchString(path),
	}
}
