package permits

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Validate checks the internal consistency of a template's dependency
// graph: codes present and unique, titles present, every dependency edge
// resolving to an existing code. All problems are accumulated so a caller
// sees the full list at once. Cycles are not detected here; templates are
// hand-authored and small.
func Validate(tpl Template) []string {
	var errs []string

	seen := make(map[string]bool, len(tpl.Items))
	for i, item := range tpl.Items {
		code := strings.TrimSpace(item.Code)
		if code == "" {
			errs = append(errs, fmt.Sprintf("item %d has no code", i+1))
		}
		if strings.TrimSpace(item.Title) == "" {
			label := "no code"
			if code != "" {
				label = code
			}
			errs = append(errs, fmt.Sprintf("item %q has no title", label))
		}
		if code == "" {
			continue
		}
		if seen[code] {
			errs = append(errs, fmt.Sprintf("duplicate code %q", code))
			continue
		}
		seen[code] = true
	}

	for _, item := range tpl.Items {
		for _, dep := range item.DependsOn {
			if !seen[strings.TrimSpace(dep)] {
				errs = append(errs, fmt.Sprintf("dependency %s -> %s references a missing code", item.Code, dep))
			}
		}
	}

	return errs
}

// durationPattern matches a number optionally followed by a unit word.
var durationPattern = regexp.MustCompile(`^\s*(\d+)\s*([a-zA-Záéí]*)\s*$`)

// DurationDays converts a human duration expression into a day count. A
// month unit ("mes"/"meses"/"month"/"months") multiplies by 30; a bare
// number is already days. Unparseable input yields 0.
func DurationDays(expr string) int {
	m := durationPattern.FindStringSubmatch(expr)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	unit := strings.ToLower(m[2])
	if strings.HasPrefix(unit, "mes") || strings.HasPrefix(unit, "month") {
		return n * 30
	}
	return n
}
