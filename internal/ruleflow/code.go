package ruleflow

import (
	"fmt"
	"strings"
)

// ComposeCode builds rule code from its structured parts: the free code
// first, then one "attribute = value" line per output assignment.
func ComposeCode(freeCode *string, assignments []OutputAssignment) string {
	var lines []string
	if freeCode != nil {
		if free := strings.TrimRight(*freeCode, "\n"); free != "" {
			lines = append(lines, free)
		}
	}
	for _, a := range assignments {
		lines = append(lines, fmt.Sprintf("%s = %s", a.Attribute, a.Value))
	}
	return strings.Join(lines, "\n")
}

// RegenerateCode returns the code a rule should carry. Rules without a
// structured decomposition keep their code untouched.
func RegenerateCode(r Rule) string {
	if !r.Structured() {
		return r.Code
	}
	return ComposeCode(r.FreeCode, r.OutputAssignments)
}
