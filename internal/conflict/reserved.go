package conflict

import (
	"fmt"

	"dbtidy/internal/analyze"
	"dbtidy/internal/errs"
	"dbtidy/internal/usage"
)

// reservedPrefixes are semantic category words tried, in order, when a
// reserved identifier needs a non-colliding replacement.
var reservedPrefixes = []string{"field", "data", "item", "value"}

// reservedKeywords flags any usage whose override (or, absent one, whose
// semantic name) is a reserved engine keyword or framework-internal name,
// and resolves it to the first non-reserved candidate.
func (r *Resolver) reservedKeywords(population []indexed, taken map[string]bool, rep *Report) {
	for _, u := range population {
		val := u.Override
		if val == "" {
			val = u.EntityName
		}
		if !r.table.Reserved(val) {
			continue
		}

		fresh := r.unreserved(val, taken)
		rep.Conflicts = append(rep.Conflicts, Conflict{
			Kind:       KindReservedKeyword,
			Severity:   errs.SeverityHigh,
			Usages:     []usage.Usage{u.Usage},
			Suggestion: fmt.Sprintf("%q is reserved; use %q", val, fresh),
		})
		rep.Warnings = append(rep.Warnings,
			fmt.Sprintf("%s: override %q collides with a reserved identifier", u.Context.FullPath, val))
		rep.Resolutions = append(rep.Resolutions, Resolution{
			Usage:    u.Usage,
			Action:   analyze.ActionModify,
			NewValue: fresh,
			Reason:   fmt.Sprintf("reserved identifier %q replaced with %q", val, fresh),
		})
	}
}

// unreserved builds a replacement for a reserved identifier: a category
// prefix first, a Field suffix as the fallback.
func (r *Resolver) unreserved(val string, taken map[string]bool) string {
	for _, prefix := range reservedPrefixes {
		cand := prefix + capitalize(val)
		if !r.table.Reserved(cand) && !taken[cand] {
			taken[cand] = true
			return cand
		}
	}
	cand := val + "Field"
	taken[cand] = true
	return cand
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
