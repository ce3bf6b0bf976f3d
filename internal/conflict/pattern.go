package conflict

import (
	"fmt"
	"sort"

	"dbtidy/internal/analyze"
	"dbtidy/internal/errs"
	"dbtidy/internal/naming"
)

// patternShareThreshold is the population share (in percent) above which a
// casing style counts as established rather than incidental.
const patternShareThreshold = 20

// patternInconsistency takes a census of override casing styles. When more
// than one style holds an established share, the minority styles are
// flagged and converted to the dominant one. Ties break in favor of
// camelCase, then by style name. Running the pass on an already
// standardized population
// produces nothing, so standardization is idempotent.
func (r *Resolver) patternInconsistency(population []indexed, rep *Report) {
	counts := map[naming.Style]int{}
	for _, u := range population {
		counts[naming.StyleOf(u.Override)]++
	}
	total := len(population)
	if total == 0 {
		return
	}

	var established []naming.Style
	for style, n := range counts {
		if style == naming.StyleMixed {
			continue
		}
		if n*100 > total*patternShareThreshold {
			established = append(established, style)
		}
	}
	if len(established) < 2 {
		return
	}

	sort.Slice(established, func(i, j int) bool {
		if counts[established[i]] != counts[established[j]] {
			return counts[established[i]] > counts[established[j]]
		}
		ci := established[i] == naming.StyleCamel
		cj := established[j] == naming.StyleCamel
		if ci != cj {
			return ci
		}
		return established[i] < established[j]
	})
	dominant := established[0]

	var flagged []indexed
	for _, u := range population {
		style := naming.StyleOf(u.Override)
		if style == dominant || style == naming.StyleMixed {
			continue
		}
		flagged = append(flagged, u)
	}
	if len(flagged) == 0 {
		return
	}

	rep.Conflicts = append(rep.Conflicts, Conflict{
		Kind:     KindPatternInconsistency,
		Severity: errs.SeverityLow,
		Usages:   usages(flagged),
		Suggestion: fmt.Sprintf("%d overrides deviate from the dominant %s style",
			len(flagged), dominant),
	})
	rep.Suggestions = append(rep.Suggestions,
		fmt.Sprintf("standardize override naming on %s", dominant))

	for _, u := range flagged {
		converted := naming.Convert(u.Override, dominant)
		if converted == u.Override {
			continue
		}
		rep.Resolutions = append(rep.Resolutions, Resolution{
			Usage:    u.Usage,
			Action:   analyze.ActionModify,
			NewValue: converted,
			Reason:   fmt.Sprintf("converted to dominant %s style", dominant),
		})
	}
}
