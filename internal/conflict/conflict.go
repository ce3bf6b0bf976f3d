// Package conflict detects and resolves override problems that only show
// up across the whole usage population: duplicate identifiers, collisions
// removal would create, inconsistent naming patterns, and reserved
// keywords.
package conflict

import (
	"fmt"
	"sort"
	"strings"

	"dbtidy/internal/analyze"
	"dbtidy/internal/errs"
	"dbtidy/internal/naming"
	"dbtidy/internal/scan"
	"dbtidy/internal/schema"
	"dbtidy/internal/usage"
)

// Kind classifies a detected conflict.
type Kind string

const (
	KindDuplicateIdentifier       Kind = "duplicate_identifier"
	KindDuplicateNameAfterRemoval Kind = "duplicate_name_after_removal"
	KindPatternInconsistency      Kind = "pattern_inconsistency"
	KindReservedKeyword           Kind = "reserved_keyword"
)

func (k Kind) Valid() bool {
	switch k {
	case KindDuplicateIdentifier, KindDuplicateNameAfterRemoval,
		KindPatternInconsistency, KindReservedKeyword:
		return true
	}
	return false
}

// Conflict spans the usages involved in one detected problem.
type Conflict struct {
	Kind       Kind
	Severity   errs.Severity
	Usages     []usage.Usage
	Suggestion string
}

// Resolution is the resolver's disposition for one affected usage.
type Resolution struct {
	Usage    usage.Usage
	Action   analyze.Action
	NewValue string // set only for modify
	Reason   string
}

// Report is the full outcome of conflict resolution.
type Report struct {
	Conflicts   []Conflict
	Resolutions []Resolution
	Warnings    []string
	Suggestions []string
}

// Resolver runs the population-wide detection passes. Stateless; one
// instance serves a whole run.
type Resolver struct {
	maxLen int
	table  *naming.Table
}

// NewResolver builds a Resolver for the given identifier limit.
func NewResolver(maxLen int, table *naming.Table) *Resolver {
	if maxLen <= 0 {
		maxLen = usage.DefaultMaxIdentifierLength
	}
	if table == nil {
		table = naming.Builtin()
	}
	return &Resolver{maxLen: maxLen, table: table}
}

// indexed pairs a usage with its position in the canonical population
// order, the final tie-breaker for every sort in this package.
type indexed struct {
	usage.Usage
	idx int
}

// Resolve runs every detection pass over the full usage population. The
// passes are independent; a usage can appear in more than one conflict.
// Output is stable under re-ordering of the input because the population
// is first sorted on intrinsic keys.
func (r *Resolver) Resolve(files []scan.File) Report {
	population := flatten(files)

	var rep Report
	taken := make(map[string]bool, len(population))
	for _, u := range population {
		taken[u.Override] = true
	}

	r.duplicateIdentifiers(population, taken, &rep)
	r.duplicateNamesAfterRemoval(population, &rep)
	r.patternInconsistency(population, &rep)
	r.reservedKeywords(population, taken, &rep)
	return rep
}

func flatten(files []scan.File) []indexed {
	var all []indexed
	for _, f := range files {
		for _, u := range f.Usages {
			all = append(all, indexed{Usage: u})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].FilePath != all[j].FilePath {
			return all[i].FilePath < all[j].FilePath
		}
		return all[i].Location < all[j].Location
	})
	for i := range all {
		all[i].idx = i
	}
	return all
}

// duplicateIdentifiers groups usages by final override value; any group
// of more than one is a conflict. The strongest claim keeps the value:
// deepest nesting first, then whichever would blow the length limit
// without its override, then the shortest semantic name.
func (r *Resolver) duplicateIdentifiers(population []indexed, taken map[string]bool, rep *Report) {
	groups := map[string][]indexed{}
	var order []string
	for _, u := range population {
		if _, seen := groups[u.Override]; !seen {
			order = append(order, u.Override)
		}
		groups[u.Override] = append(groups[u.Override], u)
	}

	for _, val := range order {
		group := groups[val]
		if len(group) < 2 {
			continue
		}

		sort.SliceStable(group, func(i, j int) bool {
			if group[i].NestingLevel != group[j].NestingLevel {
				return group[i].NestingLevel > group[j].NestingLevel
			}
			ei := len(group[i].Context.PhysicalWith(group[i].EntityName)) > r.maxLen
			ej := len(group[j].Context.PhysicalWith(group[j].EntityName)) > r.maxLen
			if ei != ej {
				return ei
			}
			if len(group[i].EntityName) != len(group[j].EntityName) {
				return len(group[i].EntityName) < len(group[j].EntityName)
			}
			return group[i].idx < group[j].idx
		})

		rep.Conflicts = append(rep.Conflicts, Conflict{
			Kind:       KindDuplicateIdentifier,
			Severity:   errs.SeverityHigh,
			Usages:     usages(group),
			Suggestion: fmt.Sprintf("identifier %q is claimed by %d entities; rename all but one", val, len(group)),
		})

		rep.Resolutions = append(rep.Resolutions, Resolution{
			Usage:  group[0].Usage,
			Action: analyze.ActionKeep,
			Reason: fmt.Sprintf("strongest claim on duplicate identifier %q", val),
		})
		for _, u := range group[1:] {
			if naming.TrivialEqual(u.Override, u.EntityName) {
				rep.Resolutions = append(rep.Resolutions, Resolution{
					Usage:  u.Usage,
					Action: analyze.ActionRemove,
					Reason: fmt.Sprintf("duplicate identifier %q is redundant here", val),
				})
				continue
			}
			fresh := r.unique(u.EntityName, taken)
			rep.Resolutions = append(rep.Resolutions, Resolution{
				Usage:    u.Usage,
				Action:   analyze.ActionModify,
				NewValue: fresh,
				Reason:   fmt.Sprintf("duplicate identifier %q reassigned to %q", val, fresh),
			})
		}
	}
}

// unique synthesizes an override value not used anywhere in the
// population: abbreviation table, then consonant skeleton, then numeric
// suffix probing. The chosen value is marked taken.
func (r *Resolver) unique(name string, taken map[string]bool) string {
	var candidates []string
	if short, ok := r.table.Abbreviation(strings.ToLower(name)); ok {
		candidates = append(candidates, short)
	}
	if skel := naming.ConsonantSkeleton(name); skel != strings.ToLower(name) {
		candidates = append(candidates, skel)
	}
	for _, c := range candidates {
		if !taken[c] && !r.table.Reserved(c) {
			taken[c] = true
			return c
		}
	}
	base := name
	if len(candidates) > 0 {
		base = candidates[len(candidates)-1]
	}
	for i := 2; ; i++ {
		c := fmt.Sprintf("%s%d", base, i)
		if !taken[c] {
			taken[c] = true
			return c
		}
	}
}

// duplicateNamesAfterRemoval finds entities in the same collection that
// share a semantic name. Removing their overrides would collapse them
// onto one identifier, so every override that differs from the name is
// kept.
func (r *Resolver) duplicateNamesAfterRemoval(population []indexed, rep *Report) {
	groups := map[string][]indexed{}
	var order []string
	for _, u := range population {
		if u.Kind == schema.KindCollection {
			continue
		}
		key := u.Context.CollectionName + "\x00" + u.EntityName
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], u)
	}

	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		differing := false
		for _, u := range group {
			if !naming.TrivialEqual(u.Override, u.EntityName) {
				differing = true
				break
			}
		}
		if !differing {
			continue
		}

		name := group[0].EntityName
		rep.Conflicts = append(rep.Conflicts, Conflict{
			Kind:       KindDuplicateNameAfterRemoval,
			Severity:   errs.SeverityMedium,
			Usages:     usages(group),
			Suggestion: fmt.Sprintf("removing overrides would collapse %d fields onto %q", len(group), name),
		})
		for _, u := range group {
			if naming.TrivialEqual(u.Override, u.EntityName) {
				continue
			}
			rep.Resolutions = append(rep.Resolutions, Resolution{
				Usage:  u.Usage,
				Action: analyze.ActionKeep,
				Reason: fmt.Sprintf("override distinguishes %q from a same-named sibling", name),
			})
		}
	}
}

func usages(group []indexed) []usage.Usage {
	out := make([]usage.Usage, len(group))
	for i, u := range group {
		out[i] = u.Usage
	}
	return out
}
