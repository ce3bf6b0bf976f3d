// Package analyze decides the disposition of each override usage: remove,
// keep, or modify with a shorter candidate.
package analyze

import (
	"fmt"
	"strings"

	"dbtidy/internal/naming"
	"dbtidy/internal/schema"
	"dbtidy/internal/usage"
)

// Action is the recommended disposition for an override.
type Action string

const (
	ActionRemove Action = "remove"
	ActionKeep   Action = "keep"
	ActionModify Action = "modify"
)

func (a Action) Valid() bool {
	switch a {
	case ActionRemove, ActionKeep, ActionModify:
		return true
	}
	return false
}

// Risk estimates how likely a disposition is to break something.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

func (r Risk) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Result is the analyzer's verdict for one usage.
type Result struct {
	Action    Action
	Reason    string
	Risk      Risk
	Suggested string // replacement value, set only for ActionModify
}

// Options configures an Analyzer.
type Options struct {
	MaxIdentifierLength   int
	StrategicNestingLevel int
	PreserveStrategic     bool
	Table                 *naming.Table
}

// Analyzer applies the strategic decision order to single usages. It is
// stateless; one instance serves a whole run.
type Analyzer struct {
	maxLen   int
	nesting  int
	preserve bool
	table    *naming.Table
}

// DefaultStrategicNestingLevel is the depth at which an override is kept
// for nesting complexity alone.
const DefaultStrategicNestingLevel = 3

// New builds an Analyzer, filling unset options with defaults.
func New(opts Options) *Analyzer {
	if opts.MaxIdentifierLength <= 0 {
		opts.MaxIdentifierLength = usage.DefaultMaxIdentifierLength
	}
	if opts.StrategicNestingLevel <= 0 {
		opts.StrategicNestingLevel = DefaultStrategicNestingLevel
	}
	if opts.Table == nil {
		opts.Table = naming.Builtin()
	}
	return &Analyzer{
		maxLen:   opts.MaxIdentifierLength,
		nesting:  opts.StrategicNestingLevel,
		preserve: opts.PreserveStrategic,
		table:    opts.Table,
	}
}

// Analyze returns the verdict for one usage. Decision order is fixed and
// first match wins.
func (a *Analyzer) Analyze(u usage.Usage) Result {
	capability := schema.CapabilityOf(u.Kind)
	if !capability.SupportsOverride {
		return Result{
			Action: ActionRemove,
			Risk:   RiskLow,
			Reason: fmt.Sprintf("field kind %q cannot carry a storage override", u.Kind),
		}
	}

	if naming.TrivialEqual(u.Override, u.EntityName) {
		return Result{
			Action: ActionRemove,
			Risk:   RiskLow,
			Reason: "override is redundant with the semantic name",
		}
	}

	if keep, factors := a.strategicValue(u); keep {
		return Result{
			Action: ActionKeep,
			Risk:   RiskMedium,
			Reason: "strategic value: " + strings.Join(factors, "; "),
		}
	}

	if len(u.Override) > len(u.EntityName) {
		cand := naming.Shorten(u.EntityName, a.table)
		if cand != "" && cand != u.Override && len(cand) < len(u.Override) {
			return Result{
				Action:    ActionModify,
				Risk:      RiskMedium,
				Reason:    "override is longer than the semantic name",
				Suggested: cand,
			}
		}
		return Result{
			Action: ActionRemove,
			Risk:   RiskLow,
			Reason: "override is longer than the semantic name and no shorter form exists",
		}
	}

	return Result{
		Action: ActionRemove,
		Risk:   RiskLow,
		Reason: "override provides no measurable benefit",
	}
}

// strategicValue reports whether any factor justifies keeping the
// override, enumerating every factor that contributed. With
// PreserveStrategic disabled only the length-limit factor counts.
func (a *Analyzer) strategicValue(u usage.Usage) (bool, []string) {
	var factors []string

	bare := u.Context.PhysicalWith(u.EntityName)
	if len(bare) > a.maxLen {
		factors = append(factors, fmt.Sprintf(
			"removal would produce %q (%d chars, limit %d)", bare, len(bare), a.maxLen))
	}

	if !a.preserve {
		return len(factors) > 0, factors
	}

	saved := len(u.EntityName) - len(u.Override)
	if saved >= 3 && len(u.Override)*10 <= len(u.EntityName)*7 {
		factors = append(factors, fmt.Sprintf("override saves %d chars (>=30%%)", saved))
	}

	if u.NestingLevel >= a.nesting {
		factors = append(factors, fmt.Sprintf("nesting level %d", u.NestingLevel))
	}

	ctx := u.Context
	switch {
	case ctx.ContainerKinds() >= 2:
		factors = append(factors, "inside multiple container kinds")
	case ctx.InBlocks:
		factors = append(factors, "inside a blocks container")
	case ctx.ArrayDepth >= 2:
		factors = append(factors, fmt.Sprintf("array nesting depth %d", ctx.ArrayDepth))
	}

	if naming.MeaningfulAbbreviation(u.Override, u.EntityName, a.table) {
		factors = append(factors, "recognized abbreviation of the semantic name")
	}

	capability := schema.CapabilityOf(u.Kind)
	if (capability.Impact == schema.ImpactHigh && u.NestingLevel > 0) ||
		(capability.Impact == schema.ImpactMedium && u.NestingLevel >= 2) {
		factors = append(factors, fmt.Sprintf("%s identifier impact at depth %d", capability.Impact, u.NestingLevel))
	}

	return len(factors) > 0, factors
}
