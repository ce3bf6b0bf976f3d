// Package rules is a declarative second opinion on override usages: three
// ordered rule lists (collection, field, validation) evaluated
// first-match-wins, each producing a recommendation with a confidence
// score. The orchestrator reconciles these against the strategic analyzer.
package rules

import (
	"fmt"
	"slices"

	"dbtidy/internal/naming"
	"dbtidy/internal/schema"
	"dbtidy/internal/usage"
)

// Result is one rule category's recommendation for a usage.
type Result struct {
	Rule         string
	ShouldRemove bool
	ShouldKeep   bool
	Reason       string
	Confidence   float64 // in [0,1]; 1.0 marks a hard validation error
}

// rule is a predicate→recommendation pair. A nil return means the rule
// does not apply and evaluation moves to the next one.
type rule struct {
	name  string
	kinds []schema.FieldKind // empty applies to every kind
	eval  func(u usage.Usage) *Result
}

// Engine holds the ordered rule lists.
type Engine struct {
	maxLen     int
	table      *naming.Table
	collection []rule
	field      []rule
	validation []rule
}

// NewEngine builds the rule lists for the given identifier limit.
func NewEngine(maxLen int, table *naming.Table) *Engine {
	if maxLen <= 0 {
		maxLen = usage.DefaultMaxIdentifierLength
	}
	if table == nil {
		table = naming.Builtin()
	}
	e := &Engine{maxLen: maxLen, table: table}
	e.collection = e.collectionRules()
	e.field = e.fieldRules()
	e.validation = e.validationRules()
	return e
}

// Collection evaluates the collection-level rules for a usage.
func (e *Engine) Collection(u usage.Usage) Result {
	return evaluate(e.collection, u)
}

// Field evaluates the field-level rules for a usage.
func (e *Engine) Field(u usage.Usage) Result {
	return evaluate(e.field, u)
}

// Validation evaluates the validation rules for a usage. A result with
// Confidence 1.0 and ShouldKeep set is a hard error: the proposed change
// must not be applied.
func (e *Engine) Validation(u usage.Usage) Result {
	return evaluate(e.validation, u)
}

func evaluate(list []rule, u usage.Usage) Result {
	for _, r := range list {
		if len(r.kinds) > 0 && !slices.Contains(r.kinds, u.Kind) {
			continue
		}
		if res := r.eval(u); res != nil {
			res.Rule = r.name
			return *res
		}
	}
	return Result{Rule: "none", Reason: "no rule matched"}
}

func (e *Engine) collectionRules() []rule {
	return []rule{
		{
			name: "slug-equal",
			eval: func(u usage.Usage) *Result {
				if u.Override == u.EntityName {
					return &Result{ShouldRemove: true, Confidence: 1.0,
						Reason: "override equals the collection slug"}
				}
				return nil
			},
		},
		{
			name: "slug-trivial-transform",
			eval: func(u usage.Usage) *Result {
				if naming.TrivialEqual(u.Override, u.EntityName) {
					return &Result{ShouldRemove: true, Confidence: 0.9,
						Reason: "override is a trivial transform of the slug"}
				}
				return nil
			},
		},
		{
			name: "slug-over-limit",
			eval: func(u usage.Usage) *Result {
				if len(u.EntityName) > e.maxLen && len(u.Override) <= e.maxLen {
					return &Result{ShouldKeep: true, Confidence: 0.95,
						Reason: fmt.Sprintf("slug exceeds %d chars, override does not", e.maxLen)}
				}
				return nil
			},
		},
	}
}

var simpleScalarKinds = []schema.FieldKind{
	schema.KindText, schema.KindTextarea, schema.KindNumber,
	schema.KindCheckbox, schema.KindDate, schema.KindEmail,
}

func (e *Engine) fieldRules() []rule {
	return []rule{
		{
			name: "name-equal",
			eval: func(u usage.Usage) *Result {
				if u.Override == u.EntityName {
					return &Result{ShouldRemove: true, Confidence: 1.0,
						Reason: "override equals the field name"}
				}
				return nil
			},
		},
		{
			name: "longer-not-nested",
			eval: func(u usage.Usage) *Result {
				if len(u.Override) > len(u.EntityName) && !u.Context.IsNested {
					return &Result{ShouldRemove: true, Confidence: 0.85,
						Reason: "override is longer than the name on a top-level field"}
				}
				return nil
			},
		},
		{
			name:  "simple-scalar-no-benefit",
			kinds: simpleScalarKinds,
			eval: func(u usage.Usage) *Result {
				if len(u.Override) >= len(u.EntityName) &&
					len(u.Context.PhysicalWith(u.EntityName)) <= e.maxLen &&
					u.NestingLevel < DefaultKeepNesting {
					return &Result{ShouldRemove: true, Confidence: 0.8,
						Reason: "scalar field gains nothing from an equally long override"}
				}
				return nil
			},
		},
		{
			name: "meaningful-abbreviation",
			eval: func(u usage.Usage) *Result {
				if naming.MeaningfulAbbreviation(u.Override, u.EntityName, e.table) {
					return &Result{ShouldKeep: true, Confidence: 0.9,
						Reason: "override is a recognized abbreviation"}
				}
				return nil
			},
		},
		{
			name: "unsupported-kind",
			eval: func(u usage.Usage) *Result {
				if !schema.CapabilityOf(u.Kind).SupportsOverride {
					return &Result{ShouldRemove: true, Confidence: 1.0,
						Reason: fmt.Sprintf("kind %q does not support overrides", u.Kind)}
				}
				return nil
			},
		},
		{
			name: "presentational-only",
			eval: func(u usage.Usage) *Result {
				if schema.Presentational(u.Kind) {
					return &Result{ShouldRemove: true, Confidence: 0.95,
						Reason: fmt.Sprintf("kind %q is presentational and stores nothing", u.Kind)}
				}
				return nil
			},
		},
		{
			name: "best-practices",
			eval: func(u usage.Usage) *Result {
				if naming.BestPractices(u.Override, u.EntityName, u.NestingLevel) {
					return &Result{ShouldKeep: true, Confidence: 0.7,
						Reason: "override follows naming best practices"}
				}
				return nil
			},
		},
		{
			name: "deep-nesting-shorter",
			eval: func(u usage.Usage) *Result {
				if u.NestingLevel >= DefaultKeepNesting && len(u.Override) < len(u.EntityName) {
					return &Result{ShouldKeep: true, Confidence: 0.8,
						Reason: fmt.Sprintf("shorter override at nesting level %d", u.NestingLevel)}
				}
				return nil
			},
		},
		{
			name: "high-impact-container",
			eval: func(u usage.Usage) *Result {
				if schema.CapabilityOf(u.Kind).Impact == schema.ImpactHigh && u.NestingLevel > 0 {
					return &Result{ShouldKeep: true, Confidence: 0.85,
						Reason: "high identifier-impact container below the root"}
				}
				return nil
			},
		},
	}
}

// DefaultKeepNesting is the nesting level at which field rules start
// favoring keeps.
const DefaultKeepNesting = 3

func (e *Engine) validationRules() []rule {
	return []rule{
		{
			name: "removal-within-limit",
			eval: func(u usage.Usage) *Result {
				bare := u.Context.PhysicalWith(u.EntityName)
				if len(bare) > e.maxLen {
					return &Result{ShouldKeep: true, Confidence: 1.0,
						Reason: fmt.Sprintf("removal yields %q (%d chars, limit %d)", bare, len(bare), e.maxLen)}
				}
				return nil
			},
		},
		{
			// Full collision detection is population-wide and belongs to
			// the conflict resolver; this only flags the local smell of a
			// field named after one of its own ancestors.
			name: "naming-collision",
			eval: func(u usage.Usage) *Result {
				if slices.Contains(u.Context.AncestorNames, u.EntityName) {
					return &Result{ShouldKeep: true, Confidence: 0.5,
						Reason: "bare name repeats an ancestor name"}
				}
				return nil
			},
		},
		{
			name: "backward-compatibility",
			eval: func(u usage.Usage) *Result {
				if u.Context.IsNested && len(u.Override) < len(u.EntityName) {
					return &Result{ShouldKeep: true, Confidence: 0.5,
						Reason: "nested shorter override; existing columns may depend on it"}
				}
				return nil
			},
		},
		{
			name: "identifier-format",
			eval: func(u usage.Usage) *Result {
				if !naming.IsIdentifier(u.Override) {
					return &Result{ShouldKeep: true, Confidence: 1.0,
						Reason: fmt.Sprintf("override %q is not a valid identifier", u.Override)}
				}
				return nil
			},
		},
		{
			name: "best-practices",
			eval: func(u usage.Usage) *Result {
				if !naming.BestPractices(u.Override, u.EntityName, u.NestingLevel) {
					return &Result{Confidence: 0.4,
						Reason: "override does not follow naming best practices"}
				}
				return nil
			},
		},
	}
}
