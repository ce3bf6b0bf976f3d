// Package cleanup sequences the five-phase pipeline: discovery, strategic
// analysis, rule evaluation, conflict resolution and validation, and safe
// application. It owns every per-run collection; the services it composes
// are stateless.
package cleanup

import (
	"context"
	"fmt"

	"dbtidy/internal/analyze"
	"dbtidy/internal/change"
	"dbtidy/internal/conflict"
	"dbtidy/internal/errs"
	"dbtidy/internal/extract"
	"dbtidy/internal/modify"
	"dbtidy/internal/naming"
	"dbtidy/internal/rules"
	"dbtidy/internal/scan"
	"dbtidy/internal/schema"
	"dbtidy/internal/usage"
	"dbtidy/internal/validate"
)

// Options are the run inputs.
type Options struct {
	DryRun                bool
	Verbose               bool
	PreserveStrategic     bool
	MaxIdentifierLength   int
	StrategicNestingLevel int
	ExcludePatterns       []string
	IncludePatterns       []string
	Logf                  func(format string, args ...any) // verbose sink; nil discards
}

// DefaultOptions returns the options a plain run uses.
func DefaultOptions() Options {
	return Options{
		PreserveStrategic:     true,
		MaxIdentifierLength:   usage.DefaultMaxIdentifierLength,
		StrategicNestingLevel: analyze.DefaultStrategicNestingLevel,
	}
}

// keepVetoConfidence is the rule-engine confidence at which a ShouldKeep
// field rule overrides the analyzer's remove verdict.
const keepVetoConfidence = 0.8

// Runner composes the pipeline services for one configuration.
type Runner struct {
	opts      Options
	log       *errs.Log
	scanner   *scan.Scanner
	analyzer  *analyze.Analyzer
	engine    *rules.Engine
	resolver  *conflict.Resolver
	validator *validate.Validator
	modifier  *modify.Modifier
}

// NewRunner wires the default services for the given options.
func NewRunner(opts Options) *Runner {
	if opts.MaxIdentifierLength <= 0 {
		opts.MaxIdentifierLength = usage.DefaultMaxIdentifierLength
	}
	table := naming.Builtin()
	log := errs.NewLog()
	return &Runner{
		opts: opts,
		log:  log,
		scanner: scan.NewScanner(extract.NewSource(), log, scan.Options{
			MaxIdentifierLength: opts.MaxIdentifierLength,
			IncludePatterns:     opts.IncludePatterns,
			ExcludePatterns:     opts.ExcludePatterns,
		}),
		analyzer: analyze.New(analyze.Options{
			MaxIdentifierLength:   opts.MaxIdentifierLength,
			StrategicNestingLevel: opts.StrategicNestingLevel,
			PreserveStrategic:     opts.PreserveStrategic,
			Table:                 table,
		}),
		engine:    rules.NewEngine(opts.MaxIdentifierLength, table),
		resolver:  conflict.NewResolver(opts.MaxIdentifierLength, table),
		validator: validate.New(opts.MaxIdentifierLength, table),
		modifier:  modify.New(log),
	}
}

// Log exposes the run's diagnostic log.
func (r *Runner) Log() *errs.Log {
	return r.log
}

func (r *Runner) verbose(format string, args ...any) {
	if r.opts.Verbose && r.opts.Logf != nil {
		r.opts.Logf(format, args...)
	}
}

// pipeline runs discovery through validation and returns the approved
// change set. Later phases consume the complete population produced by
// earlier ones, so each phase finishes before the next starts.
func (r *Runner) pipeline(ctx context.Context, root string) ([]change.Change, []scan.File, conflict.Report, error) {
	r.verbose("scanning %s", root)
	files, err := r.scanner.Scan(ctx, root)
	if err != nil {
		return nil, nil, conflict.Report{}, fmt.Errorf("cleanup: discovery: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, conflict.Report{}, err
	}
	r.verbose("found %d schema files", len(files))

	proposed := r.propose(files)
	r.verbose("proposed %d changes", len(proposed))

	rep := r.resolver.Resolve(files)
	r.verbose("detected %d conflicts", len(rep.Conflicts))
	merged := r.reconcile(proposed, rep)

	approved := r.validateChanges(merged)
	r.verbose("approved %d changes", len(approved))

	if r.log.HasCritical() {
		return nil, nil, rep, fmt.Errorf("cleanup: aborted on critical error:\n%s", r.log.Report())
	}
	change.Sort(approved)
	return approved, files, rep, nil
}

// propose runs the analyzer over every usage, cross-checked by the rule
// engine. The analyzer's verdict is primary; a confident ShouldKeep from
// the rules vetoes a proposed removal.
func (r *Runner) propose(files []scan.File) []change.Change {
	var proposed []change.Change
	for _, f := range files {
		for _, u := range f.Usages {
			res := r.analyzer.Analyze(u)

			var second rules.Result
			if u.Kind == schema.KindCollection {
				second = r.engine.Collection(u)
			} else {
				second = r.engine.Field(u)
			}

			if res.Action == analyze.ActionKeep {
				continue
			}
			if second.ShouldKeep && second.Confidence >= keepVetoConfidence {
				r.log.Addf(errs.CategoryAnalysis, errs.SeverityLow, u.FilePath,
					"%s: %s kept on rule cross-check (%s)", u.Context.FullPath, res.Action, second.Reason)
				continue
			}
			if res.Action == analyze.ActionModify && res.Suggested == "" {
				continue
			}

			proposed = append(proposed, change.Change{
				FilePath:   u.FilePath,
				Location:   u.Location,
				EntityName: u.EntityName,
				Action:     res.Action,
				OldValue:   u.Override,
				NewValue:   res.Suggested,
				Impact:     res.Risk,
				Reason:     res.Reason,
				Usage:      u,
			})
		}
	}
	return proposed
}

// reconcile folds conflict resolutions into the proposed set. Resolutions
// are authoritative: a keep drops the proposal, a remove or modify
// replaces it (or adds one where analysis proposed nothing).
func (r *Runner) reconcile(proposed []change.Change, rep conflict.Report) []change.Change {
	byKey := map[string]int{}
	for i, c := range proposed {
		byKey[c.FilePath+"\x00"+c.Location] = i
	}
	dropped := map[int]bool{}

	var extra []change.Change
	for _, res := range rep.Resolutions {
		key := res.Usage.FilePath + "\x00" + res.Usage.Location
		idx, has := byKey[key]

		switch res.Action {
		case analyze.ActionKeep:
			if has {
				dropped[idx] = true
				r.log.Addf(errs.CategoryAnalysis, errs.SeverityLow, res.Usage.FilePath,
					"%s: proposal withdrawn: %s", res.Usage.Context.FullPath, res.Reason)
			}
		case analyze.ActionRemove, analyze.ActionModify:
			c := change.Change{
				FilePath:   res.Usage.FilePath,
				Location:   res.Usage.Location,
				EntityName: res.Usage.EntityName,
				Action:     res.Action,
				OldValue:   res.Usage.Override,
				NewValue:   res.NewValue,
				Impact:     analyze.RiskMedium,
				Reason:     res.Reason,
				Usage:      res.Usage,
			}
			if has {
				proposed[idx] = c
			} else {
				extra = append(extra, c)
			}
		}
	}

	var merged []change.Change
	for i, c := range proposed {
		if !dropped[i] {
			merged = append(merged, c)
		}
	}
	return append(merged, extra...)
}

// validateChanges is the final gate. A validation-rule error or a blocking
// validator issue forces the change back to keep; warnings are recorded
// and the change proceeds. The surviving batch is then re-checked for
// duplicate resulting identifiers.
func (r *Runner) validateChanges(changes []change.Change) []change.Change {
	var approved []change.Change
	for _, c := range changes {
		vres := r.engine.Validation(c.Usage)
		if vres.ShouldKeep && vres.Confidence >= 1.0 {
			r.log.Addf(errs.CategoryValidation, errs.SeverityMedium, c.FilePath,
				"%s: change rejected by rule %s: %s", c.Usage.Context.FullPath, vres.Rule, vres.Reason)
			continue
		}
		if vres.Rule != "none" && vres.Confidence < 1.0 {
			r.log.Addf(errs.CategoryValidation, errs.SeverityLow, c.FilePath,
				"%s: %s", c.Usage.Context.FullPath, vres.Reason)
		}

		blocked := false
		for _, issue := range r.validator.Check(c) {
			sev := errs.SeverityLow
			if issue.Blocking {
				sev = errs.SeverityMedium
				blocked = true
			}
			r.log.Addf(errs.CategoryValidation, sev, c.FilePath, "%s", issue.Error())
		}
		if blocked {
			continue
		}
		approved = append(approved, c)
	}

	blockedPaths := map[string]bool{}
	for _, issue := range r.validator.CheckForConflicts(approved) {
		blockedPaths[issue.Path] = true
		r.log.Addf(errs.CategoryValidation, errs.SeverityMedium, "", "%s", issue.Error())
	}
	if len(blockedPaths) == 0 {
		return approved
	}
	var out []change.Change
	for _, c := range approved {
		if !blockedPaths[c.Usage.Context.FullPath] {
			out = append(out, c)
		}
	}
	return out
}
