package cleanup

import (
	"context"
	"time"

	"dbtidy/internal/analyze"
	"dbtidy/internal/change"
	"dbtidy/internal/conflict"
	"dbtidy/internal/errs"
	"dbtidy/internal/scan"
)

// Summary aggregates one run's numbers.
type Summary struct {
	FilesScanned   int                  `json:"files_scanned"`
	UsagesFound    int                  `json:"usages_found"`
	Removals       int                  `json:"removals"`
	Modifications  int                  `json:"modifications"`
	Kept           int                  `json:"kept"`
	ConflictsFound int                  `json:"conflicts_found"`
	ByRisk         map[analyze.Risk]int `json:"by_risk"`
}

// Result is the outcome of a full (applying) run.
type Result struct {
	FilesProcessed int          `json:"files_processed"`
	ChangesApplied int          `json:"changes_applied"`
	Errors         []errs.Entry `json:"errors,omitempty"`
	Summary        Summary      `json:"summary"`
}

// Report is the outcome of a report-mode run. Created fresh each run and
// never persisted by the pipeline itself.
type Report struct {
	ProjectPath     string          `json:"project_path"`
	Timestamp       time.Time       `json:"timestamp"`
	Summary         Summary         `json:"summary"`
	Changes         []change.Change `json:"changes"`
	Recommendations []string        `json:"recommendations,omitempty"`
	Warnings        []string        `json:"warnings,omitempty"`
}

func summarize(files []scan.File, changes []change.Change, rep conflict.Report) Summary {
	s := Summary{
		FilesScanned:   len(files),
		ConflictsFound: len(rep.Conflicts),
		ByRisk:         map[analyze.Risk]int{},
	}
	for _, f := range files {
		s.UsagesFound += len(f.Usages)
	}
	for _, c := range changes {
		switch c.Action {
		case analyze.ActionRemove:
			s.Removals++
		case analyze.ActionModify:
			s.Modifications++
		}
		s.ByRisk[c.Impact]++
	}
	s.Kept = s.UsagesFound - len(changes)
	if s.Kept < 0 {
		s.Kept = 0
	}
	return s
}

// Run executes the full pipeline and applies the approved changes.
func (r *Runner) Run(ctx context.Context, root string) (*Result, error) {
	changes, files, rep, err := r.pipeline(ctx, root)
	if err != nil {
		return nil, err
	}

	applied := 0
	if r.opts.DryRun {
		r.verbose("dry run: %d changes not applied", len(changes))
	} else {
		mres := r.modifier.Apply(changes)
		applied = len(mres.Applied)
		r.verbose("modified %d files", mres.FilesModified)
	}

	return &Result{
		FilesProcessed: len(files),
		ChangesApplied: applied,
		Errors:         r.log.Entries(),
		Summary:        summarize(files, changes, rep),
	}, nil
}

// DryRun executes every phase except application and returns the changes
// that would have been applied.
func (r *Runner) DryRun(ctx context.Context, root string) ([]change.Change, error) {
	changes, _, _, err := r.pipeline(ctx, root)
	return changes, err
}

// BuildReport executes the pipeline without applying anything and renders
// the outcome as a report.
func (r *Runner) BuildReport(ctx context.Context, root string) (*Report, error) {
	changes, files, rep, err := r.pipeline(ctx, root)
	if err != nil {
		return nil, err
	}

	out := &Report{
		ProjectPath: root,
		Timestamp:   time.Now().UTC(),
		Summary:     summarize(files, changes, rep),
		Changes:     changes,
		Warnings:    rep.Warnings,
	}
	out.Recommendations = append(out.Recommendations, rep.Suggestions...)
	for _, e := range r.log.Entries() {
		switch e.Severity {
		case errs.SeverityLow, errs.SeverityMedium:
			out.Warnings = append(out.Warnings, e.Error())
		}
	}
	return out, nil
}
