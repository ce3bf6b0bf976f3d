// Package render produces Markdown output from a cleanup report.
package render

import (
	"fmt"
	"strings"

	"dbtidy/internal/analyze"
	"dbtidy/internal/change"
	"dbtidy/internal/cleanup"
)

// Markdown renders a cleanup report as a Markdown document.
func Markdown(r *cleanup.Report) string {
	var b strings.Builder

	b.WriteString("# dbtidy Cleanup Report\n\n")
	fmt.Fprintf(&b, "**Project:** %s\n", r.ProjectPath)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", r.Timestamp.Format("2006-01-02 15:04:05 UTC"))

	s := r.Summary
	fmt.Fprintf(&b, "**Files scanned:** %d\n", s.FilesScanned)
	fmt.Fprintf(&b, "**Overrides found:** %d\n", s.UsagesFound)
	fmt.Fprintf(&b, "**Planned:** %d removals, %d modifications, %d kept\n",
		s.Removals, s.Modifications, s.Kept)
	if s.ConflictsFound > 0 {
		fmt.Fprintf(&b, "**Conflicts detected:** %d\n", s.ConflictsFound)
	}
	b.WriteString("\n")

	removals := filter(r.Changes, analyze.ActionRemove)
	modifications := filter(r.Changes, analyze.ActionModify)

	if len(removals) > 0 {
		b.WriteString("## Removals\n\n")
		for _, c := range removals {
			renderChange(&b, c)
		}
	}
	if len(modifications) > 0 {
		b.WriteString("## Modifications\n\n")
		for _, c := range modifications {
			renderChange(&b, c)
		}
	}
	if len(r.Changes) == 0 {
		b.WriteString("No changes planned.\n\n")
	}

	if len(r.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
		b.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func filter(changes []change.Change, action analyze.Action) []change.Change {
	var out []change.Change
	for _, c := range changes {
		if c.Action == action {
			out = append(out, c)
		}
	}
	return out
}

func renderChange(b *strings.Builder, c change.Change) {
	fmt.Fprintf(b, "### %s [%s risk]\n\n", c.Usage.Context.FullPath, c.Impact)
	fmt.Fprintf(b, "- File: `%s`\n", c.FilePath)
	if c.Action == analyze.ActionModify {
		fmt.Fprintf(b, "- `%s` → `%s`\n", c.OldValue, c.NewValue)
	} else {
		fmt.Fprintf(b, "- Remove override `%s`\n", c.OldValue)
	}
	fmt.Fprintf(b, "- %s\n\n", c.Reason)
}
