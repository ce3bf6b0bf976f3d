package render

import (
	"strings"
	"testing"
	"time"

	"dbtidy/internal/analyze"
	"dbtidy/internal/change"
	"dbtidy/internal/cleanup"
	"dbtidy/internal/usage"
)

func sampleReport() *cleanup.Report {
	return &cleanup.Report{
		ProjectPath: "/srv/app",
		Timestamp:   time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Summary: cleanup.Summary{
			FilesScanned:   3,
			UsagesFound:    5,
			Removals:       1,
			Modifications:  1,
			Kept:           3,
			ConflictsFound: 1,
		},
		Changes: []change.Change{
			{
				FilePath:   "collections/Posts.ts",
				EntityName: "title",
				Action:     analyze.ActionRemove,
				OldValue:   "title",
				Impact:     analyze.RiskLow,
				Reason:     "override is redundant with the semantic name",
				Usage:      usage.Usage{Context: usage.Context{FullPath: "posts.title"}},
			},
			{
				FilePath:   "collections/Posts.ts",
				EntityName: "heading",
				Action:     analyze.ActionModify,
				OldValue:   "headingText",
				NewValue:   "hdr",
				Impact:     analyze.RiskMedium,
				Reason:     "override is longer than the semantic name",
				Usage:      usage.Usage{Context: usage.Context{FullPath: "posts.heading"}},
			},
		},
		Recommendations: []string{"standardize override naming on camelCase"},
		Warnings:        []string{"posts.legacy: override collides with a reserved identifier"},
	}
}

func TestMarkdown(t *testing.T) {
	got := Markdown(sampleReport())

	for _, want := range []string{
		"# dbtidy Cleanup Report",
		"**Project:** /srv/app",
		"**Generated:** 2026-03-14 09:30:00 UTC",
		"**Files scanned:** 3",
		"**Planned:** 1 removals, 1 modifications, 3 kept",
		"**Conflicts detected:** 1",
		"## Removals",
		"### posts.title [low risk]",
		"Remove override `title`",
		"## Modifications",
		"`headingText` → `hdr`",
		"## Recommendations",
		"standardize override naming on camelCase",
		"## Warnings",
		"reserved identifier",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestMarkdownNoChanges(t *testing.T) {
	rep := sampleReport()
	rep.Changes = nil
	rep.Summary.ConflictsFound = 0

	got := Markdown(rep)
	if !strings.Contains(got, "No changes planned.") {
		t.Errorf("empty report missing placeholder:\n%s", got)
	}
	if strings.Contains(got, "## Removals") || strings.Contains(got, "Conflicts detected") {
		t.Errorf("empty report carries change sections:\n%s", got)
	}
}
