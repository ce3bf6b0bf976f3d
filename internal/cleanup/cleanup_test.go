package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dbtidy/internal/analyze"
)

const postsSource = `import type { CollectionConfig } from 'payload'

export const Posts: CollectionConfig = {
  slug: 'posts',
  fields: [
    {
      name: 'title',
      type: 'text',
      dbName: 'title',
    },
    {
      name: 'meta',
      type: 'group',
      fields: [
        {
          name: 'summary',
          type: 'textarea',
          dbName: 'sum',
        },
      ],
    },
  ],
}
`

const settingsSource = `export default {
  slug: 'settings',
  fields: [
    {
      name: 'divider',
      type: 'ui',
      dbName: 'divLine',
    },
    {
      name: 'siteName',
      type: 'text',
    },
  ],
}
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func fixtureProject(t *testing.T) string {
	return writeProject(t, map[string]string{
		"collections/Posts.ts": postsSource,
		"globals/Settings.ts":  settingsSource,
	})
}

func readBack(t *testing.T, root, rel string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func TestDryRun(t *testing.T) {
	root := fixtureProject(t)
	changes, err := NewRunner(DefaultOptions()).DryRun(context.Background(), root)
	if err != nil {
		t.Fatalf("DryRun: %v", err)
	}

	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2: %+v", len(changes), changes)
	}
	// Sorted by file path: collections before globals.
	if changes[0].EntityName != "title" || changes[0].Action != analyze.ActionRemove {
		t.Errorf("changes[0] = %+v, want removal of title", changes[0])
	}
	if changes[1].EntityName != "divider" || changes[1].Action != analyze.ActionRemove {
		t.Errorf("changes[1] = %+v, want removal of divider", changes[1])
	}
	// The abbreviated nested override carries strategic value and is kept.
	for _, c := range changes {
		if c.EntityName == "summary" {
			t.Errorf("strategic override proposed for change: %+v", c)
		}
	}

	if got := readBack(t, root, "collections/Posts.ts"); got != postsSource {
		t.Error("dry run modified a file")
	}
}

func TestRunAppliesChanges(t *testing.T) {
	root := fixtureProject(t)
	res, err := NewRunner(DefaultOptions()).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.FilesProcessed != 2 {
		t.Errorf("FilesProcessed = %d, want 2", res.FilesProcessed)
	}
	if res.ChangesApplied != 2 {
		t.Errorf("ChangesApplied = %d, want 2", res.ChangesApplied)
	}
	if res.Summary.UsagesFound != 3 || res.Summary.Removals != 2 || res.Summary.Kept != 1 {
		t.Errorf("Summary = %+v, want 3 usages, 2 removals, 1 kept", res.Summary)
	}

	posts := readBack(t, root, "collections/Posts.ts")
	if strings.Contains(posts, "dbName: 'title'") {
		t.Error("redundant override survived the run")
	}
	if !strings.Contains(posts, "dbName: 'sum'") {
		t.Error("strategic override removed")
	}
	settings := readBack(t, root, "globals/Settings.ts")
	if strings.Contains(settings, "dbName") {
		t.Error("override on a presentational field survived")
	}
}

func TestRunResolvesDuplicateIdentifiers(t *testing.T) {
	root := writeProject(t, map[string]string{
		"collections/Products.ts": `export const Products = {
  slug: 'products',
  fields: [
    {
      name: 'reference',
      type: 'text',
      dbName: 'ref',
    },
    {
      name: 'meta',
      type: 'group',
      fields: [
        {
          name: 'refCode',
          type: 'text',
          dbName: 'ref',
        },
      ],
    },
  ],
}
`,
	})

	res, err := NewRunner(DefaultOptions()).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Summary.ConflictsFound != 1 {
		t.Errorf("ConflictsFound = %d, want 1", res.Summary.ConflictsFound)
	}
	if res.ChangesApplied != 1 {
		t.Errorf("ChangesApplied = %d, want 1", res.ChangesApplied)
	}

	got := readBack(t, root, "collections/Products.ts")
	// The deeper usage keeps the contested value; the shallower one is
	// reassigned a synthesized identifier.
	if !strings.Contains(got, "name: 'reference',\n      type: 'text',\n      dbName: 'rfrnc',") {
		t.Errorf("shallow usage not reassigned:\n%s", got)
	}
	if strings.Count(got, "dbName: 'ref',") != 1 {
		t.Errorf("contested identifier count wrong:\n%s", got)
	}
}

func TestBuildReport(t *testing.T) {
	root := fixtureProject(t)
	rep, err := NewRunner(DefaultOptions()).BuildReport(context.Background(), root)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	if rep.ProjectPath != root {
		t.Errorf("ProjectPath = %q, want %q", rep.ProjectPath, root)
	}
	if rep.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
	if len(rep.Changes) != 2 {
		t.Errorf("got %d changes, want 2", len(rep.Changes))
	}
	if rep.Summary.FilesScanned != 2 {
		t.Errorf("FilesScanned = %d, want 2", rep.Summary.FilesScanned)
	}

	if got := readBack(t, root, "globals/Settings.ts"); got != settingsSource {
		t.Error("report mode modified a file")
	}
}

func TestRunMissingRoot(t *testing.T) {
	r := NewRunner(DefaultOptions())
	if _, err := r.Run(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("Run on a missing root: want error, got nil")
	}
	if !r.Log().HasCritical() {
		t.Error("missing root not recorded as critical")
	}
}

func TestVerboseLogf(t *testing.T) {
	root := fixtureProject(t)
	var lines []string
	opts := DefaultOptions()
	opts.Verbose = true
	opts.Logf = func(format string, args ...any) {
		lines = append(lines, strings.TrimSpace(format))
	}
	if _, err := NewRunner(opts).DryRun(context.Background(), root); err != nil {
		t.Fatalf("DryRun: %v", err)
	}
	if len(lines) == 0 {
		t.Error("verbose run produced no progress output")
	}
}
