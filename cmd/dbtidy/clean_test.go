package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dbtidy/internal/cleanup"
)

func TestExitError(t *testing.T) {
	err := exitError(2, "%d conflicts detected", 4)

	var ee *exitErr
	if !errors.As(err, &ee) {
		t.Fatalf("exitError did not produce *exitErr: %T", err)
	}
	if ee.code != 2 {
		t.Errorf("code = %d, want 2", ee.code)
	}
	if got, want := ee.Error(), "4 conflicts detected"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestFormatReport(t *testing.T) {
	rep := &cleanup.Report{
		ProjectPath: "/srv/app",
		Timestamp:   time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Summary:     cleanup.Summary{FilesScanned: 1},
	}

	md := formatReport(rep, "md")
	if !strings.Contains(md, "# dbtidy Cleanup Report") {
		t.Errorf("markdown output missing header:\n%s", md)
	}

	js := formatReport(rep, "json")
	var decoded cleanup.Report
	if err := json.Unmarshal([]byte(js), &decoded); err != nil {
		t.Fatalf("json output does not parse: %v", err)
	}
	if decoded.ProjectPath != "/srv/app" {
		t.Errorf("ProjectPath = %q, want %q", decoded.ProjectPath, "/srv/app")
	}
}

func TestWriteOutputToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	if err := writeOutput("hello\n", path); err != nil {
		t.Fatalf("writeOutput: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "hello\n" {
		t.Errorf("file content = %q, want %q", raw, "hello\n")
	}
}

func TestRunCleanRejectsUnknownFormat(t *testing.T) {
	err := runClean(t.TempDir(), &cleanFlags{format: "xml"})

	var ee *exitErr
	if !errors.As(err, &ee) {
		t.Fatalf("want *exitErr, got %T: %v", err, err)
	}
	if ee.code != 3 {
		t.Errorf("code = %d, want 3", ee.code)
	}
}

func TestRunCleanDryRunWritesChanges(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "collections")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	src := "export const Posts = {\n  slug: 'posts',\n  fields: [\n    { name: 'title', type: 'text', dbName: 'title' },\n  ],\n}\n"
	if err := os.WriteFile(filepath.Join(dir, "Posts.ts"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(root, "changes.json")
	f := &cleanFlags{dryRun: true, format: "md", out: out, preserveStrategic: true, maxIdentLen: 63}
	if err := runClean(root, f); err != nil {
		t.Fatalf("runClean: %v", err)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var changes []map[string]any
	if err := json.Unmarshal(raw, &changes); err != nil {
		t.Fatalf("dry-run output does not parse: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(changes))
	}
	if got, err := os.ReadFile(filepath.Join(dir, "Posts.ts")); err != nil || string(got) != src {
		t.Error("dry run modified the schema file")
	}
}

func TestRunCleanReportFailOnConflicts(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "collections")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	src := `export const Products = {
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
`
	if err := os.WriteFile(filepath.Join(dir, "Products.ts"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	f := &cleanFlags{
		report: true, format: "json", out: filepath.Join(root, "report.json"),
		failOnConflicts: true, preserveStrategic: true, maxIdentLen: 63,
	}
	err := runClean(root, f)

	var ee *exitErr
	if !errors.As(err, &ee) {
		t.Fatalf("want *exitErr, got %T: %v", err, err)
	}
	if ee.code != 2 {
		t.Errorf("code = %d, want 2", ee.code)
	}
}
