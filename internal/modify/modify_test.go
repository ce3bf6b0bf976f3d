package modify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dbtidy/internal/analyze"
	"dbtidy/internal/change"
	"dbtidy/internal/errs"
)

const postsSource = `export const Posts = {
  slug: 'posts',
  dbName: 'blog_posts',
  fields: [
    {
      name: 'title',
      type: 'text',
      dbName: 'title',
    },
    {
      name: 'description',
      type: 'textarea',
      dbName: 'desc',
    },
  ],
}
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Posts.ts")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readBack(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func TestApplyRemove(t *testing.T) {
	path := writeFixture(t, postsSource)
	res := New(errs.NewLog()).Apply([]change.Change{{
		FilePath:   path,
		Location:   "fields.title",
		EntityName: "title",
		Action:     analyze.ActionRemove,
		OldValue:   "title",
	}})

	if len(res.Failures) != 0 {
		t.Fatalf("failures: %+v", res.Failures)
	}
	if res.FilesModified != 1 || len(res.Applied) != 1 {
		t.Fatalf("FilesModified = %d, Applied = %d", res.FilesModified, len(res.Applied))
	}

	got := readBack(t, path)
	if strings.Contains(got, "dbName: 'title'") {
		t.Error("override still present after removal")
	}
	if !strings.Contains(got, "name: 'title'") {
		t.Error("semantic name lost during removal")
	}
	if !strings.Contains(got, "dbName: 'desc'") {
		t.Error("neighboring override disturbed")
	}
	if strings.Contains(got, "\n\n\n") {
		t.Error("removal left a blank-line run")
	}
}

func TestApplyModify(t *testing.T) {
	path := writeFixture(t, postsSource)
	res := New(errs.NewLog()).Apply([]change.Change{{
		FilePath:   path,
		Location:   "fields.description",
		EntityName: "description",
		Action:     analyze.ActionModify,
		OldValue:   "desc",
		NewValue:   "dscr",
	}})

	if len(res.Failures) != 0 {
		t.Fatalf("failures: %+v", res.Failures)
	}
	got := readBack(t, path)
	if !strings.Contains(got, "dbName: 'dscr',") {
		t.Errorf("rewritten value missing:\n%s", got)
	}
	if strings.Contains(got, "'desc'") {
		t.Error("old value still present")
	}
}

func TestApplyInlineProperty(t *testing.T) {
	src := `export default {
  slug: 'quote',
  fields: [
    { name: 'cite', dbName: 'c', type: 'text' },
  ],
}
`
	path := writeFixture(t, src)
	res := New(errs.NewLog()).Apply([]change.Change{{
		FilePath:   path,
		Location:   "fields.cite",
		EntityName: "cite",
		Action:     analyze.ActionRemove,
		OldValue:   "c",
	}})

	if len(res.Failures) != 0 {
		t.Fatalf("failures: %+v", res.Failures)
	}
	got := readBack(t, path)
	if !strings.Contains(got, "{ name: 'cite', type: 'text' }") {
		t.Errorf("inline removal mangled the line:\n%s", got)
	}
}

func TestApplyAmbiguousUsesEntityAnchor(t *testing.T) {
	src := `export const Posts = {
  slug: 'posts',
  fields: [
    {
      name: 'summary',
      dbName: 'val',
    },
    {
      name: 'excerpt',
      dbName: 'val',
    },
  ],
}
`
	path := writeFixture(t, src)
	res := New(errs.NewLog()).Apply([]change.Change{{
		FilePath:   path,
		Location:   "fields.excerpt",
		EntityName: "excerpt",
		Action:     analyze.ActionModify,
		OldValue:   "val",
		NewValue:   "xrpt",
	}})

	if len(res.Failures) != 0 {
		t.Fatalf("failures: %+v", res.Failures)
	}
	got := readBack(t, path)
	if !strings.Contains(got, "name: 'summary',\n      dbName: 'val',") {
		t.Errorf("wrong occurrence rewritten:\n%s", got)
	}
	if !strings.Contains(got, "name: 'excerpt',\n      dbName: 'xrpt',") {
		t.Errorf("target occurrence not rewritten:\n%s", got)
	}
}

func TestApplyMissingOverride(t *testing.T) {
	path := writeFixture(t, postsSource)
	log := errs.NewLog()
	res := New(log).Apply([]change.Change{{
		FilePath:   path,
		Location:   "fields.title",
		EntityName: "title",
		Action:     analyze.ActionRemove,
		OldValue:   "not_there",
	}})

	if len(res.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(res.Failures))
	}
	if res.FilesModified != 0 {
		t.Errorf("FilesModified = %d, want 0", res.FilesModified)
	}
	if got := readBack(t, path); got != postsSource {
		t.Error("file rewritten despite no applicable change")
	}
	if log.Count(errs.SeverityMedium) != 1 {
		t.Errorf("got %d medium diagnostics, want 1", log.Count(errs.SeverityMedium))
	}
}

func TestApplyMissingFile(t *testing.T) {
	log := errs.NewLog()
	missing := filepath.Join(t.TempDir(), "gone.ts")
	res := New(log).Apply([]change.Change{
		{FilePath: missing, EntityName: "a", Action: analyze.ActionRemove, OldValue: "a"},
		{FilePath: missing, EntityName: "b", Action: analyze.ActionRemove, OldValue: "b"},
	})

	if len(res.Failures) != 2 {
		t.Fatalf("got %d failures, want 2", len(res.Failures))
	}
	if log.Count(errs.SeverityHigh) != 1 {
		t.Errorf("got %d high diagnostics, want 1", log.Count(errs.SeverityHigh))
	}
}

func TestApplyPartialFileFailure(t *testing.T) {
	path := writeFixture(t, postsSource)
	res := New(errs.NewLog()).Apply([]change.Change{
		{
			FilePath: path, Location: "fields.description", EntityName: "description",
			Action: analyze.ActionModify, OldValue: "desc", NewValue: "dscr",
		},
		{
			FilePath: path, Location: "fields.missing", EntityName: "missing",
			Action: analyze.ActionRemove, OldValue: "ghost",
		},
	})

	if len(res.Applied) != 1 || len(res.Failures) != 1 {
		t.Fatalf("Applied = %d, Failures = %d, want 1 and 1", len(res.Applied), len(res.Failures))
	}
	if got := readBack(t, path); !strings.Contains(got, "dbName: 'dscr',") {
		t.Error("surviving change not applied")
	}
}
