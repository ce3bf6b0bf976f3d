package extract

import (
	"testing"

	"dbtidy/internal/schema"
)

const postsSource = `import type { CollectionConfig } from 'payload'

// Blog posts collection.
export const Posts: CollectionConfig = {
  slug: 'posts',
  dbName: 'blog_posts',
  admin: {
    useAsTitle: 'title',
  },
  fields: [
    {
      name: 'title',
      type: 'text',
      dbName: 'title',
      required: true,
    },
    {
      name: 'meta',
      type: 'group',
      fields: [
        {
          name: 'description',
          type: 'textarea',
          dbName: 'desc',
        },
      ],
    },
    {
      name: 'content',
      type: 'blocks',
      blocks: [
        {
          slug: 'quote',
          fields: [
            { name: 'cite', type: 'text', dbName: 'c' },
          ],
        },
      ],
    },
  ],
}
`

func TestExtractCollection(t *testing.T) {
	tree, err := NewSource().Extract([]byte(postsSource), "collections/posts.ts")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if tree.Name != "posts" {
		t.Errorf("Name = %q, want %q", tree.Name, "posts")
	}
	if tree.Override != "blog_posts" {
		t.Errorf("Override = %q, want %q", tree.Override, "blog_posts")
	}
	if len(tree.Fields) != 3 {
		t.Fatalf("len(Fields) = %d, want 3", len(tree.Fields))
	}

	title := tree.Fields[0]
	if title.Name != "title" || title.Kind != schema.KindText || title.Override != "title" {
		t.Errorf("unexpected title field: %+v", title)
	}

	meta := tree.Fields[1]
	if meta.Kind != schema.KindGroup || len(meta.Fields) != 1 {
		t.Fatalf("unexpected meta field: %+v", meta)
	}
	if meta.Fields[0].Override != "desc" {
		t.Errorf("meta.description override = %q, want %q", meta.Fields[0].Override, "desc")
	}

	content := tree.Fields[2]
	if content.Kind != schema.KindBlocks || len(content.Variants) != 1 {
		t.Fatalf("unexpected content field: %+v", content)
	}
	quote := content.Variants[0]
	if quote.Name != "quote" || len(quote.Fields) != 1 || quote.Fields[0].Override != "c" {
		t.Errorf("unexpected quote variant: %+v", quote)
	}
}

func TestExtractIgnoresComments(t *testing.T) {
	src := `
// dbName: 'commented_out',
export const X = {
  slug: 'things',
  /* dbName: 'also_commented', */
  fields: [],
}
`
	tree, err := NewSource().Extract([]byte(src), "collections/things.ts")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if tree.Override != "" {
		t.Errorf("Override = %q, want empty", tree.Override)
	}
	if tree.Name != "things" {
		t.Errorf("Name = %q, want %q", tree.Name, "things")
	}
}

func TestExtractMinimalStub(t *testing.T) {
	tree, err := NewSource().Extract([]byte(`export default { slug: 'simple' }`), "globals/simple.ts")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if tree.Name != "simple" || len(tree.Fields) != 0 {
		t.Errorf("unexpected stub tree: %+v", tree)
	}
}

func TestExtractNameFallsBackToFilename(t *testing.T) {
	tree, err := NewSource().Extract([]byte(`export default { fields: [] }`), "fields/linkGroup.ts")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if tree.Name != "linkGroup" {
		t.Errorf("Name = %q, want %q", tree.Name, "linkGroup")
	}
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no object", `const n = 42`},
		{"unbalanced", `export const X = { slug: 'x',`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSource().Extract([]byte(tt.src), "x.ts"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestExtractQuotedBraces(t *testing.T) {
	src := `export const X = {
  slug: 'braces',
  fields: [
    { name: 'tpl', type: 'text', defaultValue: '{{not a field}}', dbName: 'template' },
  ],
}
`
	tree, err := NewSource().Extract([]byte(src), "collections/braces.ts")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(tree.Fields) != 1 || tree.Fields[0].Override != "template" {
		t.Errorf("unexpected fields: %+v", tree.Fields)
	}
}
