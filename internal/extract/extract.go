// Package extract obtains a best-effort structural tree from schema
// definition source files. It is a capability boundary: the pipeline only
// depends on the Extractor interface, so the lightweight scanner here can
// be swapped for a real parser without touching anything downstream.
package extract

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"dbtidy/internal/schema"
)

// Extractor turns file content into a structural tree. Implementations may
// return a minimal stub (name only, no fields) for content they cannot
// confidently parse; they should only error when no tree can be produced
// at all.
type Extractor interface {
	Extract(content []byte, path string) (*schema.Tree, error)
}

// Source scans TS/JS schema definition files for object literals carrying
// slug/name/type/dbName properties and nested fields/blocks arrays. It is
// not a parser: it matches delimiters and reads properties at each object's
// own level, which is enough structure to locate and rewrite overrides.
type Source struct{}

// NewSource returns the default source-text extractor.
func NewSource() *Source {
	return &Source{}
}

// Extract scans content for the outermost configuration object.
func (s *Source) Extract(content []byte, path string) (*schema.Tree, error) {
	src := stripComments(string(content))

	open := rootObjectIndex(src)
	if open < 0 {
		return nil, fmt.Errorf("extract: %s: no object literal found", path)
	}
	end := matchDelim(src, open)
	if end < 0 {
		return nil, fmt.Errorf("extract: %s: unbalanced object literal", path)
	}
	obj := src[open : end+1]

	tree := &schema.Tree{}
	level := ownLevel(obj)
	tree.Name = firstMatch(level, "slug")
	if tree.Name == "" {
		tree.Name = firstMatch(level, "name")
	}
	if tree.Name == "" {
		base := filepath.Base(path)
		tree.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	tree.Override = firstMatch(level, "dbName")
	tree.Fields = fieldArray(obj, level)
	return tree, nil
}

// configObject anchors the root object on an assignment or default export,
// so import clauses earlier in the file are never mistaken for it.
var configObject = regexp.MustCompile(`(?:=|export\s+default)\s*\{`)

func rootObjectIndex(src string) int {
	if loc := configObject.FindStringIndex(src); loc != nil {
		return loc[1] - 1
	}
	return strings.IndexByte(src, '{')
}

// fieldArray locates a fields array at the object's own level and parses it.
func fieldArray(obj, level string) []schema.Field {
	idx := propArrayIndex(level, "fields")
	if idx < 0 {
		return nil
	}
	end := matchDelim(obj, idx)
	if end < 0 {
		return nil
	}
	return parseFieldList(obj[idx : end+1])
}

func parseFieldList(arr string) []schema.Field {
	var fields []schema.Field
	for _, obj := range topObjects(arr) {
		if f, ok := parseField(obj); ok {
			fields = append(fields, f)
		}
	}
	return fields
}

func parseField(obj string) (schema.Field, bool) {
	level := ownLevel(obj)
	f := schema.Field{
		Name:     firstMatch(level, "name"),
		Override: firstMatch(level, "dbName"),
		Kind:     schema.FieldKind(firstMatch(level, "type")),
	}
	if f.Name == "" && f.Kind == "" {
		return schema.Field{}, false
	}
	f.Fields = fieldArray(obj, level)
	if idx := propArrayIndex(level, "blocks"); idx >= 0 {
		if end := matchDelim(obj, idx); end >= 0 {
			f.Variants = parseVariants(obj[idx : end+1])
		}
	}
	return f, true
}

func parseVariants(arr string) []schema.Variant {
	var variants []schema.Variant
	for _, obj := range topObjects(arr) {
		level := ownLevel(obj)
		v := schema.Variant{Name: firstMatch(level, "slug")}
		if v.Name == "" {
			v.Name = firstMatch(level, "name")
		}
		if v.Name == "" {
			continue
		}
		v.Fields = fieldArray(obj, level)
		variants = append(variants, v)
	}
	return variants
}

// topObjects returns the object literals directly inside an array literal.
func topObjects(arr string) []string {
	var objs []string
	depth := 0
	for i := 0; i < len(arr); i++ {
		c := arr[i]
		switch c {
		case '\'', '"', '`':
			i = skipString(arr, i)
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case '{':
			if depth == 1 {
				end := matchDelim(arr, i)
				if end < 0 {
					return objs
				}
				objs = append(objs, arr[i:end+1])
				i = end
			}
		}
	}
	return objs
}
