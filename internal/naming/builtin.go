package naming

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Table holds the abbreviation and reserved-identifier data the package
// consults. The built-in table ships embedded; callers may load their own.
type Table struct {
	Version           int               `yaml:"version"`
	Description       string            `yaml:"description"`
	Abbreviations     map[string]string `yaml:"abbreviations"`
	ReservedKeywords  []string          `yaml:"reserved_keywords"`
	FrameworkNames    []string          `yaml:"framework_names"`

	reserved map[string]bool
	byShort  map[string]string
}

var (
	builtinOnce sync.Once
	builtin     *Table
	builtinErr  error
)

// Builtin returns the embedded naming table, loading it on first use.
func Builtin() *Table {
	builtinOnce.Do(func() {
		builtin, builtinErr = load("builtin/naming.yaml")
		if builtinErr != nil {
			// The embedded table is part of the binary; a parse failure
			// is a build defect, not a runtime condition.
			panic(fmt.Sprintf("naming.Builtin: %v", builtinErr))
		}
	})
	return builtin
}

func load(name string) (*Table, error) {
	data, err := builtinFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("naming.load: %w", err)
	}
	return Parse(data)
}

// Parse reads a naming table from YAML and indexes it.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("naming.Parse: %w", err)
	}
	t.index()
	return &t, nil
}

func (t *Table) index() {
	t.reserved = make(map[string]bool, len(t.ReservedKeywords)+len(t.FrameworkNames))
	for _, w := range t.ReservedKeywords {
		t.reserved[strings.ToLower(w)] = true
	}
	for _, w := range t.FrameworkNames {
		t.reserved[strings.ToLower(w)] = true
	}
	t.byShort = make(map[string]string, len(t.Abbreviations))
	for long, short := range t.Abbreviations {
		t.byShort[strings.ToLower(short)] = strings.ToLower(long)
	}
}

// Reserved reports whether an identifier collides with an engine keyword
// or a framework bookkeeping column. Matching is case-insensitive.
func (t *Table) Reserved(s string) bool {
	return t.reserved[strings.ToLower(s)]
}

// Abbreviation returns the table's short form for a word, if one exists.
func (t *Table) Abbreviation(word string) (string, bool) {
	short, ok := t.Abbreviations[strings.ToLower(word)]
	return short, ok
}

// Expansion returns the long word a short form abbreviates, if known.
func (t *Table) Expansion(short string) (string, bool) {
	long, ok := t.byShort[strings.ToLower(short)]
	return long, ok
}
