// Package errs accumulates categorized, severity-ranked diagnostics for a
// cleanup run and drives bounded automatic recovery.
package errs

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Category classifies where a diagnostic originated.
type Category string

const (
	CategoryFilesystem    Category = "filesystem"
	CategoryParse         Category = "parse"
	CategoryValidation    Category = "validation"
	CategoryAnalysis      Category = "analysis"
	CategoryModification  Category = "modification"
	CategoryOrchestration Category = "orchestration"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFilesystem, CategoryParse, CategoryValidation,
		CategoryAnalysis, CategoryModification, CategoryOrchestration:
		return true
	}
	return false
}

// Severity ranks how badly a diagnostic affects the run.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// order returns a sort key (lower = more severe).
func (s Severity) order() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Entry is one recorded diagnostic.
type Entry struct {
	Category   Category
	Severity   Severity
	Path       string
	Message    string
	Suggestion string
}

func (e Entry) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("[%s/%s] %s", e.Category, e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s/%s] %s: %s", e.Category, e.Severity, e.Path, e.Message)
}

// key identifies a distinct error for recovery-attempt bookkeeping.
func (e Entry) key() string {
	return string(e.Category) + "|" + e.Path + "|" + e.Message
}

// Log is an append-only diagnostic accumulator, safe for concurrent use.
type Log struct {
	mu       sync.Mutex
	entries  []Entry
	attempts map[string]int
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{attempts: make(map[string]int)}
}

// Add records a diagnostic.
func (l *Log) Add(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// Addf records a diagnostic with a formatted message.
func (l *Log) Addf(cat Category, sev Severity, path, format string, args ...any) {
	l.Add(Entry{Category: cat, Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Entries returns a copy of the accumulated diagnostics in append order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// HasCritical reports whether any critical diagnostic has been recorded.
func (l *Log) HasCritical() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics at the given severity.
func (l *Log) Count(sev Severity) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.Severity == sev {
			n++
		}
	}
	return n
}

// Report renders a human-readable aggregate of the log: counts by severity
// and category, then every entry with its recovery suggestion.
func (l *Log) Report() string {
	entries := l.Entries()
	var b strings.Builder

	b.WriteString("Diagnostics\n")
	if len(entries) == 0 {
		b.WriteString("  none\n")
		return b.String()
	}

	bySev := map[Severity]int{}
	byCat := map[Category]int{}
	for _, e := range entries {
		bySev[e.Severity]++
		byCat[e.Category]++
	}
	for _, sev := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow} {
		if bySev[sev] > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", sev, bySev[sev])
		}
	}
	cats := make([]string, 0, len(byCat))
	for c := range byCat {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)
	for _, c := range cats {
		fmt.Fprintf(&b, "  %s: %d\n", c, byCat[Category(c)])
	}

	b.WriteString("\n")
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.order() < sorted[j].Severity.order()
	})
	for _, e := range sorted {
		fmt.Fprintf(&b, "- %s\n", e.Error())
		if e.Suggestion != "" {
			fmt.Fprintf(&b, "  suggestion: %s\n", e.Suggestion)
		}
	}
	return b.String()
}
