// Package naming classifies, compares, and shortens storage identifiers.
package naming

import (
	"regexp"
	"strings"
)

// Style is the casing convention of an identifier.
type Style string

const (
	StyleCamel  Style = "camelCase"
	StylePascal Style = "PascalCase"
	StyleSnake  Style = "snake_case"
	StyleKebab  Style = "kebab-case"
	StyleMixed  Style = "mixed"
)

func (s Style) Valid() bool {
	switch s {
	case StyleCamel, StylePascal, StyleSnake, StyleKebab, StyleMixed:
		return true
	}
	return false
}

var (
	identPattern  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	snakePattern  = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)
	kebabPattern  = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)
	camelPattern  = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)
	pascalPattern = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`)
)

// IsIdentifier reports whether s is a valid storage identifier.
func IsIdentifier(s string) bool {
	return identPattern.MatchString(s)
}

// StyleOf classifies the casing convention of an identifier.
func StyleOf(s string) Style {
	switch {
	case strings.Contains(s, "_") && snakePattern.MatchString(s):
		return StyleSnake
	case strings.Contains(s, "-") && kebabPattern.MatchString(s):
		return StyleKebab
	case camelPattern.MatchString(s):
		return StyleCamel
	case pascalPattern.MatchString(s):
		return StylePascal
	}
	return StyleMixed
}

// Words splits an identifier into lowercase words at underscore, hyphen,
// and camel-case boundaries.
func Words(s string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '-':
			flush()
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				prev := rune(s[i-1])
				if prev < 'A' || prev > 'Z' {
					flush()
				}
			}
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

// Convert rewrites an identifier into the target casing style.
// Mixed identifiers are returned unchanged.
func Convert(s string, to Style) string {
	words := Words(s)
	if len(words) == 0 {
		return s
	}
	switch to {
	case StyleSnake:
		return strings.Join(words, "_")
	case StyleKebab:
		return strings.Join(words, "-")
	case StyleCamel:
		out := words[0]
		for _, w := range words[1:] {
			out += capitalize(w)
		}
		return out
	case StylePascal:
		var out string
		for _, w := range words {
			out += capitalize(w)
		}
		return out
	}
	return s
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}

// normalize strips separators and lowercases, so camel, snake, and kebab
// renderings of the same words compare equal.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

// TrivialEqual reports whether an override carries no information beyond
// the semantic name: equal, case-insensitively equal, or equal after
// mechanical case-style conversion.
func TrivialEqual(override, name string) bool {
	if override == name || strings.EqualFold(override, name) {
		return true
	}
	return normalize(override) == normalize(name)
}

// ConsonantSkeleton keeps the first letter and drops subsequent vowels,
// the classic mechanical way to squeeze an identifier.
func ConsonantSkeleton(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && strings.ContainsRune("aeiou", r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MeaningfulAbbreviation reports whether override is a recognized short
// form of name: a table entry, a strict prefix, or a leading slice of the
// name's consonant skeleton.
func MeaningfulAbbreviation(override, name string, table *Table) bool {
	o := strings.ToLower(override)
	n := strings.ToLower(name)
	if o == n || len(o) >= len(n) {
		return false
	}
	if short, ok := table.Abbreviation(n); ok && short == o {
		return true
	}
	if long, ok := table.Expansion(o); ok && long == n {
		return true
	}
	if strings.HasPrefix(n, o) {
		return true
	}
	if len(o) >= 2 {
		skel := ConsonantSkeleton(n)
		if len(o) <= len(skel) && skel[:len(o)] == o {
			return true
		}
	}
	return false
}

// BestPractices reports whether an override follows naming guidance:
// lower-snake format, and either shorter than the semantic name or
// justified by nesting.
func BestPractices(override, name string, nestingLevel int) bool {
	if !snakePattern.MatchString(override) {
		return false
	}
	return len(override) < len(name) || nestingLevel > 0
}

const (
	skeletonTarget = 8
	truncateTarget = 6
)

// Shorten generates a shorter storage form of name: abbreviation table
// first, then consonant-skeleton truncation, then truncate-and-suffix.
// The result may equal name when name is already minimal; callers must
// check before proposing it as a replacement.
func Shorten(name string, table *Table) string {
	lower := strings.ToLower(Convert(name, StyleSnake))
	if short, ok := table.Abbreviation(lower); ok {
		return short
	}
	skel := ConsonantSkeleton(lower)
	if len(skel) < len(lower) {
		if len(skel) > skeletonTarget {
			skel = skel[:skeletonTarget]
		}
		return skel
	}
	if len(lower) > truncateTarget {
		return lower[:truncateTarget] + "_f"
	}
	return lower
}
