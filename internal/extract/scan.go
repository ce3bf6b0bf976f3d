package extract

import (
	"fmt"
	"regexp"
)

// Property patterns are compiled once; each matches a quoted scalar value
// or an array opener for the named property.
var (
	scalarProps = map[string]*regexp.Regexp{}
	arrayProps  = map[string]*regexp.Regexp{}
)

func init() {
	for _, p := range []string{"slug", "name", "dbName", "type"} {
		scalarProps[p] = regexp.MustCompile(fmt.Sprintf(`\b%s\s*:\s*['"`+"`"+`]([^'"`+"`"+`]*)['"`+"`"+`]`, p))
	}
	for _, p := range []string{"fields", "blocks"} {
		arrayProps[p] = regexp.MustCompile(fmt.Sprintf(`\b%s\s*:\s*\[`, p))
	}
}

// firstMatch returns the first quoted value of prop in masked object text.
func firstMatch(level, prop string) string {
	m := scalarProps[prop].FindStringSubmatch(level)
	if m == nil {
		return ""
	}
	return m[1]
}

// propArrayIndex returns the index of the '[' opening prop's array, or -1.
func propArrayIndex(level, prop string) int {
	loc := arrayProps[prop].FindStringIndex(level)
	if loc == nil {
		return -1
	}
	return loc[1] - 1
}

// ownLevel masks everything nested below an object's own level with
// spaces, so property regexes never match inside child objects. Opening
// delimiters of direct children survive, which lets propArrayIndex find
// them at positions valid in the original text.
func ownLevel(obj string) string {
	out := []byte(obj)
	depth := 0
	for i := 0; i < len(obj); i++ {
		c := obj[i]
		switch c {
		case '\'', '"', '`':
			end := skipString(obj, i)
			if depth > 1 {
				for j := i; j <= end && j < len(obj); j++ {
					out[j] = ' '
				}
			}
			i = end
		case '{', '[', '(':
			if depth > 1 {
				out[i] = ' '
			}
			depth++
		case '}', ']', ')':
			depth--
			if depth > 1 {
				out[i] = ' '
			}
		default:
			if depth > 1 && c != '\n' {
				out[i] = ' '
			}
		}
	}
	return string(out)
}

// matchDelim returns the index of the delimiter closing the one at open,
// or -1 when the text is unbalanced. Strings are skipped, so braces in
// quoted values never count.
func matchDelim(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\'', '"', '`':
			i = skipString(s, i)
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// skipString returns the index of the quote closing the string opened at
// i, honoring backslash escapes. Unterminated strings run to end of text.
func skipString(s string, i int) int {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			return j
		}
	}
	return len(s) - 1
}

// stripComments blanks out // line comments and /* */ blocks, preserving
// offsets and string contents.
func stripComments(src string) string {
	out := []byte(src)
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\'', '"', '`':
			i = skipString(src, i)
		case '/':
			if i+1 >= len(src) {
				break
			}
			switch src[i+1] {
			case '/':
				j := i
				for j < len(src) && src[j] != '\n' {
					out[j] = ' '
					j++
				}
				i = j
			case '*':
				j := i
				for j < len(src) {
					if src[j] == '*' && j+1 < len(src) && src[j+1] == '/' {
						out[j], out[j+1] = ' ', ' '
						j++
						break
					}
					if src[j] != '\n' {
						out[j] = ' '
					}
					j++
				}
				i = j
			}
		}
	}
	return string(out)
}
