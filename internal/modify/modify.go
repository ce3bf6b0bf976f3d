// Package modify applies approved changes back into schema files with
// targeted text substitution, preserving the surrounding formatting.
package modify

import (
	"fmt"
	"os"
	"regexp"

	"dbtidy/internal/analyze"
	"dbtidy/internal/change"
	"dbtidy/internal/errs"
)

// Failure records a change that could not be applied.
type Failure struct {
	Change change.Change
	Err    error
}

// Result summarizes one application pass.
type Result struct {
	FilesModified int
	Applied       []change.Change
	Failures      []Failure
}

// Modifier rewrites schema files. Stateless apart from the shared log.
type Modifier struct {
	log *errs.Log
}

// New builds a Modifier reporting into log.
func New(log *errs.Log) *Modifier {
	return &Modifier{log: log}
}

// Apply groups changes by file, applies them in deterministic order, and
// writes each file back once. A failing property does not stop the other
// properties in the same file.
func (m *Modifier) Apply(changes []change.Change) Result {
	change.Sort(changes)

	var res Result
	byFile := map[string][]change.Change{}
	var order []string
	for _, c := range changes {
		if _, seen := byFile[c.FilePath]; !seen {
			order = append(order, c.FilePath)
		}
		byFile[c.FilePath] = append(byFile[c.FilePath], c)
	}

	for _, path := range order {
		m.applyFile(path, byFile[path], &res)
	}
	return res
}

func (m *Modifier) applyFile(path string, changes []change.Change, res *Result) {
	info, err := os.Stat(path)
	if err != nil {
		m.fileFailure(path, changes, err, res)
		return
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		m.fileFailure(path, changes, err, res)
		return
	}

	content := string(raw)
	var applied []change.Change
	for _, c := range changes {
		next, err := applyOne(content, c)
		if err != nil {
			res.Failures = append(res.Failures, Failure{Change: c, Err: err})
			m.log.Addf(errs.CategoryModification, errs.SeverityMedium, path, "%v", err)
			continue
		}
		content = next
		applied = append(applied, c)
	}
	if len(applied) == 0 {
		return
	}

	if err := os.WriteFile(path, []byte(content), info.Mode().Perm()); err != nil {
		m.fileFailure(path, applied, err, res)
		return
	}
	res.FilesModified++
	res.Applied = append(res.Applied, applied...)
}

func (m *Modifier) fileFailure(path string, changes []change.Change, err error, res *Result) {
	for _, c := range changes {
		res.Failures = append(res.Failures, Failure{Change: c, Err: err})
	}
	m.log.Addf(errs.CategoryFilesystem, errs.SeverityHigh, path, "%v", err)
}

// applyOne rewrites a single override property in content.
func applyOne(content string, c change.Change) (string, error) {
	switch c.Action {
	case analyze.ActionRemove:
		return removeProperty(content, c)
	case analyze.ActionModify:
		return rewriteValue(content, c)
	}
	return "", fmt.Errorf("modify: unsupported action %q for %s", c.Action, c.Location)
}

var multiBlank = regexp.MustCompile(`\n[ \t]*\n[ \t]*\n+`)

const quoteClass = `['"` + "`" + `]`

// removeProperty deletes the override property line, including a trailing
// comma, and collapses any blank-line run the deletion leaves behind.
func removeProperty(content string, c change.Change) (string, error) {
	re := regexp.MustCompile(`(?m)^[ \t]*dbName\s*:\s*` + quoteClass +
		regexp.QuoteMeta(c.OldValue) + quoteClass + `,?[ \t]*\r?\n?`)
	loc, err := locate(content, re, c)
	if err != nil {
		// The property may share a line with other properties.
		inline := regexp.MustCompile(`dbName\s*:\s*` + quoteClass +
			regexp.QuoteMeta(c.OldValue) + quoteClass + `,?[ \t]*`)
		loc, err = locate(content, inline, c)
		if err != nil {
			return "", err
		}
	}
	out := content[:loc[0]] + content[loc[1]:]
	return multiBlank.ReplaceAllString(out, "\n\n"), nil
}

// rewriteValue replaces only the value token, keeping the original quote
// character and everything around it.
func rewriteValue(content string, c change.Change) (string, error) {
	re := regexp.MustCompile(`(dbName\s*:\s*)(` + quoteClass + `)` +
		regexp.QuoteMeta(c.OldValue) + quoteClass)
	loc, err := locate(content, re, c)
	if err != nil {
		return "", err
	}
	match := content[loc[0]:loc[1]]
	sub := re.FindStringSubmatch(match)
	return content[:loc[0]] + sub[1] + sub[2] + c.NewValue + sub[2] + content[loc[1]:], nil
}

// locate finds the property occurrence belonging to the change's entity.
// With a single match the answer is direct; with several, the one closest
// to a name/slug anchor for the entity wins.
func locate(content string, re *regexp.Regexp, c change.Change) ([]int, error) {
	matches := re.FindAllStringIndex(content, -1)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("modify: %s: override %q not found", c.Location, c.OldValue)
	case 1:
		return matches[0], nil
	}

	anchorRe := regexp.MustCompile(`(?:name|slug)\s*:\s*['"` + "`" + `]` +
		regexp.QuoteMeta(c.EntityName) + `['"` + "`" + `]`)
	anchors := anchorRe.FindAllStringIndex(content, -1)
	if len(anchors) == 0 {
		return nil, fmt.Errorf("modify: %s: %d ambiguous matches for %q and no entity anchor",
			c.Location, len(matches), c.OldValue)
	}

	best := matches[0]
	bestDist := -1
	for _, m := range matches {
		for _, a := range anchors {
			d := m[0] - a[0]
			if d < 0 {
				d = -d
			}
			if bestDist < 0 || d < bestDist {
				bestDist = d
				best = m
			}
		}
	}
	return best, nil
}
