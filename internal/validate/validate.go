// Package validate is the final gate before any file is touched: length
// and format checks, a batch-scoped conflict re-check, and backward
// compatibility and database constraint checks per change.
package validate

import (
	"fmt"

	"dbtidy/internal/analyze"
	"dbtidy/internal/change"
	"dbtidy/internal/naming"
)

// Issue describes a single validation finding for a proposed change.
// Blocking issues reject the change; the rest surface as warnings.
type Issue struct {
	Path     string
	Message  string
	Blocking bool
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Validator checks proposed changes against identifier and compatibility
// constraints. Stateless; one instance serves a whole run.
type Validator struct {
	maxLen int
	table  *naming.Table
}

// New builds a Validator for the given identifier limit.
func New(maxLen int, table *naming.Table) *Validator {
	if maxLen <= 0 {
		maxLen = 63
	}
	if table == nil {
		table = naming.Builtin()
	}
	return &Validator{maxLen: maxLen, table: table}
}

// IdentifierLength checks a physical identifier against the limit.
func (v *Validator) IdentifierLength(name string) error {
	if len(name) > v.maxLen {
		return fmt.Errorf("validate: identifier %q is %d chars, limit %d", name, len(name), v.maxLen)
	}
	return nil
}

// CheckForConflicts re-derives each change's resulting physical name from
// the proposed batch itself and flags duplicates among them. This is
// narrower than the population-wide conflict pass: it guards exactly the
// set about to be applied.
func (v *Validator) CheckForConflicts(changes []change.Change) []Issue {
	var issues []Issue
	seen := map[string]string{}
	for _, c := range changes {
		name := c.ResultingName()
		if prev, dup := seen[name]; dup {
			issues = append(issues, Issue{
				Path:     c.Usage.Context.FullPath,
				Message:  fmt.Sprintf("resulting identifier %q duplicates %s", name, prev),
				Blocking: true,
			})
			continue
		}
		seen[name] = c.Usage.Context.FullPath
	}
	return issues
}

// BackwardCompatible checks whether applying the change can break
// existing stored data. A remove is compatible only when the bare
// semantic name is itself a usable identifier; a modify is judged by its
// impact rating, which is a coarse proxy, so modify findings are
// non-blocking.
func (v *Validator) BackwardCompatible(c change.Change) (bool, string) {
	switch c.Action {
	case analyze.ActionRemove:
		name := c.EntityName
		if !naming.IsIdentifier(name) {
			return false, fmt.Sprintf("bare name %q is not a valid identifier", name)
		}
		if v.table.Reserved(name) {
			return false, fmt.Sprintf("bare name %q is reserved", name)
		}
		if err := v.IdentifierLength(c.ResultingName()); err != nil {
			return false, err.Error()
		}
	case analyze.ActionModify:
		if c.Impact == analyze.RiskHigh {
			return false, "high-impact modification; existing columns may depend on the old value"
		}
	}
	return true, ""
}

// DatabaseConstraints checks the identifier the storage engine would see
// after the change.
func (v *Validator) DatabaseConstraints(c change.Change) error {
	if c.Action == analyze.ActionModify {
		if c.NewValue == "" {
			return fmt.Errorf("validate: modify without a new value")
		}
		if !naming.IsIdentifier(c.NewValue) {
			return fmt.Errorf("validate: new value %q is not a valid identifier", c.NewValue)
		}
		if v.table.Reserved(c.NewValue) {
			return fmt.Errorf("validate: new value %q is reserved", c.NewValue)
		}
	}
	return v.IdentifierLength(c.ResultingName())
}

// Check runs every per-change validation and returns its findings.
// Removal findings are blocking; modify compatibility findings are
// warnings only.
func (v *Validator) Check(c change.Change) []Issue {
	var issues []Issue
	path := c.Usage.Context.FullPath

	if err := v.DatabaseConstraints(c); err != nil {
		issues = append(issues, Issue{Path: path, Message: err.Error(), Blocking: true})
	}
	if ok, why := v.BackwardCompatible(c); !ok {
		issues = append(issues, Issue{
			Path:     path,
			Message:  why,
			Blocking: c.Action == analyze.ActionRemove,
		})
	}
	return issues
}
