// Package change defines the unit of work handed to the file modifier.
package change

import (
	"sort"

	"dbtidy/internal/analyze"
	"dbtidy/internal/usage"
)

// Change is one approved edit to a schema file. Lifecycle: proposed by
// the analysis phase, filtered and adjusted by conflict resolution,
// accepted or rejected by validation, then applied (or discarded under
// dry-run) by the cleanup phase.
type Change struct {
	FilePath   string
	Location   string
	EntityName string
	Action     analyze.Action // remove or modify
	OldValue   string
	NewValue   string // set only for modify
	Impact     analyze.Risk
	Reason     string
	Usage      usage.Usage
}

// ResultingName is the physical identifier the entity ends up with after
// the change is applied.
func (c Change) ResultingName() string {
	if c.Action == analyze.ActionModify {
		return c.Usage.Context.PhysicalWith(c.NewValue)
	}
	return c.Usage.Context.PhysicalWith(c.EntityName)
}

// Sort orders changes by file path, then by location path, giving the
// modifier a deterministic application order.
func Sort(changes []Change) {
	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].FilePath != changes[j].FilePath {
			return changes[i].FilePath < changes[j].FilePath
		}
		return changes[i].Location < changes[j].Location
	})
}
