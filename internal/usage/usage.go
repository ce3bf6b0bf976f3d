// Package usage walks a schema tree and records every storage-identifier
// override with its nesting context.
package usage

import (
	"strings"

	"dbtidy/internal/schema"
)

// DefaultMaxIdentifierLength is the PostgreSQL identifier bound, used as
// the default ceiling for physical-name length checks.
const DefaultMaxIdentifierLength = 63

// Usage is a single override occurrence. Produced once by Extract and
// never mutated afterwards.
type Usage struct {
	FilePath     string
	Location     string // structural path into the tree, not a byte offset
	EntityName   string
	Override     string
	Kind         schema.FieldKind
	NestingLevel int
	Context      Context
}

// Context captures where in the tree an override sits and what the storage
// layer would derive from it.
type Context struct {
	AncestorNames  []string
	AncestorKinds  []schema.FieldKind
	CollectionName string
	IsNested       bool
	FullPath       string
	EstimatedName  string
	ExceedsLimit   bool
	FieldDepth     int
	InArray        bool
	InGroup        bool
	InBlocks       bool
	ArrayDepth     int
	GroupDepth     int
	BlocksDepth    int
}

// PhysicalWith derives the physical identifier this usage's entity would
// get if its override were replaced by leaf. The collection name prefixes
// the join only for nested entities.
func (c Context) PhysicalWith(leaf string) string {
	var parts []string
	if c.IsNested && c.CollectionName != "" {
		parts = append(parts, c.CollectionName)
	}
	parts = append(parts, c.AncestorNames...)
	parts = append(parts, leaf)
	return strings.Join(parts, "_")
}

// ContainerKinds counts the distinct container kinds the entity sits in.
func (c Context) ContainerKinds() int {
	n := 0
	if c.InArray {
		n++
	}
	if c.InGroup {
		n++
	}
	if c.InBlocks {
		n++
	}
	return n
}

// frame is the walk state carried down the tree.
type frame struct {
	ancestors   []string
	kinds       []schema.FieldKind
	level       int
	fieldDepth  int
	arrayDepth  int
	groupDepth  int
	blocksDepth int
	location    string
}

// Extract walks the tree in preorder and returns one Usage per entity
// carrying an override. Output order is deterministic for a given tree;
// conflict detection and reporting depend on that.
func Extract(t *schema.Tree, filePath string, maxLen int) []Usage {
	if maxLen <= 0 {
		maxLen = DefaultMaxIdentifierLength
	}
	w := walker{filePath: filePath, collection: t.Name, maxLen: maxLen}

	if t.Override != "" {
		w.usages = append(w.usages, Usage{
			FilePath:   filePath,
			Location:   "collection",
			EntityName: t.Name,
			Override:   t.Override,
			Kind:       schema.KindCollection,
			Context: Context{
				CollectionName: t.Name,
				FullPath:       t.Name,
				EstimatedName:  t.Override,
				ExceedsLimit:   len(t.Override) > maxLen,
			},
		})
	}

	w.walkFields(t.Fields, frame{location: "fields"})
	return w.usages
}

type walker struct {
	filePath   string
	collection string
	maxLen     int
	usages     []Usage
}

func (w *walker) walkFields(fields []schema.Field, fr frame) {
	for _, f := range fields {
		w.walkField(f, fr)
	}
}

func (w *walker) walkField(f schema.Field, fr frame) {
	loc := fr.location + "." + f.Name
	if f.Name == "" {
		loc = fr.location + "." + string(f.Kind)
	}

	if f.Override != "" {
		w.usages = append(w.usages, w.record(f, fr, loc))
	}

	if len(f.Fields) == 0 && len(f.Variants) == 0 {
		return
	}

	child := frame{
		ancestors:   append(append([]string(nil), fr.ancestors...), f.Name),
		kinds:       append(append([]schema.FieldKind(nil), fr.kinds...), f.Kind),
		level:       fr.level + 1,
		fieldDepth:  fr.fieldDepth + 1,
		arrayDepth:  fr.arrayDepth,
		groupDepth:  fr.groupDepth,
		blocksDepth: fr.blocksDepth,
	}
	switch f.Kind {
	case schema.KindArray:
		child.arrayDepth++
	case schema.KindGroup:
		child.groupDepth++
	case schema.KindBlocks:
		child.blocksDepth++
	}

	if len(f.Fields) > 0 {
		child.location = loc + ".fields"
		w.walkFields(f.Fields, child)
	}

	// A variant surfaces an implicit schema boundary, so descending into
	// one costs two nesting levels rather than one.
	for _, v := range f.Variants {
		vf := child
		vf.ancestors = append(append([]string(nil), child.ancestors...), v.Name)
		vf.kinds = append(append([]schema.FieldKind(nil), child.kinds...), schema.KindBlocks)
		vf.level = fr.level + 2
		vf.location = loc + ".blocks." + v.Name + ".fields"
		w.walkFields(v.Fields, vf)
	}
}

func (w *walker) record(f schema.Field, fr frame, loc string) Usage {
	ancestors := append([]string(nil), fr.ancestors...)
	kinds := append([]schema.FieldKind(nil), fr.kinds...)

	ctx := Context{
		AncestorNames:  ancestors,
		AncestorKinds:  kinds,
		CollectionName: w.collection,
		IsNested:       fr.level > 0,
		FieldDepth:     fr.fieldDepth,
		InArray:        fr.arrayDepth > 0,
		InGroup:        fr.groupDepth > 0,
		InBlocks:       fr.blocksDepth > 0,
		ArrayDepth:     fr.arrayDepth,
		GroupDepth:     fr.groupDepth,
		BlocksDepth:    fr.blocksDepth,
	}

	pathParts := append([]string{w.collection}, ancestors...)
	ctx.FullPath = strings.Join(append(pathParts, f.Name), ".")

	ctx.EstimatedName = ctx.PhysicalWith(f.Override)
	ctx.ExceedsLimit = len(ctx.EstimatedName) > w.maxLen

	return Usage{
		FilePath:     w.filePath,
		Location:     loc,
		EntityName:   f.Name,
		Override:     f.Override,
		Kind:         f.Kind,
		NestingLevel: fr.level,
		Context:      ctx,
	}
}
