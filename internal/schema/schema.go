// Package schema defines the content-model tree extracted from schema
// definition files, and the capability table for field kinds.
package schema

// FieldKind identifies the type of a schema field.
type FieldKind string

const (
	KindText         FieldKind = "text"
	KindTextarea     FieldKind = "textarea"
	KindNumber       FieldKind = "number"
	KindCheckbox     FieldKind = "checkbox"
	KindDate         FieldKind = "date"
	KindEmail        FieldKind = "email"
	KindCode         FieldKind = "code"
	KindJSON         FieldKind = "json"
	KindPoint        FieldKind = "point"
	KindRichText     FieldKind = "richText"
	KindSelect       FieldKind = "select"
	KindRadio        FieldKind = "radio"
	KindRelationship FieldKind = "relationship"
	KindUpload       FieldKind = "upload"
	KindArray        FieldKind = "array"
	KindGroup        FieldKind = "group"
	KindBlocks       FieldKind = "blocks"
	KindTabs         FieldKind = "tabs"
	KindRow          FieldKind = "row"
	KindCollapsible  FieldKind = "collapsible"
	KindUI           FieldKind = "ui"

	// KindCollection marks a collection-level override rather than a field.
	KindCollection FieldKind = "collection"
)

func (k FieldKind) Valid() bool {
	_, ok := capabilities[k]
	return ok
}

// Tree is the best-effort structural view of one schema definition file.
type Tree struct {
	Name     string
	Override string
	Fields   []Field
}

// Field is a single entity in the content model. Container kinds carry
// children in Fields; blocks containers carry them in Variants.
type Field struct {
	Name     string
	Override string
	Kind     FieldKind
	Fields   []Field
	Variants []Variant
}

// Variant is one tagged alternative inside a blocks container.
// Each variant surfaces its own schema boundary with its own field list.
type Variant struct {
	Name   string
	Fields []Field
}
