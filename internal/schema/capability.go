package schema

// Impact ranks how much removing an override on a kind changes the
// generated physical identifier of everything nested beneath it.
type Impact string

const (
	ImpactNone   Impact = "none"
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Capability records what a field kind can do with a storage override.
type Capability struct {
	SupportsOverride bool
	AffectsDatabase  bool
	Impact           Impact
}

var capabilities = map[FieldKind]Capability{
	KindText:         {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactLow},
	KindTextarea:     {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactLow},
	KindNumber:       {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactLow},
	KindCheckbox:     {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactLow},
	KindDate:         {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactLow},
	KindEmail:        {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactLow},
	KindCode:         {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactLow},
	KindJSON:         {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactLow},
	KindPoint:        {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactLow},
	KindRichText:     {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactLow},
	KindSelect:       {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactMedium},
	KindRadio:        {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactLow},
	KindRelationship: {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactMedium},
	KindUpload:       {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactMedium},

	// Containers: their identifier is a prefix of every nested column.
	KindArray:  {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactHigh},
	KindGroup:  {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactMedium},
	KindBlocks: {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactHigh},

	// Layout kinds never reach the database.
	KindTabs:        {SupportsOverride: false, AffectsDatabase: false, Impact: ImpactNone},
	KindRow:         {SupportsOverride: false, AffectsDatabase: false, Impact: ImpactNone},
	KindCollapsible: {SupportsOverride: false, AffectsDatabase: false, Impact: ImpactNone},
	KindUI:          {SupportsOverride: false, AffectsDatabase: false, Impact: ImpactNone},

	KindCollection: {SupportsOverride: true, AffectsDatabase: true, Impact: ImpactHigh},
}

// CapabilityOf returns the capability entry for a kind. Unknown kinds are
// treated as plain data columns so unrecognized custom fields are never
// stripped on capability grounds alone.
func CapabilityOf(k FieldKind) Capability {
	if c, ok := capabilities[k]; ok {
		return c
	}
	return Capability{SupportsOverride: true, AffectsDatabase: true, Impact: ImpactLow}
}

// Presentational reports whether a kind exists only for admin-UI layout.
func Presentational(k FieldKind) bool {
	switch k {
	case KindUI, KindRow, KindCollapsible, KindTabs:
		return true
	}
	return false
}

// Container reports whether a kind nests further fields.
func Container(k FieldKind) bool {
	switch k {
	case KindArray, KindGroup, KindBlocks, KindTabs, KindRow, KindCollapsible:
		return true
	}
	return false
}
