package policy

import "time"

// VersionSelectionMode discriminates the VersionSelection sum type
// (spec §4.6 resolver semantics, supplemented per the design note on
// explicit version pinning for audit/replay use cases).
type VersionSelectionMode string

const (
	SelectPublished   VersionSelectionMode = "published"
	SelectSpecific    VersionSelectionMode = "specific"
	SelectEffectiveAt VersionSelectionMode = "effective_at"
	SelectStaged      VersionSelectionMode = "staged"
	SelectDraft       VersionSelectionMode = "draft"
)

// VersionSelection picks which PolicyVersion the resolver (C6) should
// use for a given policy. The zero value selects the published version,
// matching spec §4.6's default resolution behavior.
type VersionSelection struct {
	Mode        VersionSelectionMode
	VersionID   string    // meaningful when Mode == SelectSpecific
	EffectiveAt time.Time // meaningful when Mode == SelectEffectiveAt
}

// Published is the default selection: the current published version.
func Published() VersionSelection { return VersionSelection{Mode: SelectPublished} }

// Specific pins resolution to an exact version id.
func Specific(versionID string) VersionSelection {
	return VersionSelection{Mode: SelectSpecific, VersionID: versionID}
}

// EffectiveAt selects the version that was published as of t, for
// deterministic replay of historical decisions.
func EffectiveAt(t time.Time) VersionSelection {
	return VersionSelection{Mode: SelectEffectiveAt, EffectiveAt: t}
}

// Staged selects the staged (pre-publish preview) version, if any.
func Staged() VersionSelection { return VersionSelection{Mode: SelectStaged} }

// Draft selects the current draft version, for policy-authoring tools.
func Draft() VersionSelection { return VersionSelection{Mode: SelectDraft} }

func (m VersionSelectionMode) WithDefault() VersionSelectionMode {
	if m == "" {
		return SelectPublished
	}
	return m
}
