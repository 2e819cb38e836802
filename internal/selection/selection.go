// Package selection resolves which routes are active from a toggle snapshot.
package selection

import (
	"maps"
	"net/url"
	"slices"
	"strings"
)

// Mode is the kind of an active selection
type Mode string

const (
	ModeNone   Mode = "none"
	ModeAll    Mode = "all"
	ModeSubset Mode = "subset"
)

// Snapshot is the full state of the toggle widgets at one instant
type Snapshot struct {
	All     bool            `json:"all"`
	Toggles map[string]bool `json:"toggles"`
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{All: s.All, Toggles: maps.Clone(s.Toggles)}
}

// Active is a resolved selection. IDs is only set for ModeSubset and is sorted.
type Active struct {
	Mode Mode     `json:"mode"`
	IDs  []string `json:"ids,omitempty"`
}

// None selects nothing.
func None() Active { return Active{Mode: ModeNone} }

// All selects every route.
func All() Active { return Active{Mode: ModeAll} }

// Resolve computes the active selection from a complete snapshot.
// The all toggle overrides individual toggles; an empty result means render
// nothing, never everything.
func Resolve(s Snapshot) Active {
	return ResolveActive(s.Toggles, s.All)
}

// ResolveActive is Resolve with the snapshot fields passed separately.
func ResolveActive(toggles map[string]bool, all bool) Active {
	if all {
		return All()
	}

	var ids []string
	for id, on := range toggles {
		if on {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return None()
	}

	slices.Sort(ids)
	return Active{Mode: ModeSubset, IDs: ids}
}

// Includes reports whether a route id is active.
func (a Active) Includes(id string) bool {
	switch a.Mode {
	case ModeAll:
		return true
	case ModeSubset:
		_, found := slices.BinarySearch(a.IDs, id)
		return found
	default:
		return false
	}
}

// Equal compares two selections.
func (a Active) Equal(b Active) bool {
	return a.Mode == b.Mode && slices.Equal(a.IDs, b.IDs)
}

// Key is a stable string form, usable as a cache key. Ids are escaped, so
// two selections share a key only when they are Equal.
func (a Active) Key() string {
	if a.Mode != ModeSubset {
		return string(a.Mode)
	}
	escaped := make([]string, len(a.IDs))
	for i, id := range a.IDs {
		escaped[i] = url.QueryEscape(id)
	}
	return string(a.Mode) + ":" + strings.Join(escaped, ",")
}
