// Package differ computes the delta between an upstream registry snapshot
// and the local database state. Diffs are pure functions: no I/O, no side
// effects, deterministic (sorted) output.
package differ

import (
	"fmt"
	"sort"
	"strings"
)

// Delta represents the membership changes needed to converge a panel's
// local gene set to the upstream snapshot.
type Delta struct {
	Add    []string // Members present upstream but missing locally
	Remove []string // Members present locally but gone upstream
}

// Membership compares the upstream member set against the local member set.
// Add = upstream − local, Remove = local − upstream. The result slices are
// sorted for stable logging.
//
// Callers must not invoke Membership with an empty upstream set as a way to
// clear a panel: an empty or failed fetch is indistinguishable from "no data
// available" and the orchestrator skips such panels entirely.
func Membership(upstream, local map[string]struct{}) Delta {
	delta := Delta{}

	for id := range upstream {
		if _, ok := local[id]; !ok {
			delta.Add = append(delta.Add, id)
		}
	}
	for id := range local {
		if _, ok := upstream[id]; !ok {
			delta.Remove = append(delta.Remove, id)
		}
	}

	sort.Strings(delta.Add)
	sort.Strings(delta.Remove)

	return delta
}

// IsEmpty returns true if the delta contains no changes.
func (d Delta) IsEmpty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// String returns a human-readable summary of the delta.
func (d Delta) String() string {
	if d.IsEmpty() {
		return "no changes"
	}
	parts := []string{}
	if len(d.Add) > 0 {
		parts = append(parts, fmt.Sprintf("%d to add", len(d.Add)))
	}
	if len(d.Remove) > 0 {
		parts = append(parts, fmt.Sprintf("%d to remove", len(d.Remove)))
	}
	return strings.Join(parts, ", ")
}

// Set converts a list of member identifiers into a set.
func Set(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// PanelInfo holds the mutable panel attributes subject to reconciliation.
// An empty string on the upstream side means the field was absent from the
// registry response.
type PanelInfo struct {
	Name    string
	Version string
}

// FieldChange records one attribute change for logging.
type FieldChange struct {
	Field string // Column key from the update allow-list
	Old   string // Current local value
	New   string // Upstream value
}

// AttributeDelta represents attribute changes for one panel.
type AttributeDelta struct {
	Changes []FieldChange
}

// Attribute field keys. These are the only fields the reconciler will
// ever write, and they key the parameterized update allow-list.
const (
	FieldName    = "name"
	FieldVersion = "version"
)

// Attributes compares upstream panel attributes against local ones.
// A field is included only when the upstream value is non-empty AND differs
// from the local value. Absent upstream fields never clear local data.
func Attributes(upstream, local PanelInfo) AttributeDelta {
	delta := AttributeDelta{}

	if upstream.Name != "" && upstream.Name != local.Name {
		delta.Changes = append(delta.Changes, FieldChange{
			Field: FieldName,
			Old:   local.Name,
			New:   upstream.Name,
		})
	}
	if upstream.Version != "" && upstream.Version != local.Version {
		delta.Changes = append(delta.Changes, FieldChange{
			Field: FieldVersion,
			Old:   local.Version,
			New:   upstream.Version,
		})
	}

	return delta
}

// IsEmpty returns true if the delta contains no changes.
func (d AttributeDelta) IsEmpty() bool {
	return len(d.Changes) == 0
}

// Values returns the changed fields as a field→value mapping, the shape
// consumed by the store's combined update statement.
func (d AttributeDelta) Values() map[string]string {
	if len(d.Changes) == 0 {
		return nil
	}
	values := make(map[string]string, len(d.Changes))
	for _, c := range d.Changes {
		values[c.Field] = c.New
	}
	return values
}

// String returns a human-readable summary of the delta.
func (d AttributeDelta) String() string {
	if d.IsEmpty() {
		return "no changes"
	}
	parts := make([]string, 0, len(d.Changes))
	for _, c := range d.Changes {
		parts = append(parts, fmt.Sprintf("%s from %q to %q", c.Field, c.Old, c.New))
	}
	return strings.Join(parts, ", ")
}
