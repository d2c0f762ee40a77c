package differ_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eastglh/panelsync/pkg/differ"
)

func TestMembership(t *testing.T) {
	tests := []struct {
		name       string
		upstream   []string
		local      []string
		wantAdd    []string
		wantRemove []string
	}{
		{
			name:       "converged",
			upstream:   []string{"HGNC:1", "HGNC:2"},
			local:      []string{"HGNC:1", "HGNC:2"},
			wantAdd:    nil,
			wantRemove: nil,
		},
		{
			name:       "add and remove",
			upstream:   []string{"HGNC:2", "HGNC:3"},
			local:      []string{"HGNC:1", "HGNC:2"},
			wantAdd:    []string{"HGNC:3"},
			wantRemove: []string{"HGNC:1"},
		},
		{
			name:       "empty local adds everything",
			upstream:   []string{"HGNC:1", "HGNC:2"},
			local:      nil,
			wantAdd:    []string{"HGNC:1", "HGNC:2"},
			wantRemove: nil,
		},
		{
			name:       "both empty",
			upstream:   nil,
			local:      nil,
			wantAdd:    nil,
			wantRemove: nil,
		},
		{
			name:       "disjoint",
			upstream:   []string{"HGNC:10", "HGNC:11"},
			local:      []string{"HGNC:20"},
			wantAdd:    []string{"HGNC:10", "HGNC:11"},
			wantRemove: []string{"HGNC:20"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta := differ.Membership(differ.Set(tt.upstream), differ.Set(tt.local))
			assert.Equal(t, tt.wantAdd, delta.Add)
			assert.Equal(t, tt.wantRemove, delta.Remove)
		})
	}
}

// Applying the delta to the local set must reproduce the upstream set, and
// the add/remove sets must never overlap.
func TestMembershipConvergence(t *testing.T) {
	upstream := differ.Set([]string{"HGNC:1", "HGNC:3", "HGNC:5"})
	local := differ.Set([]string{"HGNC:2", "HGNC:3", "HGNC:4"})

	delta := differ.Membership(upstream, local)

	converged := differ.Set(nil)
	for id := range local {
		converged[id] = struct{}{}
	}
	for _, id := range delta.Add {
		_, overlaps := differ.Set(delta.Remove)[id]
		require.False(t, overlaps, "add and remove sets must be disjoint")
		converged[id] = struct{}{}
	}
	for _, id := range delta.Remove {
		delete(converged, id)
	}

	assert.Equal(t, upstream, converged)
}

func TestMembershipOutputSorted(t *testing.T) {
	delta := differ.Membership(
		differ.Set([]string{"HGNC:9", "HGNC:1", "HGNC:5"}),
		differ.Set([]string{"HGNC:8", "HGNC:2"}),
	)
	assert.Equal(t, []string{"HGNC:1", "HGNC:5", "HGNC:9"}, delta.Add)
	assert.Equal(t, []string{"HGNC:2", "HGNC:8"}, delta.Remove)
}

func TestDeltaIsEmpty(t *testing.T) {
	assert.True(t, differ.Delta{}.IsEmpty())
	assert.False(t, differ.Delta{Add: []string{"HGNC:1"}}.IsEmpty())
	assert.False(t, differ.Delta{Remove: []string{"HGNC:1"}}.IsEmpty())
}

func TestDeltaString(t *testing.T) {
	assert.Equal(t, "no changes", differ.Delta{}.String())
	assert.Equal(t, "2 to add, 1 to remove", differ.Delta{
		Add:    []string{"HGNC:1", "HGNC:2"},
		Remove: []string{"HGNC:3"},
	}.String())
}

func TestAttributes(t *testing.T) {
	tests := []struct {
		name     string
		upstream differ.PanelInfo
		local    differ.PanelInfo
		want     map[string]string
	}{
		{
			name:     "version changed only",
			upstream: differ.PanelInfo{Name: "PanelX", Version: "2.0"},
			local:    differ.PanelInfo{Name: "PanelX", Version: "1.0"},
			want:     map[string]string{"version": "2.0"},
		},
		{
			name:     "name and version changed",
			upstream: differ.PanelInfo{Name: "PanelY", Version: "2.0"},
			local:    differ.PanelInfo{Name: "PanelX", Version: "1.0"},
			want:     map[string]string{"name": "PanelY", "version": "2.0"},
		},
		{
			name:     "no changes",
			upstream: differ.PanelInfo{Name: "PanelX", Version: "1.0"},
			local:    differ.PanelInfo{Name: "PanelX", Version: "1.0"},
			want:     nil,
		},
		{
			// Missing upstream data must not clear local fields.
			name:     "absent upstream fields ignored",
			upstream: differ.PanelInfo{},
			local:    differ.PanelInfo{Name: "PanelX", Version: "1.0"},
			want:     nil,
		},
		{
			name:     "absent name does not mask version change",
			upstream: differ.PanelInfo{Version: "3.1"},
			local:    differ.PanelInfo{Name: "PanelX", Version: "1.0"},
			want:     map[string]string{"version": "3.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta := differ.Attributes(tt.upstream, tt.local)
			assert.Equal(t, tt.want, delta.Values())
			assert.Equal(t, len(tt.want) == 0, delta.IsEmpty())
		})
	}
}

func TestAttributeDeltaRecordsOldValues(t *testing.T) {
	delta := differ.Attributes(
		differ.PanelInfo{Name: "PanelY", Version: "2.0"},
		differ.PanelInfo{Name: "PanelX", Version: "1.0"},
	)

	require.Len(t, delta.Changes, 2)
	assert.Equal(t, differ.FieldChange{Field: "name", Old: "PanelX", New: "PanelY"}, delta.Changes[0])
	assert.Equal(t, differ.FieldChange{Field: "version", Old: "1.0", New: "2.0"}, delta.Changes[1])
	assert.Equal(t, `name from "PanelX" to "PanelY", version from "1.0" to "2.0"`, delta.String())
}
