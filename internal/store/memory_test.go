package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eastglh/panelsync/internal/store"
	"github.com/eastglh/panelsync/pkg/errors"
)

func TestMemoryAddPanelGeneDuplicate(t *testing.T) {
	mem := store.NewMemory()
	mem.SeedPanel(store.Panel{ID: 1}, "HGNC:1")

	err := mem.AddPanelGene(context.Background(), 1, "HGNC:1")
	require.Error(t, err)
	assert.True(t, errors.IsDuplicate(err))

	require.NoError(t, mem.AddPanelGene(context.Background(), 1, "HGNC:2"))
}

func TestMemoryRemovePanelGeneRowsAffected(t *testing.T) {
	mem := store.NewMemory()
	mem.SeedPanel(store.Panel{ID: 1}, "HGNC:1")

	rows, err := mem.RemovePanelGene(context.Background(), 1, "HGNC:1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = mem.RemovePanelGene(context.Background(), 1, "HGNC:1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "a missing row is not an error")
}

func TestMemoryUpdatePanel(t *testing.T) {
	mem := store.NewMemory()
	mem.SeedPanel(store.Panel{ID: 1, Name: "PanelX", Version: "1.0"})

	err := mem.UpdatePanel(context.Background(), 1, map[string]string{"version": "2.0"})
	require.NoError(t, err)

	panel, ok := mem.Panel(1)
	require.True(t, ok)
	assert.Equal(t, "2.0", panel.Version)
	assert.Equal(t, "PanelX", panel.Name)
}

func TestMemoryUpdatePanelUnknownField(t *testing.T) {
	mem := store.NewMemory()
	mem.SeedPanel(store.Panel{ID: 1})

	err := mem.UpdatePanel(context.Background(), 1, map[string]string{"owner": "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestMemoryUpdatePanelMissing(t *testing.T) {
	mem := store.NewMemory()
	err := mem.UpdatePanel(context.Background(), 9, map[string]string{"version": "2.0"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestMemorySavepointRollback(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	mem.SeedPanel(store.Panel{ID: 1, Version: "1.0"}, "HGNC:1")

	require.NoError(t, mem.Savepoint(ctx, "panel_1"))
	require.NoError(t, mem.AddPanelGene(ctx, 1, "HGNC:2"))
	_, err := mem.RemovePanelGene(ctx, 1, "HGNC:1")
	require.NoError(t, err)
	require.NoError(t, mem.UpdatePanel(ctx, 1, map[string]string{"version": "2.0"}))

	require.NoError(t, mem.RollbackTo(ctx, "panel_1"))

	genes, err := mem.PanelGenes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"HGNC:1": {}}, genes)

	panel, _ := mem.Panel(1)
	assert.Equal(t, "1.0", panel.Version)
}

func TestMemorySavepointRelease(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	mem.SeedPanel(store.Panel{ID: 1}, "HGNC:1")

	require.NoError(t, mem.Savepoint(ctx, "panel_1"))
	require.NoError(t, mem.AddPanelGene(ctx, 1, "HGNC:2"))
	require.NoError(t, mem.Release(ctx, "panel_1"))

	// The checkpoint is gone; rolling back to it must fail, and the write
	// sticks.
	err := mem.RollbackTo(ctx, "panel_1")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	genes, err := mem.PanelGenes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"HGNC:1": {}, "HGNC:2": {}}, genes)
}

func TestMemoryListPanels(t *testing.T) {
	mem := store.NewMemory()
	mem.SeedPanel(store.Panel{ID: 1, RemoteID: 100, Name: "A"})
	mem.SeedPanel(store.Panel{ID: 2, RemoteID: 200, Name: "B"})

	panels, err := mem.ListPanels(context.Background(), store.Filter{PanelType: 1})
	require.NoError(t, err)
	require.Len(t, panels, 2)
	assert.Equal(t, "A", panels[0].Name)
	assert.Equal(t, "B", panels[1].Name)
}

// The interfaces stay satisfied by both backends.
var (
	_ store.Store    = (*store.Memory)(nil)
	_ store.Store    = (*store.Postgres)(nil)
	_ store.Reporter = (*store.Postgres)(nil)
)
