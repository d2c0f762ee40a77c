// Package store provides access to the test-directory schema. The sync core
// consumes the Store interface; Postgres backs it in production and Memory
// backs it in tests.
//
// Write operations report expected conditions as inspectable results rather
// than driving control flow through panics or driver errors: a duplicate
// membership insert returns errors.ErrDuplicate, a delete that matched no
// rows reports zero rows affected.
package store

import (
	"context"
)

// Panel is one row of the east-panels table, carrying both the local
// primary key and the registry's external identifier.
type Panel struct {
	ID       int64  // Local primary key
	RemoteID int64  // PanelApp panel id
	Name     string // Current local panel name
	Version  string // Current local panel version
}

// Filter selects which panels participate in a sync pass.
type Filter struct {
	PanelType int // panel-type-id; PanelApp panels are type 1
}

// TestDirectoryRow is one row of the joined test-directory report.
type TestDirectoryRow struct {
	ClinicalIndicationID string
	TestID               string
	ClinicalIndication   string
	PanelName            string
	PanelVersion         string
	PanelID              int64
	PanelType            string
}

// GenePanelRow is one row of the genepanels release file.
type GenePanelRow struct {
	TestInfo  string // TestID_ClinicalIndication_P
	PanelInfo string // PanelName_Version
	HGNCID    string
	PanelID   int64
}

// Reader provides the read side of the test-directory schema.
type Reader interface {
	// ListPanels returns the panels matching the filter, ordered by local id.
	ListPanels(ctx context.Context, filter Filter) ([]Panel, error)

	// PanelGenes returns the set of member gene ids for one panel.
	PanelGenes(ctx context.Context, panelID int64) (map[string]struct{}, error)
}

// Writer provides the write side consumed by the reconciler.
type Writer interface {
	// AddPanelGene inserts one membership row. Returns errors.ErrDuplicate
	// if the (panel, gene) pair already exists.
	AddPanelGene(ctx context.Context, panelID int64, hgncID string) error

	// RemovePanelGene deletes one membership row and reports how many rows
	// matched. Zero rows is not an error; it indicates prior convergence.
	RemovePanelGene(ctx context.Context, panelID int64, hgncID string) (int64, error)

	// UpdatePanel applies the changed attribute fields as a single combined
	// update statement. Field keys must come from the update allow-list;
	// unknown keys return errors.ErrInvalidInput.
	UpdatePanel(ctx context.Context, panelID int64, fields map[string]string) error
}

// Checkpointer scopes rollbacks to one panel within the ambient pass
// transaction. The store never opens a nested top-level transaction.
type Checkpointer interface {
	Savepoint(ctx context.Context, name string) error
	RollbackTo(ctx context.Context, name string) error
	Release(ctx context.Context, name string) error
}

// Store is the full contract consumed by the sync core.
type Store interface {
	Reader
	Writer
	Checkpointer
}

// Reporter provides the joined report queries used by the export commands.
type Reporter interface {
	// TestDirectory returns the joined clinical-indication × panel ×
	// panel-type rows ordered by test id.
	TestDirectory(ctx context.Context) ([]TestDirectoryRow, error)

	// GenePanels returns the genepanels release rows ordered by test id.
	GenePanels(ctx context.Context) ([]GenePanelRow, error)
}
