package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/eastglh/panelsync/pkg/errors"
)

// Memory implements Store in memory. It backs the reconciler and
// orchestrator tests, including savepoint semantics: each named checkpoint
// snapshots the full state, RollbackTo restores it, Release discards it.
//
// The error hooks let tests inject failures on specific writes.
type Memory struct {
	mu     sync.Mutex
	panels []Panel
	genes  map[int64]map[string]struct{}
	saves  map[string]memorySnapshot

	// ListErr, if set, fails ListPanels, simulating a connection failure.
	ListErr error
	// AddErr, if set, is consulted before every membership insert.
	AddErr func(panelID int64, hgncID string) error
	// RemoveErr, if set, is consulted before every membership delete.
	RemoveErr func(panelID int64, hgncID string) error
	// UpdateErr, if set, is consulted before every attribute update.
	UpdateErr func(panelID int64) error
}

type memorySnapshot struct {
	panels []Panel
	genes  map[int64]map[string]struct{}
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		genes: make(map[int64]map[string]struct{}),
		saves: make(map[string]memorySnapshot),
	}
}

// SeedPanel registers a panel row and its current gene members.
func (s *Memory) SeedPanel(p Panel, genes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panels = append(s.panels, p)
	set := make(map[string]struct{}, len(genes))
	for _, g := range genes {
		set[g] = struct{}{}
	}
	s.genes[p.ID] = set
}

// Panel returns the current attributes of a panel by local id.
func (s *Memory) Panel(panelID int64) (Panel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.panels {
		if p.ID == panelID {
			return p, true
		}
	}
	return Panel{}, false
}

// ListPanels returns all seeded panels. The filter is accepted for
// interface compatibility; tests seed only panels that would match.
func (s *Memory) ListPanels(_ context.Context, _ Filter) ([]Panel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := make([]Panel, len(s.panels))
	copy(out, s.panels)
	return out, nil
}

// PanelGenes returns a copy of the panel's member set.
func (s *Memory) PanelGenes(_ context.Context, panelID int64) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySet(s.genes[panelID]), nil
}

// AddPanelGene inserts one membership row, honoring the duplicate contract.
func (s *Memory) AddPanelGene(_ context.Context, panelID int64, hgncID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.AddErr != nil {
		if err := s.AddErr(panelID, hgncID); err != nil {
			return err
		}
	}

	set, ok := s.genes[panelID]
	if !ok {
		set = make(map[string]struct{})
		s.genes[panelID] = set
	}
	if _, exists := set[hgncID]; exists {
		return fmt.Errorf("add gene %s to panel %d: %w", hgncID, panelID, errors.ErrDuplicate)
	}
	set[hgncID] = struct{}{}
	return nil
}

// RemovePanelGene deletes one membership row and reports rows affected.
func (s *Memory) RemovePanelGene(_ context.Context, panelID int64, hgncID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.RemoveErr != nil {
		if err := s.RemoveErr(panelID, hgncID); err != nil {
			return 0, err
		}
	}

	set := s.genes[panelID]
	if _, exists := set[hgncID]; !exists {
		return 0, nil
	}
	delete(set, hgncID)
	return 1, nil
}

// UpdatePanel applies changed attribute fields to the panel row.
func (s *Memory) UpdatePanel(_ context.Context, panelID int64, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.UpdateErr != nil {
		if err := s.UpdateErr(panelID); err != nil {
			return err
		}
	}

	for i := range s.panels {
		if s.panels[i].ID != panelID {
			continue
		}
		for k, v := range fields {
			switch k {
			case "name":
				s.panels[i].Name = v
			case "version":
				s.panels[i].Version = v
			default:
				return fmt.Errorf("update panel %d: field %q: %w", panelID, k, errors.ErrInvalidInput)
			}
		}
		return nil
	}
	return fmt.Errorf("update panel %d: %w", panelID, errors.ErrNotFound)
}

// Savepoint snapshots the current state under the given name.
func (s *Memory) Savepoint(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves[name] = s.snapshot()
	return nil
}

// RollbackTo restores the state captured under the given name.
func (s *Memory) RollbackTo(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.saves[name]
	if !ok {
		return fmt.Errorf("savepoint %s: %w", name, errors.ErrNotFound)
	}
	s.panels = snap.panels
	s.genes = snap.genes
	return nil
}

// Release discards the named savepoint without restoring it.
func (s *Memory) Release(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.saves[name]; !ok {
		return fmt.Errorf("savepoint %s: %w", name, errors.ErrNotFound)
	}
	delete(s.saves, name)
	return nil
}

func (s *Memory) snapshot() memorySnapshot {
	panels := make([]Panel, len(s.panels))
	copy(panels, s.panels)
	genes := make(map[int64]map[string]struct{}, len(s.genes))
	for id, set := range s.genes {
		genes[id] = copySet(set)
	}
	return memorySnapshot{panels: panels, genes: genes}
}

func copySet(src map[string]struct{}) map[string]struct{} {
	dst := make(map[string]struct{}, len(src))
	for k := range src {
		dst[k] = struct{}{}
	}
	return dst
}
