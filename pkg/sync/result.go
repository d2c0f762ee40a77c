package sync

import (
	"fmt"
	"strings"
	"time"
)

// Failure records one isolated per-panel failure within a pass.
type Failure struct {
	PanelID int64
	Err     error
}

// Result summarizes one reconciliation pass.
type Result struct {
	RunID  string // Unique id carried through the pass logs
	DryRun bool

	Panels    int // Panels listed for the pass
	Skipped   int // Panels skipped: empty or failed upstream fetch
	NoChange  int // Panels already converged
	Applied   int // Panels with changes applied (or previewed in dry-run)
	Failed    int // Panels that hit an isolated failure
	Committed bool

	GenesAdded    int
	GenesRemoved  int
	FieldsUpdated int

	Failures []Failure
	Duration time.Duration
}

// HasFailures returns true if any panel failed during the pass.
func (r *Result) HasFailures() bool {
	return r.Failed > 0
}

// String returns a human-readable summary of the pass.
func (r *Result) String() string {
	parts := []string{
		fmt.Sprintf("%d panels", r.Panels),
		fmt.Sprintf("%d applied", r.Applied),
		fmt.Sprintf("%d unchanged", r.NoChange),
	}
	if r.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", r.Skipped))
	}
	if r.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", r.Failed))
	}
	if r.GenesAdded > 0 || r.GenesRemoved > 0 {
		parts = append(parts, fmt.Sprintf("%d genes added, %d removed", r.GenesAdded, r.GenesRemoved))
	}
	if r.FieldsUpdated > 0 {
		parts = append(parts, fmt.Sprintf("%d fields updated", r.FieldsUpdated))
	}

	mode := "live"
	if r.DryRun {
		mode = "dry-run"
	}
	return fmt.Sprintf("%s pass: %s", mode, strings.Join(parts, ", "))
}
