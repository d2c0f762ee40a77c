// Package reconcile applies a computed delta to the local store under a
// dry-run/live switch. Each panel's writes are fenced by a named savepoint
// inside the ambient pass transaction, so a failing panel rolls back alone
// while already-applied panels keep their uncommitted writes.
package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/eastglh/panelsync/internal/store"
	"github.com/eastglh/panelsync/pkg/differ"
	"github.com/eastglh/panelsync/pkg/errors"
	"github.com/eastglh/panelsync/pkg/logging"
)

// Reconciler applies deltas to a store.
type Reconciler struct {
	store  store.Store
	dryRun bool
	log    zerolog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithDryRun controls whether writes are issued. In dry-run mode the
// reconciler emits a "would" observation per change and never touches the
// store.
func WithDryRun(dryRun bool) Option {
	return func(r *Reconciler) {
		r.dryRun = dryRun
	}
}

// WithLogger sets the logger used for per-decision events.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Reconciler) {
		r.log = log
	}
}

// New creates a Reconciler. Dry-run defaults to true; a caller must opt in
// to live writes.
func New(s store.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  s,
		dryRun: true,
		log:    *logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DryRun reports whether the reconciler is in dry-run mode.
func (r *Reconciler) DryRun() bool {
	return r.dryRun
}

// ApplyMembership converges one panel's gene membership to the delta.
//
// Live mode establishes a savepoint before the first write. Duplicate
// inserts and zero-row deletes indicate prior convergence and are logged,
// not propagated. Any other write error rolls back to the panel's
// savepoint and yields StatusPartialFailure.
func (r *Reconciler) ApplyMembership(ctx context.Context, panel store.Panel, delta differ.Delta) Outcome {
	log := r.log.With().Int64("panel", panel.ID).Logger()

	if delta.IsEmpty() {
		log.Info().Msg("genes are up to date")
		return Outcome{Status: StatusNoChange}
	}

	if r.dryRun {
		for _, id := range delta.Add {
			log.Info().Str("hgnc_id", id).Msg("would add gene")
		}
		for _, id := range delta.Remove {
			log.Info().Str("hgnc_id", id).Msg("would remove gene")
		}
		return Outcome{Status: StatusApplied, Added: len(delta.Add), Removed: len(delta.Remove)}
	}

	checkpoint := savepointName(panel.ID)
	if err := r.store.Savepoint(ctx, checkpoint); err != nil {
		log.Error().Err(err).Msg("create savepoint")
		return Outcome{Status: StatusPartialFailure, Err: err}
	}

	outcome := Outcome{Status: StatusApplied}

	for _, id := range delta.Add {
		err := r.store.AddPanelGene(ctx, panel.ID, id)
		switch {
		case err == nil:
			outcome.Added++
			log.Info().Str("hgnc_id", id).Msg("added gene")
		case errors.IsDuplicate(err):
			log.Info().Str("hgnc_id", id).Msg("skip duplicate, gene already exists")
		default:
			return r.rollback(ctx, log, checkpoint, err)
		}
	}

	for _, id := range delta.Remove {
		rows, err := r.store.RemovePanelGene(ctx, panel.ID, id)
		if err != nil {
			return r.rollback(ctx, log, checkpoint, err)
		}
		if rows == 0 {
			log.Info().Str("hgnc_id", id).Msg("skip remove, gene not found")
			continue
		}
		outcome.Removed++
		log.Info().Str("hgnc_id", id).Msg("removed gene")
	}

	if err := r.store.Release(ctx, checkpoint); err != nil {
		log.Warn().Err(err).Msg("release savepoint")
	}

	return outcome
}

// ApplyAttributes writes one panel's changed attribute fields as a single
// combined update. The savepoint bounds the rollback to this panel if the
// statement fails inside the ambient transaction.
func (r *Reconciler) ApplyAttributes(ctx context.Context, panel store.Panel, delta differ.AttributeDelta) Outcome {
	log := r.log.With().Int64("panel", panel.ID).Logger()

	if delta.IsEmpty() {
		log.Info().Msg("panel info is up to date")
		return Outcome{Status: StatusNoChange}
	}

	fields := make([]string, 0, len(delta.Changes))
	for _, c := range delta.Changes {
		fields = append(fields, c.Field)
	}
	sort.Strings(fields)

	if r.dryRun {
		log.Info().Str("changes", delta.String()).Msg("would update panel")
		return Outcome{Status: StatusApplied, Updated: fields}
	}

	checkpoint := savepointName(panel.ID)
	if err := r.store.Savepoint(ctx, checkpoint); err != nil {
		log.Error().Err(err).Msg("create savepoint")
		return Outcome{Status: StatusPartialFailure, Err: err}
	}

	if err := r.store.UpdatePanel(ctx, panel.ID, delta.Values()); err != nil {
		return r.rollback(ctx, log, checkpoint, err)
	}

	if err := r.store.Release(ctx, checkpoint); err != nil {
		log.Warn().Err(err).Msg("release savepoint")
	}

	log.Info().Str("changes", delta.String()).Msg("updated panel")
	return Outcome{Status: StatusApplied, Updated: fields}
}

// rollback restores the panel's checkpoint after a failed write.
func (r *Reconciler) rollback(ctx context.Context, log zerolog.Logger, checkpoint string, cause error) Outcome {
	log.Error().Err(cause).Msg("rolling back panel changes")
	if err := r.store.RollbackTo(ctx, checkpoint); err != nil {
		log.Error().Err(err).Msg("rollback to savepoint")
	}
	return Outcome{Status: StatusPartialFailure, Err: cause}
}

// savepointName builds the per-panel checkpoint identifier. Derived from
// the numeric local id, so it is always a valid SQL identifier.
func savepointName(panelID int64) string {
	return fmt.Sprintf("panel_%d", panelID)
}
