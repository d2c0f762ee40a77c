package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eastglh/panelsync/internal/store"
	"github.com/eastglh/panelsync/pkg/differ"
	"github.com/eastglh/panelsync/pkg/errors"
	"github.com/eastglh/panelsync/pkg/panelapp"
	"github.com/eastglh/panelsync/pkg/reconcile"
)

// Fetcher retrieves a panel's upstream snapshot from the registry.
type Fetcher interface {
	// Membership returns the member gene ids for a panel at a pinned version.
	Membership(ctx context.Context, remoteID int64, version string) ([]string, error)

	// Attributes returns the latest signed-off name/version for a panel.
	// A zero value means the registry had no data.
	Attributes(ctx context.Context, remoteID int64) (panelapp.SignedOff, error)
}

// Tx is the ambient pass transaction. The orchestrator commits it only when
// a live pass reaches the end of the panel list; the caller holds the
// deferred rollback that discards everything otherwise.
type Tx interface {
	Commit(ctx context.Context) error
}

// Orchestrator runs reconciliation passes over the eligible panels.
type Orchestrator struct {
	store      store.Store
	fetcher    Fetcher
	tx         Tx
	opts       *Options
	reconciler *reconcile.Reconciler
}

// New creates an Orchestrator over the given store, fetcher, and ambient
// transaction.
func New(s store.Store, f Fetcher, tx Tx, opts ...Option) (*Orchestrator, error) {
	options := Defaults().Apply(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{
		store:   s,
		fetcher: f,
		tx:      tx,
		opts:    options,
		reconciler: reconcile.New(s,
			reconcile.WithDryRun(options.DryRun),
			reconcile.WithLogger(options.Logger),
		),
	}, nil
}

// SyncGenes reconciles each panel's gene membership with the registry.
//
// A panel whose upstream fetch fails or returns no genes is skipped
// untouched: an empty snapshot is indistinguishable from "no data
// available" and must never be read as "remove everything". Per-panel
// failures are isolated; only listing the panels is fatal to the pass.
func (o *Orchestrator) SyncGenes(ctx context.Context) (*Result, error) {
	return o.run(ctx, "genes", func(ctx context.Context, log zerolog.Logger, panel store.Panel, result *Result) error {
		ids, err := o.fetcher.Membership(ctx, panel.RemoteID, panel.Version)
		if err != nil {
			log.Warn().Err(err).Msg("fetch failed, skipping panel")
			result.Skipped++
			return nil
		}
		if len(ids) == 0 {
			log.Warn().Msg("no genes reported upstream, skipping panel")
			result.Skipped++
			return nil
		}

		local, err := o.store.PanelGenes(ctx, panel.ID)
		if err != nil {
			log.Error().Err(err).Msg("read local genes")
			result.Failed++
			result.Failures = append(result.Failures, Failure{PanelID: panel.ID, Err: err})
			return nil
		}

		delta := differ.Membership(differ.Set(ids), local)
		outcome := o.reconciler.ApplyMembership(ctx, panel, delta)
		o.record(panel, outcome, result)
		return nil
	})
}

// SyncPanels reconciles each panel's name and version with the latest
// signed-off release. Absent upstream fields never clear local values.
func (o *Orchestrator) SyncPanels(ctx context.Context) (*Result, error) {
	return o.run(ctx, "panels", func(ctx context.Context, log zerolog.Logger, panel store.Panel, result *Result) error {
		signedOff, err := o.fetcher.Attributes(ctx, panel.RemoteID)
		if err != nil {
			log.Warn().Err(err).Msg("fetch failed, skipping panel")
			result.Skipped++
			return nil
		}
		if signedOff.Name == "" && signedOff.Version == "" {
			log.Warn().Msg("no signed-off release upstream, skipping panel")
			result.Skipped++
			return nil
		}

		delta := differ.Attributes(
			differ.PanelInfo{Name: signedOff.Name, Version: signedOff.Version},
			differ.PanelInfo{Name: panel.Name, Version: panel.Version},
		)
		outcome := o.reconciler.ApplyAttributes(ctx, panel, delta)
		o.record(panel, outcome, result)
		return nil
	})
}

// run drives one pass: list panels, process each, then commit or leave the
// transaction to the caller's rollback.
func (o *Orchestrator) run(ctx context.Context, pass string, process func(context.Context, zerolog.Logger, store.Panel, *Result) error) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID:  uuid.NewString(),
		DryRun: o.opts.DryRun,
	}

	log := o.opts.Logger.With().
		Str("pass", pass).
		Str("run_id", result.RunID).
		Bool("dry_run", o.opts.DryRun).
		Logger()

	panels, err := o.store.ListPanels(ctx, store.Filter{PanelType: o.opts.PanelType})
	if err != nil {
		return nil, errors.WrapConnection(err)
	}
	result.Panels = len(panels)
	log.Info().Int("panels", len(panels)).Msg("starting pass")

	for _, panel := range panels {
		panelLog := log.With().Int64("panel", panel.ID).Int64("remote_id", panel.RemoteID).Logger()
		panelLog.Debug().Msg("processing panel")
		if err := process(ctx, panelLog, panel, result); err != nil {
			return result, err
		}
	}

	result.Duration = time.Since(start)

	if o.opts.DryRun {
		log.Info().Msg("dry run complete, no changes committed")
		return result, nil
	}

	if err := o.tx.Commit(ctx); err != nil {
		return result, errors.WrapConnection(err)
	}
	result.Committed = true
	log.Info().
		Int("applied", result.Applied).
		Int("failed", result.Failed).
		Msg("changes committed")

	return result, nil
}

// record folds one panel's outcome into the pass result.
func (o *Orchestrator) record(panel store.Panel, outcome reconcile.Outcome, result *Result) {
	switch outcome.Status {
	case reconcile.StatusNoChange:
		result.NoChange++
	case reconcile.StatusApplied:
		result.Applied++
		result.GenesAdded += outcome.Added
		result.GenesRemoved += outcome.Removed
		result.FieldsUpdated += len(outcome.Updated)
	case reconcile.StatusPartialFailure:
		result.Failed++
		result.Failures = append(result.Failures, Failure{
			PanelID: panel.ID,
			Err:     errors.NewSyncError(panel.Name, outcome.Err),
		})
	}
}
