// Package sync orchestrates reconciliation passes: it walks the eligible
// panels, invokes fetch → read → diff → reconcile per panel, and decides
// whether the ambient transaction commits.
package sync

import (
	"github.com/rs/zerolog"

	"github.com/eastglh/panelsync/pkg/errors"
	"github.com/eastglh/panelsync/pkg/logging"
)

// Options controls a sync pass.
type Options struct {
	// DryRun previews changes without issuing any write. Defaults to true;
	// live mode is always an explicit opt-in.
	DryRun bool

	// PanelType filters which panels participate in the pass.
	// PanelApp-managed panels are type 1.
	PanelType int

	// Logger receives the per-decision events of the pass.
	Logger zerolog.Logger
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		DryRun:    true,
		PanelType: 1,
		Logger:    *logging.Default(),
	}
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate checks if the sync options are valid.
func (o *Options) Validate() error {
	if o.PanelType <= 0 {
		return errors.NewConfigError("sync", "panel type must be positive", errors.ErrInvalidInput)
	}
	return nil
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// WithPanelType configures the panel type filter.
func WithPanelType(panelType int) Option {
	return func(opts *Options) {
		opts.PanelType = panelType
	}
}

// WithLogger configures the pass logger.
func WithLogger(log zerolog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = log
	}
}
