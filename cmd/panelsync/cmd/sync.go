package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eastglh/panelsync/internal/config"
	"github.com/eastglh/panelsync/internal/store"
	"github.com/eastglh/panelsync/pkg/errors"
	"github.com/eastglh/panelsync/pkg/logging"
	"github.com/eastglh/panelsync/pkg/panelapp"
	"github.com/eastglh/panelsync/pkg/sync"
)

var (
	noDryRun  bool
	panelType int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the database with the PanelApp registry",
}

var syncGenesCmd = &cobra.Command{
	Use:   "genes",
	Short: "Sync panel gene membership with PanelApp",
	Long: `Sync genes compares each panel's local gene set against the
high-confidence genes PanelApp reports for the panel's pinned version, then
inserts missing genes and removes obsolete ones. Panels with an empty or
failed upstream fetch are skipped untouched.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSync(cmd.Context(), func(ctx context.Context, o *sync.Orchestrator) (*sync.Result, error) {
			return o.SyncGenes(ctx)
		})
	},
}

var syncPanelsCmd = &cobra.Command{
	Use:   "panels",
	Short: "Sync panel names and versions with PanelApp",
	Long: `Sync panels fetches the latest signed-off release for each panel
and updates the local name and version where they differ. Absent upstream
fields never clear local values.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSync(cmd.Context(), func(ctx context.Context, o *sync.Orchestrator) (*sync.Result, error) {
			return o.SyncPanels(ctx)
		})
	},
}

func init() {
	syncCmd.PersistentFlags().BoolVar(&noDryRun, "no-dry-run", false,
		"apply changes to the database (default is dry-run mode)")
	syncCmd.PersistentFlags().IntVar(&panelType, "panel-type", 1,
		"panel type id to sync (1 = PanelApp panels)")

	syncCmd.AddCommand(syncGenesCmd)
	syncCmd.AddCommand(syncPanelsCmd)
	rootCmd.AddCommand(syncCmd)
}

// runSync wires config, database, and registry client together and runs
// one pass. The deferred rollback discards everything unless the
// orchestrator committed.
func runSync(ctx context.Context, pass func(context.Context, *sync.Orchestrator) (*sync.Result, error)) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL())
	if err != nil {
		return errors.WrapConnection(err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return errors.WrapConnection(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	logging.Info().Msg("connected to the database")

	orchestrator, err := sync.New(
		store.NewPostgres(tx),
		panelapp.New(panelapp.WithBaseURL(cfg.PanelApp.BaseURL)),
		tx,
		sync.WithDryRun(!noDryRun),
		sync.WithPanelType(panelType),
	)
	if err != nil {
		return err
	}

	result, err := pass(ctx, orchestrator)
	if err != nil {
		return err
	}

	fmt.Println(result.String())
	return nil
}
