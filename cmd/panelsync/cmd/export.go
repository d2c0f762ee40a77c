package cmd

import (
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eastglh/panelsync/internal/config"
	"github.com/eastglh/panelsync/internal/report"
	"github.com/eastglh/panelsync/internal/store"
	"github.com/eastglh/panelsync/pkg/errors"
	"github.com/eastglh/panelsync/pkg/logging"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the joined test-directory report as CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		pool, err := pgxpool.New(ctx, cfg.Database.URL())
		if err != nil {
			return errors.WrapConnection(err)
		}
		defer pool.Close()

		rows, err := store.NewPostgres(pool).TestDirectory(ctx)
		if err != nil {
			return err
		}

		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer func() { _ = f.Close() }()

		if err := report.WriteTestDirectory(f, rows); err != nil {
			return err
		}

		logging.Info().Int("rows", len(rows)).Str("file", exportOut).Msg("test directory exported")
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "td_sql.csv", "output CSV file")
	rootCmd.AddCommand(exportCmd)
}
