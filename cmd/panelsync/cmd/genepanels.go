package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eastglh/panelsync/internal/config"
	"github.com/eastglh/panelsync/internal/report"
	"github.com/eastglh/panelsync/internal/store"
	"github.com/eastglh/panelsync/pkg/errors"
	"github.com/eastglh/panelsync/pkg/logging"
)

var genepanelsDir string

var genepanelsCmd = &cobra.Command{
	Use:   "genepanels",
	Short: "Generate the dated genepanels release TSV and manifest",
	Long: `Genepanels writes the {yymmdd}_genepanels.tsv release file joining
tests, panels, and genes, plus a YAML manifest summarising the release for
comparison against previous ones.`,
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

		rows, err := store.NewPostgres(pool).GenePanels(ctx)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			logging.Warn().Msg("no genepanels rows found, nothing to write")
			return nil
		}

		now := time.Now()
		name := filepath.Join(genepanelsDir, report.GenepanelsFilename(now))

		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		defer func() { _ = f.Close() }()

		if err := report.WriteGenepanels(f, rows); err != nil {
			return err
		}

		manifestName := strings.TrimSuffix(name, ".tsv") + ".yaml"
		mf, err := os.Create(manifestName)
		if err != nil {
			return fmt.Errorf("create %s: %w", manifestName, err)
		}
		defer func() { _ = mf.Close() }()

		if err := report.WriteManifest(mf, report.BuildManifest(rows, now)); err != nil {
			return err
		}

		logging.Info().
			Int("rows", len(rows)).
			Str("file", name).
			Str("manifest", manifestName).
			Msg("genepanels release written")
		return nil
	},
}

func init() {
	genepanelsCmd.Flags().StringVarP(&genepanelsDir, "dir", "d", ".", "output directory")
	rootCmd.AddCommand(genepanelsCmd)
}
