// Package report renders the export artifacts derived from the
// test-directory schema: the joined report CSV, the dated genepanels
// release TSV, and its YAML manifest.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/eastglh/panelsync/internal/store"
)

// testDirectoryHeader matches the column order of the joined report query.
var testDirectoryHeader = []string{
	"clinical-indication-id", "test-id", "clinical-indication",
	"panel-name", "panel-version", "panel-id", "panel-type",
}

// WriteTestDirectory writes the joined test-directory rows as CSV.
func WriteTestDirectory(w io.Writer, rows []store.TestDirectoryRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(testDirectoryHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.ClinicalIndicationID,
			r.TestID,
			r.ClinicalIndication,
			r.PanelName,
			r.PanelVersion,
			fmt.Sprintf("%d", r.PanelID),
			r.PanelType,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteGenepanels writes the genepanels release rows as headerless TSV,
// the shape downstream release tooling consumes.
func WriteGenepanels(w io.Writer, rows []store.GenePanelRow) error {
	tw := csv.NewWriter(w)
	tw.Comma = '\t'

	for _, r := range rows {
		record := []string{
			r.TestInfo,
			r.PanelInfo,
			r.HGNCID,
			fmt.Sprintf("%d", r.PanelID),
		}
		if err := tw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	tw.Flush()
	return tw.Error()
}

// GenepanelsFilename returns the dated release filename, e.g.
// "250825_genepanels.tsv".
func GenepanelsFilename(now time.Time) string {
	return now.Format("060102") + "_genepanels.tsv"
}

// Manifest summarizes one genepanels release for downstream comparison.
type Manifest struct {
	GeneratedAt time.Time `yaml:"generated_at"`
	Rows        int       `yaml:"rows"`
	Tests       int       `yaml:"tests"`
	Panels      int       `yaml:"panels"`
	Genes       int       `yaml:"genes"`
}

// BuildManifest computes the release summary from the genepanels rows.
func BuildManifest(rows []store.GenePanelRow, now time.Time) Manifest {
	tests := make(map[string]struct{})
	panels := make(map[int64]struct{})
	genes := make(map[string]struct{})
	for _, r := range rows {
		tests[r.TestInfo] = struct{}{}
		panels[r.PanelID] = struct{}{}
		genes[r.HGNCID] = struct{}{}
	}
	return Manifest{
		GeneratedAt: now,
		Rows:        len(rows),
		Tests:       len(tests),
		Panels:      len(panels),
		Genes:       len(genes),
	}
}

// WriteManifest writes the release manifest as YAML.
func WriteManifest(w io.Writer, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
