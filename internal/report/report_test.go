package report_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eastglh/panelsync/internal/report"
	"github.com/eastglh/panelsync/internal/store"
)

func TestWriteTestDirectory(t *testing.T) {
	rows := []store.TestDirectoryRow{
		{
			ClinicalIndicationID: "R58",
			TestID:               "R58.4",
			ClinicalIndication:   "Adult onset neurodegenerative disorder",
			PanelName:            "Adult onset neurodegenerative disorder",
			PanelVersion:         "2.1",
			PanelID:              12,
			PanelType:            "1",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteTestDirectory(&buf, rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "clinical-indication-id,test-id,clinical-indication,panel-name,panel-version,panel-id,panel-type", lines[0])
	assert.Equal(t, "R58,R58.4,Adult onset neurodegenerative disorder,Adult onset neurodegenerative disorder,2.1,12,1", lines[1])
}

func TestWriteTestDirectoryQuotesCommas(t *testing.T) {
	rows := []store.TestDirectoryRow{
		{
			ClinicalIndicationID: "R59",
			TestID:               "R59.1",
			ClinicalIndication:   "Early onset, familial dementia",
			PanelName:            "Dementia",
			PanelVersion:         "1.0",
			PanelID:              7,
			PanelType:            "1",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteTestDirectory(&buf, rows))
	assert.Contains(t, buf.String(), `"Early onset, familial dementia"`)
}

func TestWriteGenepanels(t *testing.T) {
	rows := []store.GenePanelRow{
		{TestInfo: "R58.4_Adult onset", PanelInfo: "Neurodegeneration_2.1", HGNCID: "HGNC:1", PanelID: 12},
		{TestInfo: "R58.4_Adult onset", PanelInfo: "Neurodegeneration_2.1", HGNCID: "HGNC:2", PanelID: 12},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteGenepanels(&buf, rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2, "release TSV carries no header row")
	assert.Equal(t, "R58.4_Adult onset\tNeurodegeneration_2.1\tHGNC:1\t12", lines[0])
	assert.Equal(t, "R58.4_Adult onset\tNeurodegeneration_2.1\tHGNC:2\t12", lines[1])
}

func TestGenepanelsFilename(t *testing.T) {
	now := time.Date(2025, 8, 25, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "250825_genepanels.tsv", report.GenepanelsFilename(now))
}

func TestBuildManifest(t *testing.T) {
	now := time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC)
	rows := []store.GenePanelRow{
		{TestInfo: "T1", PanelInfo: "P1_1.0", HGNCID: "HGNC:1", PanelID: 1},
		{TestInfo: "T1", PanelInfo: "P1_1.0", HGNCID: "HGNC:2", PanelID: 1},
		{TestInfo: "T2", PanelInfo: "P2_1.0", HGNCID: "HGNC:1", PanelID: 2},
	}

	m := report.BuildManifest(rows, now)

	assert.Equal(t, now, m.GeneratedAt)
	assert.Equal(t, 3, m.Rows)
	assert.Equal(t, 2, m.Tests)
	assert.Equal(t, 2, m.Panels)
	assert.Equal(t, 2, m.Genes, "HGNC:1 appears on two panels but counts once")
}

func TestWriteManifest(t *testing.T) {
	m := report.Manifest{
		GeneratedAt: time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC),
		Rows:        3,
		Tests:       2,
		Panels:      2,
		Genes:       2,
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteManifest(&buf, m))

	var got report.Manifest
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, m.Rows, got.Rows)
	assert.Equal(t, m.Tests, got.Tests)
	assert.Equal(t, m.Panels, got.Panels)
	assert.Equal(t, m.Genes, got.Genes)
	assert.True(t, m.GeneratedAt.Equal(got.GeneratedAt))
}
