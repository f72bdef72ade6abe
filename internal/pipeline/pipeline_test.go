package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/healthrisk-cli/internal/charts"
	"github.com/KaramelBytes/healthrisk-cli/internal/dataset"
	"github.com/KaramelBytes/healthrisk-cli/internal/kpi"
	"github.com/KaramelBytes/healthrisk-cli/internal/logger"
	"github.com/KaramelBytes/healthrisk-cli/internal/manifest"
	"github.com/KaramelBytes/healthrisk-cli/internal/pipeline"
	"github.com/KaramelBytes/healthrisk-cli/internal/store"
	"github.com/KaramelBytes/healthrisk-cli/internal/testutil"
)

func testPaths(t *testing.T) pipeline.Paths {
	t.Helper()
	dir := t.TempDir()
	return pipeline.Paths{
		Raw:       testutil.WriteRawCSV(t, filepath.Join(dir, "data", "raw")),
		Clean:     filepath.Join(dir, "data", "processed", "cleaned_insurance.csv"),
		Dashboard: filepath.Join(dir, "dashboard"),
		Database:  filepath.Join(dir, "healthcare.db"),
	}
}

func smallCharts() pipeline.Options {
	opt := pipeline.DefaultOptions()
	opt.Charts = charts.Options{Width: 200, Height: 120}
	return opt
}

func TestRunProducesAllArtifacts(t *testing.T) {
	paths := testPaths(t)
	var out bytes.Buffer
	m, err := pipeline.Run(context.Background(), paths, smallCharts(), &out)
	require.NoError(t, err)

	text := out.String()
	for _, section := range []string{
		"[DATASET SUMMARY]",
		"--- Data Cleaning ---",
		"--- Exploratory Data Analysis ---",
		"--- Key Insights ---",
		"SQL DATABASE & KPI ANALYSIS",
		"KPI 4: Top 5 Highest Charges",
	} {
		assert.Contains(t, text, section)
	}
	assert.Contains(t, text, "Duplicate rows: 2")
	assert.Contains(t, text, "region: [southwest, southeast, northwest, northeast]")

	assert.Equal(t, testutil.RawRows, m.RowsRaw)
	assert.Equal(t, testutil.CleanRows, m.RowsClean)
	assert.Equal(t, testutil.RawDuplicates, m.DuplicatesRemoved)
	assert.Len(t, m.ByKind(manifest.KindChart), len(charts.Files))
	assert.Len(t, m.ByKind(manifest.KindCleanCSV), 1)
	assert.Len(t, m.ByKind(manifest.KindDatabase), 1)
	assert.Len(t, m.ByKind(manifest.KindProfile), 1)

	for _, a := range m.Artifacts {
		_, err := os.Stat(a.Path)
		assert.NoError(t, err, a.Path)
	}
	for _, f := range charts.Files {
		assert.FileExists(t, filepath.Join(paths.Dashboard, f))
	}

	saved, err := manifest.Load(paths.Dashboard)
	require.NoError(t, err)
	assert.Equal(t, m.RunID, saved.RunID)
	assert.Len(t, saved.Artifacts, len(m.Artifacts))

	clean, err := dataset.Load(paths.Clean)
	require.NoError(t, err)
	assert.Equal(t, dataset.Schema, clean.Columns)
	assert.Equal(t, testutil.CleanRows, clean.Len())
}

func TestRunTwiceKeepsOneCopy(t *testing.T) {
	paths := testPaths(t)
	opt := smallCharts()
	opt.Profile = false
	opt.Format = kpi.FormatJSON

	for i := 0; i < 2; i++ {
		var out bytes.Buffer
		_, err := pipeline.Run(context.Background(), paths, opt, &out)
		require.NoError(t, err)
		assert.NotContains(t, out.String(), "[DATASET SUMMARY]")
	}

	s, err := store.Open(paths.Database)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(testutil.CleanRows), n)
}

func TestRunStepErrors(t *testing.T) {
	t.Run("missing raw file", func(t *testing.T) {
		paths := testPaths(t)
		paths.Raw = filepath.Join(t.TempDir(), "missing.csv")
		_, err := pipeline.Run(context.Background(), paths, smallCharts(), &bytes.Buffer{})
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "load: "), err.Error())
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("schema mismatch", func(t *testing.T) {
		paths := testPaths(t)
		testutil.WriteFile(t, paths.Raw, "age,sex\n1,male\n")
		_, err := pipeline.Run(context.Background(), paths, smallCharts(), &bytes.Buffer{})
		assert.ErrorIs(t, err, dataset.ErrSchema)
	})

	t.Run("bad format", func(t *testing.T) {
		opt := smallCharts()
		opt.Format = "xml"
		_, err := pipeline.Run(context.Background(), testPaths(t), opt, &bytes.Buffer{})
		assert.ErrorIs(t, err, kpi.ErrFormat)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := pipeline.Run(ctx, testPaths(t), smallCharts(), &bytes.Buffer{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPrintCleanReport(t *testing.T) {
	raw, err := dataset.Read(strings.NewReader(testutil.RawInsuranceCSV))
	require.NoError(t, err)
	_, report := dataset.Clean(raw)

	var buf bytes.Buffer
	pipeline.PrintCleanReport(&buf, report)
	assert.Contains(t, buf.String(), "smoker: [yes, no]")
	assert.Contains(t, buf.String(), "Columns: age, sex, bmi, children, smoker, region, charges")
}

func TestRunWithoutSmokersStillLoadsStore(t *testing.T) {
	paths := testPaths(t)
	testutil.WriteFile(t, paths.Raw, "age,sex,bmi,children,smoker,region,charges\n"+
		"19,female,27.9,0,no,southwest,16884.924\n"+
		"18,male,33.77,1,no,southeast,1725.5523\n"+
		"28,male,33,3,no,southeast,4449.462\n"+
		"33,male,22.705,0,no,northwest,21984.47061\n")
	opt := smallCharts()
	opt.Profile = false

	var out bytes.Buffer
	m, err := pipeline.Run(context.Background(), paths, opt, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "no smokers in data")
	assert.Contains(t, out.String(), "KPI 2: Average Cost by Smoking Status")
	assert.Len(t, m.ByKind(manifest.KindDatabase), 1)

	s, err := store.Open(paths.Database)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	results, err := kpi.RunAll(context.Background(), s.DB())
	require.NoError(t, err)
	assert.Len(t, results[1].Rows, 1)
	assert.Equal(t, "no", results[1].Rows[0][0])
}

func TestRunLogsSchemaVersion(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	logger.SetLevel("debug")
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
		logger.SetLevel("info")
	})

	opt := smallCharts()
	opt.Profile = false
	_, err := pipeline.Run(context.Background(), testPaths(t), opt, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "at schema version 2")
}
