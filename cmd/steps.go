package cmd

import (
	"fmt"

	"github.com/KaramelBytes/healthrisk-cli/internal/analysis"
	"github.com/KaramelBytes/healthrisk-cli/internal/charts"
	"github.com/KaramelBytes/healthrisk-cli/internal/dataset"
	"github.com/KaramelBytes/healthrisk-cli/internal/kpi"
	"github.com/KaramelBytes/healthrisk-cli/internal/logger"
	"github.com/KaramelBytes/healthrisk-cli/internal/pipeline"
	"github.com/KaramelBytes/healthrisk-cli/internal/store"
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove duplicate rows, normalise column names and write the cleaned CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := resolvePaths()
		logger.Step("clean", paths.Raw, paths.Clean)
		raw, err := dataset.Load(paths.Raw)
		if err != nil {
			return err
		}
		clean, report := dataset.Clean(raw)
		out := cmd.OutOrStdout()
		pipeline.PrintCleanReport(out, report)
		if err := dataset.WriteCSV(clean, paths.Clean); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Cleaned dataset saved: %s\n", paths.Clean)
		return nil
	},
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render the dashboard charts from the cleaned CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := resolvePaths()
		logger.Step("charts", paths.Clean, paths.Dashboard)
		t, err := loadCleaned(paths.Clean)
		if err != nil {
			return err
		}
		pngs, err := charts.RenderAll(t, paths.Dashboard, chartOptions())
		if err != nil {
			return err
		}
		for _, p := range pngs {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Chart saved: %s\n", p)
		}
		return nil
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the cleaned CSV into the SQLite insurance table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := resolvePaths()
		logger.Step("store", paths.Clean, paths.Database)
		t, err := loadCleaned(paths.Clean)
		if err != nil {
			return err
		}
		s, err := store.Open(paths.Database)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		if v, err := s.Version(); err == nil {
			logger.Debugf("database %s at schema version %d", paths.Database, v)
		}
		n, err := s.ReplaceInsurance(cmd.Context(), t)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Loaded %d rows into table %q (%s)\n", n, store.TableName, paths.Database)
		return nil
	},
}

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Run the KPI queries against the SQLite database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := resolvePaths()
		format := kpiFormat()
		if !kpi.ValidFormat(format) {
			return fmt.Errorf("%w: %q", kpi.ErrFormat, format)
		}
		if err := requireFile(paths.Database, "run `healthrisk load` first"); err != nil {
			return err
		}
		logger.Step("kpi", paths.Database, "")
		s, err := store.Open(paths.Database)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		n, err := s.Count(cmd.Context())
		if err != nil {
			return err
		}
		if n == 0 {
			logger.Warnf("table %s is empty", store.TableName)
		}
		results, err := kpi.RunAll(cmd.Context(), s.DB())
		if err != nil {
			return err
		}
		return kpi.Render(cmd.OutOrStdout(), results, format)
	},
}

var insightsFromDB bool

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Print the key insights computed from the cleaned CSV (or the database with --from-db)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := resolvePaths()
		var t *dataset.Table
		var err error
		if insightsFromDB {
			t, err = loadStored(cmd, paths.Database)
		} else {
			t, err = loadCleaned(paths.Clean)
		}
		if err != nil {
			return err
		}
		pipeline.PrintInsights(cmd.OutOrStdout(), analysis.Insights(t))
		return nil
	},
}

func loadCleaned(path string) (*dataset.Table, error) {
	if err := requireFile(path, "run `healthrisk clean` first"); err != nil {
		return nil, err
	}
	t, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	if d := dataset.Duplicates(t); d > 0 {
		logger.Warnf("%s still has %d duplicate rows; run `healthrisk clean`", path, d)
	}
	return t, nil
}

// loadStored reads the insurance table back out of the database.
func loadStored(cmd *cobra.Command, path string) (*dataset.Table, error) {
	if err := requireFile(path, "run `healthrisk load` first"); err != nil {
		return nil, err
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Close() }()
	return s.LoadTable(cmd.Context())
}

func init() {
	rootCmd.AddCommand(cleanCmd, plotCmd, loadCmd, kpiCmd, insightsCmd)

	addRawFlag(cleanCmd)
	addCleanFlag(cleanCmd)

	addCleanFlag(plotCmd)
	addDashboardFlag(plotCmd)

	addCleanFlag(loadCmd)
	addDBFlag(loadCmd)

	addDBFlag(kpiCmd)
	addFormatFlag(kpiCmd)

	addCleanFlag(insightsCmd)
	addDBFlag(insightsCmd)
	insightsCmd.Flags().BoolVar(&insightsFromDB, "from-db", false, "read the insurance table from the database instead of the cleaned CSV")
}
