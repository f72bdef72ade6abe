package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/healthrisk-cli/internal/charts"
	"github.com/KaramelBytes/healthrisk-cli/internal/pipeline"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"
)

// Per-command path overrides. Empty means "use the config value".
var (
	flagRaw       string
	flagClean     string
	flagDashboard string
	flagDB        string
	flagFormat    string
)

func addRawFlag(c *cobra.Command) {
	c.Flags().StringVar(&flagRaw, "raw", "", "raw insurance CSV (overrides raw_data)")
}

func addCleanFlag(c *cobra.Command) {
	c.Flags().StringVar(&flagClean, "clean", "", "cleaned CSV (overrides clean_data)")
}

func addDashboardFlag(c *cobra.Command) {
	c.Flags().StringVar(&flagDashboard, "dashboard", "", "chart output directory (overrides dashboard_dir)")
}

func addDBFlag(c *cobra.Command) {
	c.Flags().StringVar(&flagDB, "db", "", "SQLite database file (overrides db_path)")
}

func addFormatFlag(c *cobra.Command) {
	c.Flags().StringVar(&flagFormat, "format", "", "KPI output: table|json|csv|md (overrides kpi_format)")
}

func pick(flagVal, cfgVal string) string {
	if flagVal != "" {
		return flagVal
	}
	return cfgVal
}

// resolvePaths merges flags over config and resolves against base_path.
func resolvePaths() pipeline.Paths {
	return pipeline.Paths{
		Raw:       cfg.Resolve(pick(flagRaw, cfg.RawData)),
		Clean:     cfg.Resolve(pick(flagClean, cfg.CleanData)),
		Dashboard: cfg.Resolve(pick(flagDashboard, cfg.DashboardDir)),
		Database:  cfg.Resolve(pick(flagDB, cfg.DBPath)),
	}
}

func kpiFormat() string {
	return pick(flagFormat, cfg.KPIFormat)
}

func chartOptions() charts.Options {
	return charts.Options{
		Width:  vg.Length(cfg.ChartWidthIn) * vg.Inch,
		Height: vg.Length(cfg.ChartHeightIn) * vg.Inch,
	}
}

func requireFile(path, hint string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%s not found (%s): %w", path, hint, err)
	}
	return nil
}
