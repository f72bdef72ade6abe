package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/healthrisk-cli/internal/config"
	"github.com/KaramelBytes/healthrisk-cli/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile      string
	debug        bool
	flagBasePath string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "healthrisk",
	Short: "healthrisk: insurance cost EDA, charts and KPI reporting",
	Long: `healthrisk loads the medical insurance dataset, removes duplicate rows, normalises
column names, renders a dashboard of charts, loads the cleaned table into SQLite
and prints the KPI queries.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization cycle
	// (loadConfig references rootCmd).
	rootCmd.PersistentPreRunE = loadConfig
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.healthrisk/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagBasePath, "base-path", "", "directory relative data paths are resolved against (overrides config)")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	// Apply CLI overrides if provided
	if rootCmd.PersistentFlags().Changed("base-path") && flagBasePath != "" {
		cfg.BasePath = flagBasePath
	}
	logger.SetOutput(cmd.ErrOrStderr())
	if debug {
		logger.SetLevel("debug")
	} else {
		logger.SetLevel(cfg.LogLevel)
	}
	logger.Debugf("config loaded: base_path=%s", cfg.BasePath)
	return nil
}
