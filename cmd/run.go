package cmd

import (
	"github.com/KaramelBytes/healthrisk-cli/internal/logger"
	"github.com/KaramelBytes/healthrisk-cli/internal/pipeline"
	"github.com/spf13/cobra"
)

var runNoProfile bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analysis: clean, chart, load SQLite and print KPIs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := resolvePaths()
		opt := pipeline.Options{
			Charts:  chartOptions(),
			Format:  kpiFormat(),
			Profile: !runNoProfile,
		}
		logger.Debugf("paths: raw=%s clean=%s dashboard=%s db=%s", paths.Raw, paths.Clean, paths.Dashboard, paths.Database)
		_, err := pipeline.Run(cmd.Context(), paths, opt, cmd.OutOrStdout())
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRawFlag(runCmd)
	addCleanFlag(runCmd)
	addDashboardFlag(runCmd)
	addDBFlag(runCmd)
	addFormatFlag(runCmd)
	runCmd.Flags().BoolVar(&runNoProfile, "no-profile", false, "skip the raw dataset profile")
}
