// Package cli implements the layerprof command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/layerprof/layerprof/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "layerprof",
	Short: "layerprof - per-request execution time attribution",
	Long: `Attributes a request's wall-clock time to host-framework, theme or
extension code and appends per-execution summary records to a shared
profile file.

The profiler itself runs embedded in the host; this CLI covers the
operational edges: checking whether a client would be profiled, and
driving a synthetic execution through the full pipeline.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("layerprof version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Built: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
