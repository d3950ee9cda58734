package cli

import (
	"github.com/spf13/cobra"

	"github.com/layerprof/layerprof/internal/config"
	"github.com/layerprof/layerprof/internal/enable"
)

func newCheckCmd() *cobra.Command {
	var (
		configPath string
		flagPath   string
		clientIP   string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a client would be profiled",
		Long: `Reads the enablement flag resource and reports whether executions from
the given client IP would be profiled, and where their records would be
appended.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if flagPath == "" {
				flagPath = settings.FlagPath
			}

			flag, err := enable.Load(flagPath)
			if err != nil {
				cmd.Printf("disabled: %v\n", err)
				return nil
			}
			if !flag.Matches(clientIP) {
				cmd.Printf("disabled: client %s does not match pattern %q\n", clientIP, flag.IP)
				return nil
			}

			cmd.Printf("enabled for client %s\n", clientIP)
			cmd.Printf("session: %s\n", flag.Name)
			cmd.Printf("records: %s\n", flag.ProfilePath(settings.ProfilesDir))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "settings file (default: $LAYERPROF_CONFIG)")
	cmd.Flags().StringVar(&flagPath, "flag", "", "enablement flag file (default: from settings)")
	cmd.Flags().StringVar(&clientIP, "ip", "127.0.0.1", "client IP to test")

	return cmd
}
