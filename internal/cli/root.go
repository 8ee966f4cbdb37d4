package cli

import (
	"github.com/spf13/cobra"

	"github.com/ciphernotes/shell/internal/infrastructure/config"
)

// version can be overridden at build time via:
// go build -ldflags "-X github.com/ciphernotes/shell/internal/cli.version=3.0.1"
var version = "3.0.0"

// NewRootCommand builds the command tree. Configuration comes from the
// environment; flags on individual commands override it.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ciphernotes-shell",
		Short:         "Ciphernotes local web shell",
		Long:          "Serves the bundled Ciphernotes web application on its local origin and brokers uploads, exports and permissions for the native host.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newResolveCommand())
	root.AddCommand(newLaunchURLCommand())
	root.AddCommand(newNavigateCommand())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("local-host") {
		cfg.Shell.LocalHost, _ = flags.GetString("local-host")
	}
	if flags.Changed("asset-dir") {
		cfg.Shell.AssetDir, _ = flags.GetString("asset-dir")
	}
	if flags.Changed("internal-host") {
		cfg.Shell.InternalHosts, _ = flags.GetStringSlice("internal-host")
	}
	return cfg, nil
}

func addShellFlags(cmd *cobra.Command) {
	cmd.Flags().String("local-host", "", "Host name of the local origin (LOCAL_HOST)")
	cmd.Flags().String("asset-dir", "", "Serve the bundle from this directory instead of the embedded one (ASSET_DIR)")
	cmd.Flags().StringSlice("internal-host", nil, "Additional host pattern kept inside the shell (INTERNAL_HOSTS)")
}
