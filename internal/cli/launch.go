package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ciphernotes/shell/internal/infrastructure/config"
	"github.com/ciphernotes/shell/internal/navigation"
)

func newPolicy(cfg *config.Config) (*navigation.Policy, error) {
	return navigation.NewPolicy(cfg.Shell.LocalHost,
		navigation.WithInternalHosts(cfg.Shell.InternalHosts...),
		navigation.WithIndex(cfg.Shell.IndexDocument),
	)
}

func newLaunchURLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch-url [URL]",
		Short: "Print the URL the browsing surface loads for a deep link",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			policy, err := newPolicy(cfg)
			if err != nil {
				return err
			}

			incoming := ""
			if len(args) == 1 {
				incoming = args[0]
			}
			fmt.Fprintln(cmd.OutOrStdout(), policy.LaunchURL(incoming))
			return nil
		},
	}
	addShellFlags(cmd)
	return cmd
}

func newNavigateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "navigate URL...",
		Short: "Report whether URLs stay in the shell or open externally",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			policy, err := newPolicy(cfg)
			if err != nil {
				return err
			}

			for _, u := range args {
				decision := "internal"
				if policy.ShouldHandleExternally(u) {
					decision = "external"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", decision, u)
			}
			return nil
		},
	}
	addShellFlags(cmd)
	return cmd
}
