package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ciphernotes/shell/internal/infrastructure/server"
	"github.com/ciphernotes/shell/web"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the shell listener",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	addShellFlags(cmd)
	cmd.Flags().String("port", "", "Listen port (PORT)")
	cmd.Flags().String("host", "", "Listen address (HOST)")
	cmd.Flags().Int("api-level", 0, "Platform API level driving storage strategy (PLATFORM_API_LEVEL)")
	cmd.Flags().Bool("dev", false, "Development logging (LOG_DEV)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetString("port")
	}
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("api-level") {
		cfg.Platform.APILevel, _ = flags.GetInt("api-level")
	}
	if flags.Changed("dev") {
		cfg.Logging.Development, _ = flags.GetBool("dev")
	}

	srv, err := server.NewServer(cfg, web.Bundle())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-sigChan:
		fmt.Fprintln(cmd.ErrOrStderr(), "Shutting down gracefully...")
		if err := srv.Close(); err != nil {
			return err
		}
		return <-errChan
	case err := <-errChan:
		if closeErr := srv.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		return err
	}
}
