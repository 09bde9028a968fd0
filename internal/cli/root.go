// Package cli implements the folder-albums command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"folder-albums/internal/config"
	"folder-albums/internal/logging"
)

// Execute runs the command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := New().ExecuteContext(ctx); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}

// New returns the root command.
func New() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "folder-albums [root_path] [api_url] [api_key]",
		Short: "Create Immich albums from the folders of external libraries",
		Long: `folder-albums creates albums on an Immich server from the folder structure
of external libraries. Album names are derived from the folder names, and
.albumprops files can set descriptions, thumbnails, sharing and more.

Every setting can be given as flag, as environment variable with the upper
case key name (ROOT_PATH, API_URL, API_KEY, ...) or in a YAML config file.`,
		Args: cobra.MaximumNArgs(3),

		SilenceUsage: true,
		// The error is logged by Execute.
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags(), args)
			if err != nil {
				return err
			}
			if err := logging.Setup(cfg.LogLevel, cmd.ErrOrStderr()); err != nil {
				return err
			}
			report, err := Run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if n := len(report.Failed); n > 0 {
				return fmt.Errorf("%d albums failed", n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file (default $XDG_CONFIG_HOME/folder-albums/config.yaml)")
	config.RegisterFlags(cmd.Flags())
	return cmd
}
