// Package cmd implements the peloton-admin command tree. Every
// subcommand builds a full service from the environment configuration,
// performs its work against the configured store, and shuts down.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	app "github.com/okian/peloton/internal/app"
	"github.com/okian/peloton/internal/config"
	"github.com/okian/peloton/pkg/logger"
)

func Root() *cobra.Command {
	root := &cobra.Command{
		Use:  "peloton-admin",
		Args: cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			if cmd.Flag("quiet").Changed {
				_ = logger.SetLevelString("error")
			}
			return nil
		},
	}

	// global flags
	root.PersistentFlags().BoolP("help", "h", false, "Show Help Information")
	root.PersistentFlags().BoolP("quiet", "q", false, "Only Log Errors")

	// Register the various commands.
	root.AddCommand(Seed())
	root.AddCommand(Import())
	root.AddCommand(Update())
	root.AddCommand(Rankings())

	return root
}

// withService loads configuration, starts a service, invokes fn, and
// stops the service again. Used by every subcommand.
func withService(ctx context.Context, fn func(context.Context, *app.Service) error) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	svc := app.New(app.WithConfig(cfg), app.WithLogger(logger.Get().Named("admin")))
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	return fn(ctx, svc)
}
