package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	app "github.com/okian/peloton/internal/app"
)

// peloton-admin seed
func Seed() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the built-in sample season and update ratings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				report, err := svc.SeedSampleData(ctx)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d races, %d riders touched, %d already rated\n",
					report.Races, report.Riders, report.Skipped)
				for _, failure := range report.Failures {
					fmt.Fprintf(cmd.OutOrStdout(), "  failed %s: %v\n", failure.RaceName, failure.Err)
				}
				return nil
			})
		},
	}
}
