package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	app "github.com/okian/peloton/internal/app"
)

// peloton-admin update
func Update() *cobra.Command {
	return &cobra.Command{
		Use:   "update { race-id }",
		Short: "Run the rating update for a single race synchronously",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				summary, err := svc.UpdateRatingsNow(ctx, args[0])
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "updated %d riders for race %s\n",
					summary.Updated, args[0])
				return nil
			})
		},
	}
}
