package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	app "github.com/okian/peloton/internal/app"
)

// peloton-admin rankings
func Rankings() *cobra.Command {
	rankings := &cobra.Command{
		Use:   "rankings",
		Short: "Print the current rankings for a dimension",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dimension, err := cmd.Flags().GetString("dimension")
			if err != nil {
				return err
			}
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}

			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				entries, err := svc.Rankings(ctx, dimension, limit)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "RANK\tNAME\tTEAM\tSCORE")
				for _, entry := range entries {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n",
						entry.Rank, entry.Name, entry.Team, entry.Score)
				}
				return tw.Flush()
			})
		},
	}

	rankings.Flags().StringP("dimension", "d", "", "Dimension To Rank By (empty for overall)")
	rankings.Flags().IntP("limit", "l", 20, "Number Of Entries To Print")

	return rankings
}
