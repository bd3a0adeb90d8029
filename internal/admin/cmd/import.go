package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	app "github.com/okian/peloton/internal/app"
	"github.com/okian/peloton/internal/ingest"
)

// peloton-admin import
func Import() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import riders, races, or results from CSV files",
		Args:  cobra.NoArgs,
	}

	importCmd.AddCommand(importSub("riders",
		"Import riders from a CSV file (name, team, country)",
		func(ctx context.Context, svc *app.Service, r io.Reader) (ingest.Report, error) {
			return svc.ImportRidersCSV(ctx, r)
		}))
	importCmd.AddCommand(importSub("races",
		"Import races from a CSV file (name, date, category, template, country, season)",
		func(ctx context.Context, svc *app.Service, r io.Reader) (ingest.Report, error) {
			return svc.ImportRacesCSV(ctx, r)
		}))
	importCmd.AddCommand(importSub("results",
		"Import race results from a CSV file (race_name, rider_name, position, ...)",
		func(ctx context.Context, svc *app.Service, r io.Reader) (ingest.Report, error) {
			return svc.ImportResultsCSV(ctx, r)
		}))

	return importCmd
}

func importSub(name, short string, apply func(context.Context, *app.Service, io.Reader) (ingest.Report, error)) *cobra.Command {
	return &cobra.Command{
		Use:   name + " { file.csv }",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer file.Close()

				report, err := apply(ctx, svc, file)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d rows\n",
					report.Imported, report.Rows)
				for _, rowErr := range report.Errors {
					fmt.Fprintf(cmd.OutOrStdout(), "  %v\n", rowErr)
				}
				return nil
			})
		},
	}
}
