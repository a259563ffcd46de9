package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/willozwi/AppCaccia/internal/ingestion"
	"github.com/willozwi/AppCaccia/internal/spreadsheet"
)

func createImportCmd(a *app) *cobra.Command {
	var (
		year  int
		actor string
	)

	cmd := &cobra.Command{
		Use:   "import [folder]",
		Short: "Import every spreadsheet in a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, store, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			service := ingestion.NewService(store, ingestion.Config{
				MaxAttempts: a.config.Import.MaxAttempts,
				BackoffUnit: a.config.Import.BackoffUnit,
				Actor:       a.config.Import.Actor,
			}, nil)

			out := cmd.OutOrStdout()
			outcome, err := service.Run(ctx, ingestion.Request{
				Folder: args[0],
				Year:   year,
				Actor:  actor,
				Progress: func(outcome ingestion.Outcome, file ingestion.FileOutcome) {
					fmt.Fprintf(out, "[%d/%d] %-12s %s\n", outcome.Processed(), outcome.FilesScanned, file.Status, file.FileName)
					for _, warning := range file.Warnings {
						fmt.Fprintf(out, "             warning: %s\n", warning)
					}
				},
			})
			fmt.Fprintln(out, outcome)
			for _, failure := range outcome.Failures {
				fmt.Fprintf(out, "  %s: %s\n", failure.FileName, failure.Message)
			}
			return err
		},
	}

	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "season year of the sheets")
	cmd.Flags().StringVar(&actor, "actor", "", "operator recorded in the audit log (defaults to import.actor)")
	return cmd
}

func createInspectCmd(a *app) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Show what importing one file would write, without touching the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return &spreadsheet.UnreadableFileError{Path: args[0], Err: err}
			}
			defer f.Close()

			service := ingestion.NewService(nil, ingestion.Config{}, nil)
			preview, err := service.Preview(cmd.Context(), args[0], f, year)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(preview)
		},
	}

	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "season year used for identifiers")
	return cmd
}
