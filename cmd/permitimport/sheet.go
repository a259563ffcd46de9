package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/willozwi/AppCaccia/internal/sheets"
)

func (a *app) sheetsConfig() sheets.Config {
	return sheets.Config{
		MaxAttempts: a.config.Sheets.MaxAttempts,
		BackoffUnit: a.config.Sheets.BackoffUnit,
	}
}

func createSheetCmd(a *app) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Change the status of a permit sheet",
	}
	cmd.PersistentFlags().StringVar(&actor, "actor", "operator", "operator recorded on the sheet and in the audit log")

	for _, action := range sheets.Actions {
		action := action
		cmd.AddCommand(&cobra.Command{
			Use:   string(action) + " [sheet-number]",
			Short: fmt.Sprintf("Apply %q to a sheet", action),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				conn, store, err := a.connect(ctx)
				if err != nil {
					return err
				}
				defer conn.Close()

				sheet, err := sheets.NewService(store, a.sheetsConfig()).Apply(ctx, args[0], action, actor)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", sheet.SheetNumber, sheet.Status.DisplayName())
				return nil
			},
		})
	}

	return cmd
}

func createStatsCmd(a *app) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count the permit sheets of a year by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, store, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			stats, err := sheets.NewService(store, a.sheetsConfig()).Stats(ctx, year)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "year %d: %d sheets\n", stats.Year, stats.Total)
			fmt.Fprintf(out, "  available  %d\n", stats.Available)
			fmt.Fprintf(out, "  delivered  %d\n", stats.Delivered)
			fmt.Fprintf(out, "  issued     %d\n", stats.Issued)
			fmt.Fprintf(out, "  returned   %d\n", stats.Returned)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "season year")
	return cmd
}
