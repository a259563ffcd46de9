package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/willozwi/AppCaccia/internal/export"
)

func createAuditCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Write the newest audit log entries as CSV to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, store, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			summary, err := export.NewService(store.Repositories().Audit).WriteAuditCSV(ctx, cmd.OutOrStdout(), limit)
			if err != nil {
				return err
			}
			slog.Debug("audit export written", "rows", summary.Rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", export.DefaultLimit, "maximum number of entries")
	return cmd
}
