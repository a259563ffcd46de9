package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/willozwi/AppCaccia/internal/config"
	"github.com/willozwi/AppCaccia/internal/db"
	"github.com/willozwi/AppCaccia/internal/repository"
	"github.com/willozwi/AppCaccia/pkg/logger"
)

// app carries what every subcommand shares.
type app struct {
	configPath string
	config     config.Config
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "permitimport",
		Short:         "Hunting permit spreadsheet import",
		Long:          `Imports folders of hunting-permit spreadsheets into the hunter registry and manages permit sheet status`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.config = cfg
			logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", ".", "directory containing config.yaml")

	rootCmd.AddCommand(createAuditCmd(a))
	rootCmd.AddCommand(createImportCmd(a))
	rootCmd.AddCommand(createInspectCmd(a))
	rootCmd.AddCommand(createMigrateCmd(a))
	rootCmd.AddCommand(createServeCmd(a))
	rootCmd.AddCommand(createSheetCmd(a))
	rootCmd.AddCommand(createStatsCmd(a))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect opens the pool and returns a store over it. The caller closes the
// connection.
func (a *app) connect(ctx context.Context) (*db.Connection, repository.Store, error) {
	conn, err := db.NewConnection(ctx, a.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, repository.NewStore(conn.Pool), nil
}
