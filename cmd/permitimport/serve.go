package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/willozwi/AppCaccia/internal/export"
	"github.com/willozwi/AppCaccia/internal/ingestion"
	"github.com/willozwi/AppCaccia/internal/middleware"
	"github.com/willozwi/AppCaccia/internal/repository"
	"github.com/willozwi/AppCaccia/internal/sheets"
)

func createServeCmd(a *app) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the import and sheet endpoints over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if migrateFirst {
				if err := runMigrations(a); err != nil {
					return err
				}
			}

			conn, store, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			server := &http.Server{
				Addr:         a.config.HTTP.Addr,
				Handler:      a.router(store, reg, conn.Pool.Ping),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 10 * time.Minute,
				IdleTimeout:  60 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				slog.Info("http server listening", "addr", server.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				slog.Info("shutting down http server")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.HTTP.ShutdownTimeout)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})

			if err := g.Wait(); err != nil {
				return err
			}
			slog.Info("http server exited")
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	return cmd
}

// router wires every HTTP route. WriteTimeout is generous because POST
// /imports runs a whole folder synchronously.
func (a *app) router(store repository.Store, reg *prometheus.Registry, ping func(context.Context) error) http.Handler {
	importService := ingestion.NewService(store, ingestion.Config{
		MaxAttempts: a.config.Import.MaxAttempts,
		BackoffUnit: a.config.Import.BackoffUnit,
		Actor:       a.config.Import.Actor,
	}, ingestion.NewMetrics(reg))
	sheetService := sheets.NewService(store, a.sheetsConfig())

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.LoggingMiddleware)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := ping(req.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	ingestion.RegisterRoutes(r, importService)
	export.RegisterRoutes(r, export.NewService(store.Repositories().Audit))
	sheets.RegisterRoutes(r, sheetService)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   a.config.HTTP.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})
	return corsHandler.Handler(r)
}
