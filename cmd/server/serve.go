package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/woimport/internal/core"
	"github.com/JonMunkholm/woimport/internal/store"
	"github.com/JonMunkholm/woimport/internal/store/migrations"
	"github.com/JonMunkholm/woimport/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the import scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		slog.Info("configuration loaded",
			"port", cfg.Server.Port,
			"db_max_conns", cfg.Database.MaxConns,
			"drop_provider", cfg.Drop.Provider,
			"scheduler_enabled", cfg.Scheduler.Enabled,
			"tick_interval", cfg.Scheduler.TickInterval,
		)

		ctx := context.Background()
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		if cfg.Database.AutoMigrate {
			if err := migrations.Up(ctx, pool); err != nil {
				return err
			}
		}

		drop, err := newDropLocation(cfg.Drop)
		if err != nil {
			return err
		}

		pg := store.NewPostgresStore(pool)
		service, err := core.NewService(core.Deps{
			Schedules: pg,
			Runs:      pg,
			Drop:      drop,
			Sink:      store.NewWorkOrderSink(pool),
			Clock:     core.SystemClock{Jitter: cfg.Scheduler.JitterStdev},
		}, core.ServiceConfig{
			Executor: core.ExecutorConfig{
				ServiceTypes: core.ServiceTypes{
					Codes:   cfg.Import.ServiceTypes,
					Default: cfg.Import.DefaultServiceType,
				},
				MaxFileSize: cfg.Import.MaxFileSize,
				RunTimeout:  cfg.Import.RunTimeout,
			},
			DefaultDelimiter:   cfg.Import.DefaultDelimiter,
			PreviewLimit:       cfg.Import.PreviewLimit,
			MaxConcurrentAdHoc: cfg.Import.MaxConcurrentAdHoc,
			AdHocWait:          cfg.Import.AdHocWait,
		})
		if err != nil {
			return err
		}

		var scheduler *core.Scheduler
		if cfg.Scheduler.Enabled {
			scheduler = service.NewScheduler(core.SchedulerConfig{
				TickInterval:  cfg.Scheduler.TickInterval,
				MaxConcurrent: cfg.Scheduler.MaxConcurrentRuns,
			})
			scheduler.Start(ctx)
		} else {
			slog.Info("scheduler disabled; only manual runs will execute")
		}

		server := web.NewServer(service, web.Options{
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.IdleTimeout,
			RequestTimeout: cfg.Server.RequestTimeout,
			MaxUploadSize:  cfg.Import.MaxFileSize,
			TrustedProxies: cfg.Server.TrustedProxies,
			Ping:           pool.Ping,
		})

		// Graceful shutdown
		done := make(chan struct{})
		go func() {
			defer close(done)
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			slog.Info("shutting down...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			// Stop polling; no new scheduled runs start after this.
			if scheduler != nil {
				scheduler.Stop()
			}

			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown error", "error", err)
			}

			// Wait for active runs to complete (with timeout)
			if active := service.ActiveRuns(); active > 0 {
				slog.Info("waiting for import runs to complete", "active", active)
				if err := service.WaitForRuns(shutdownCtx); err != nil {
					slog.Warn("import runs did not complete in time", "error", err)
				} else {
					slog.Info("all import runs completed")
				}
			}
		}()

		slog.Info("server starting", "addr", cfg.Server.Addr())
		if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		<-done
		slog.Info("server stopped")
		return nil
	},
}
