package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServerCmd(rt *env) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if port != "" {
				rt.cfg.Server.Port = port
			}
			app, err := NewApp(ctx, rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer app.Close()

			// Run migrations on startup; seeding follows database.seed
			if err := app.Migrate(ctx, false); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:         ":" + rt.cfg.Server.Port,
				Handler:      app.Handler(),
				ReadTimeout:  rt.cfg.Server.ReadTimeout,
				WriteTimeout: rt.cfg.Server.WriteTimeout,
				IdleTimeout:  rt.cfg.Server.IdleTimeout,
			}

			errc := make(chan error, 1)
			go func() {
				rt.log.WithField("port", rt.cfg.Server.Port).Info("server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			rt.log.Info("shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				rt.log.WithError(err).Error("error during shutdown")
				return err
			}
			rt.log.Info("server stopped gracefully")
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Override server.port")
	return cmd
}
