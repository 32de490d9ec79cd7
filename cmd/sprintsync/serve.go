package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/foospace/sprintsync/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "sync",
	Short:   "Run the HTTP sync trigger",
	Long: `Serves the sync trigger over HTTP.

  GET|POST /?env=E&mode=current|backfill&department=D
  GET      /healthz

The trigger replies 200 with a completion message once every selected sprint
has been attempted, 400 for a bad request and 500 for a broken deployment.
Environment definitions in the config file are reloaded when it changes.`,
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = appCfg.Server.Addr()
		}

		srv := server.NewServer(server.NewRunner(appCfg, logger), logger)

		if appCfg.Watch(func(e fsnotify.Event, err error) {
			if err != nil {
				logger.Error("config reload failed", "file", e.Name, "error", err)
				return
			}
			logger.Info("environments reloaded", "file", e.Name, "envs", appCfg.EnvironmentNames())
		}) {
			logger.Info("watching config file", "file", appCfg.ConfigFile())
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", addr, "envs", appCfg.EnvironmentNames())
			errCh <- srv.Start(addr, appCfg.Server.WriteTimeout)
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				exitRunError(fmt.Errorf("server: %w", err))
			}
		case <-rootCtx.Done():
			logger.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("shutdown", "error", err)
			}
		}
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from server.host/server.port, or $PORT)")
	rootCmd.AddCommand(serveCmd)
}
