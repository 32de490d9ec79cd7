package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/foospace/sprintsync/internal/config"
	"github.com/foospace/sprintsync/internal/logging"
	_ "github.com/foospace/sprintsync/internal/notion"
	"github.com/foospace/sprintsync/internal/telemetry"
)

var (
	cfgFile     string
	envFiles    []string
	jsonOutput  bool
	verboseFlag bool

	appCfg     *config.Config
	logger     *slog.Logger
	logCloser  io.Closer
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./sprintsync.yaml, $HOME/.config/sprintsync/sprintsync.yaml)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Load variables from these .env files (default: .env if present)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")

	rootCmd.AddGroup(&cobra.Group{ID: "sync", Title: "Sync:"})
	rootCmd.AddGroup(&cobra.Group{ID: "setup", Title: "Setup & Configuration:"})
}

var rootCmd = &cobra.Command{
	Use:   "sprintsync",
	Short: "sprintsync - Notion sprint data to warehouse tables",
	Long: `Reads sprints and their tasks from Notion databases, reshapes them into
per-assignee task rows and completed-task rows, and replaces each sprint's
partition in the warehouse.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("sprintsync version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		logging.SetVerbose(verboseFlag)

		if cmd.Name() == "version" {
			return nil
		}
		if err := config.LoadDotEnv(envFiles...); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}

		var err error
		appCfg, err = config.Load(config.Options{File: cfgFile})
		if err != nil {
			return err
		}
		logger, logCloser, err = logging.New(appCfg.Log)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		slog.SetDefault(logger)

		if err := telemetry.Init(rootCtx, appCfg.Telemetry, telemetry.Service{
			Name:         "sprintsync",
			Version:      Version,
			Source:       appCfg.Source,
			Warehouse:    appCfg.Warehouse.Driver,
			Environments: appCfg.EnvironmentNames(),
		}); err != nil {
			logger.Warn("telemetry disabled", "error", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)
		if logCloser != nil {
			_ = logCloser.Close()
		}
		if rootCancel != nil {
			rootCancel()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
