package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/foospace/sprintsync/internal/server"
	"github.com/foospace/sprintsync/internal/tracker"
	"github.com/foospace/sprintsync/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Sync sprint tasks for one environment",
	Long: `Runs one sync, the same as a trigger request to 'sprintsync serve'.

In current mode only the sprint whose status is Current is processed. In
backfill mode every sprint up to and including the current one is processed
in sequence-number order.

Exits 1 when the run could not start or any sprint failed.

Examples:
  sprintsync sync --env dti
  sprintsync sync --env dti --mode backfill --department Platform
  sprintsync sync --env dti --dry-run --json`,
	Run: func(cmd *cobra.Command, args []string) {
		env, _ := cmd.Flags().GetString("env")
		mode, _ := cmd.Flags().GetString("mode")
		department, _ := cmd.Flags().GetString("department")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		runner := server.NewRunner(appCfg, logger)
		if !jsonOutput {
			runner.Configure = func(e *tracker.Engine) {
				e.OnMessage = func(msg string) {
					fmt.Fprintln(os.Stderr, ui.RenderMuted(msg))
				}
				e.OnWarning = func(msg string) {
					fmt.Fprintln(os.Stderr, ui.RenderWarn(ui.IconWarn+" "+msg))
				}
			}
		}

		res, err := runner.Run(rootCtx, server.Request{
			Env:        env,
			Mode:       mode,
			Department: department,
			DryRun:     dryRun,
		})
		if err != nil {
			exitRunError(err)
		}

		if jsonOutput {
			outputJSON(syncOutput{Message: res.Message(), Result: res})
		} else {
			ui.WriteSummary(os.Stdout, res)
		}
		if res.Failed() > 0 {
			os.Exit(1)
		}
	},
}

type syncOutput struct {
	Message string             `json:"message"`
	Result  *tracker.RunResult `json:"result"`
}

func init() {
	syncCmd.Flags().String("env", "", "Environment name (required)")
	syncCmd.Flags().String("mode", "current", "Sprint selection: current or backfill")
	syncCmd.Flags().String("department", "", "Department label stamped onto every row (default \"N/A\")")
	syncCmd.Flags().Bool("dry-run", false, "Reshape and report without writing to the warehouse")
	rootCmd.AddCommand(syncCmd)
}
