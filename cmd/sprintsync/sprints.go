package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foospace/sprintsync/internal/server"
	"github.com/foospace/sprintsync/internal/sprint"
	"github.com/foospace/sprintsync/internal/types"
	"github.com/foospace/sprintsync/internal/ui"
)

type sprintRow struct {
	types.Sprint
	WeekStart string `json:"week_start,omitempty"`
	NoMonday  bool   `json:"no_monday,omitempty"`
	Invalid   string `json:"invalid,omitempty"`
}

var sprintsCmd = &cobra.Command{
	Use:     "sprints",
	GroupID: "sync",
	Short:   "List an environment's sprints in processing order",
	Long: `Lists every sprint of the environment's sprint database, ordered by the
number in the sprint name, with the week-start date each would be stamped
with. Nothing is written.`,
	Run: func(cmd *cobra.Command, args []string) {
		env, _ := cmd.Flags().GetString("env")
		runner := server.NewRunner(appCfg, logger)
		sprints, err := runner.ListSprints(rootCtx, server.Request{Env: env})
		if err != nil {
			exitRunError(err)
		}

		rows := make([]sprintRow, 0, len(sprints))
		for _, sp := range sprints {
			row := sprintRow{Sprint: sp}
			if win, err := sprint.ComputeWindow(sp.Name, sp.StartDate, sp.EndDate); err != nil {
				row.Invalid = err.Error()
			} else {
				row.WeekStart = win.WeekStart.Format(types.DateLayout)
				row.NoMonday = win.NoMonday
			}
			rows = append(rows, row)
		}

		if jsonOutput {
			outputJSON(rows)
			return
		}
		if len(rows) == 0 {
			fmt.Println(ui.RenderMuted("No sprints found."))
			return
		}
		for _, r := range rows {
			status := ui.RenderMuted(r.Status)
			if r.Status == types.DefaultCurrentStatus {
				status = ui.RenderAccent(r.Status)
			}
			switch {
			case r.Invalid != "":
				fmt.Printf("%s %-24s %-12s %s\n", ui.RenderFail(ui.IconFail), r.Name, status, ui.RenderFail(r.Invalid))
			case r.NoMonday:
				fmt.Printf("%s %-24s %-12s %s %s\n", ui.RenderWarn(ui.IconWarn), r.Name, status, r.WeekStart, ui.RenderMuted("(no Monday)"))
			default:
				fmt.Printf("%s %-24s %-12s %s\n", ui.RenderPass(ui.IconPass), r.Name, status, r.WeekStart)
			}
		}
	},
}

func init() {
	sprintsCmd.Flags().String("env", "", "Environment name (required)")
	rootCmd.AddCommand(sprintsCmd)
}
