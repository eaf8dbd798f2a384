package task

import (
	"fmt"

	"github.com/felixgeelhaar/taskgraph/adapter/cli"
	"github.com/spf13/cobra"
)

var readyCmd = &cobra.Command{
	Use:   "ready [task-id]",
	Short: "Report whether a task can start",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		taskID, err := cli.ParseID(args[0], "task")
		if err != nil {
			return err
		}

		ready, err := app.Engine.CanTaskStart(cmd.Context(), app.CurrentUserID, taskID)
		if err != nil {
			return cli.Translate("check task", err)
		}
		if ready {
			fmt.Fprintln(cmd.OutOrStdout(), "ready")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "blocked")
		}
		return nil
	},
}
