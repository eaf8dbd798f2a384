package task

import (
	"fmt"

	"github.com/felixgeelhaar/taskgraph/adapter/cli"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [task-id]",
	Short: "Delete a task with its subtree",
	Long: `Delete a task. Its subtasks are deleted with it and every dependency
touching a deleted task is removed.`,
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		taskID, err := cli.ParseID(args[0], "task")
		if err != nil {
			return err
		}

		result, err := app.Engine.DeleteTask(cmd.Context(), app.CurrentUserID, taskID)
		if err != nil {
			return cli.Translate("delete task", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d task(s) and %d dependency(ies)\n",
			len(result.DeactivatedTaskIDs), len(result.RemovedEdgeIDs))
		return nil
	},
}
