package task

import (
	"fmt"

	"github.com/felixgeelhaar/taskgraph/adapter/cli"
	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete [task-id]",
	Short: "Mark a task as complete",
	Long: `Mark a task as complete by its ID. Tasks depending on it may become ready.

Examples:
  taskgraph task complete 550e8400-e29b-41d4-a716-446655440000`,
	Aliases: []string{"done"},
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

		if _, err := app.Engine.Registry().Complete(cmd.Context(), app.CurrentUserID, taskID); err != nil {
			return cli.Translate("complete task", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task completed: %s\n", taskID)
		return nil
	},
}

var reopenCmd = &cobra.Command{
	Use:   "reopen [task-id]",
	Short: "Mark a completed task as open again",
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

		if _, err := app.Engine.Registry().Reopen(cmd.Context(), app.CurrentUserID, taskID); err != nil {
			return cli.Translate("reopen task", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task reopened: %s\n", taskID)
		return nil
	},
}
