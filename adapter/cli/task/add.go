package task

import (
	"github.com/felixgeelhaar/taskgraph/adapter/cli"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var parentID string

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a task",
	Long: `Add a task, optionally as a subtask of an existing one.

Examples:
  taskgraph task add "Write report"
  taskgraph task add "Draft outline" --parent 550e8400-e29b-41d4-a716-446655440000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		var parent *uuid.UUID
		if parentID != "" {
			id, err := cli.ParseID(parentID, "parent")
			if err != nil {
				return err
			}
			parent = &id
		}

		t, err := app.Engine.Registry().Register(cmd.Context(), app.CurrentUserID, args[0], parent)
		if err != nil {
			return cli.Translate("add task", err)
		}
		cli.PrintTask(cmd.OutOrStdout(), t)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&parentID, "parent", "p", "", "parent task ID")
}
