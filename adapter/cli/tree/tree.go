// Package tree holds the containment tree commands.
package tree

import (
	"fmt"

	"github.com/felixgeelhaar/taskgraph/adapter/cli"
	"github.com/spf13/cobra"
)

// Cmd is the tree command group
var Cmd = &cobra.Command{
	Use:   "tree",
	Short: "Organize tasks into subtasks",
}

var setParentCmd = &cobra.Command{
	Use:   "set-parent [task-id] [parent-id]",
	Short: "Move a task under another task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		taskID, err := cli.ParseID(args[0], "task")
		if err != nil {
			return err
		}
		parentID, err := cli.ParseID(args[1], "parent")
		if err != nil {
			return err
		}

		t, err := app.Engine.Hierarchy().SetParent(cmd.Context(), app.CurrentUserID, taskID, parentID)
		if err != nil {
			return cli.Translate("set parent", err)
		}
		cli.PrintTask(cmd.OutOrStdout(), t)
		return nil
	},
}

var clearParentCmd = &cobra.Command{
	Use:   "clear-parent [task-id]",
	Short: "Make a task a top-level task",
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

		t, err := app.Engine.Hierarchy().ClearParent(cmd.Context(), app.CurrentUserID, taskID)
		if err != nil {
			return cli.Translate("clear parent", err)
		}
		cli.PrintTask(cmd.OutOrStdout(), t)
		return nil
	},
}

var childrenCmd = &cobra.Command{
	Use:   "children [task-id]",
	Short: "List the direct subtasks of a task",
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

		children, err := app.Engine.Hierarchy().ListChildren(cmd.Context(), app.CurrentUserID, taskID)
		if err != nil {
			return cli.Translate("list children", err)
		}
		out := cmd.OutOrStdout()
		if len(children) == 0 {
			fmt.Fprintln(out, "No subtasks.")
			return nil
		}
		for _, child := range children {
			cli.PrintTask(out, child)
		}
		return nil
	},
}

var depthCmd = &cobra.Command{
	Use:   "depth [task-id]",
	Short: "Print how deep a task sits in the tree",
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

		depth, err := app.Engine.Hierarchy().ComputeDepth(cmd.Context(), app.CurrentUserID, taskID)
		if err != nil {
			return cli.Translate("compute depth", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), depth)
		return nil
	},
}

func init() {
	Cmd.AddCommand(setParentCmd)
	Cmd.AddCommand(clearParentCmd)
	Cmd.AddCommand(childrenCmd)
	Cmd.AddCommand(depthCmd)
}
