package task

import (
	"fmt"

	"github.com/felixgeelhaar/taskgraph/adapter/cli"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show a task with its structure",
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

		ctx := cmd.Context()
		owner := app.CurrentUserID
		t, err := app.Engine.Registry().Get(ctx, owner, taskID)
		if err != nil {
			return cli.Translate("show task", err)
		}
		depth, err := app.Engine.Hierarchy().ComputeDepth(ctx, owner, taskID)
		if err != nil {
			return cli.Translate("show task", err)
		}
		children, err := app.Engine.Hierarchy().ListChildren(ctx, owner, taskID)
		if err != nil {
			return cli.Translate("show task", err)
		}
		blocking, err := app.Engine.Dependencies().BlockingPrerequisites(ctx, owner, taskID)
		if err != nil {
			return cli.Translate("show task", err)
		}

		out := cmd.OutOrStdout()
		cli.PrintTask(out, t)
		fmt.Fprintf(out, "depth: %d\n", depth)
		fmt.Fprintf(out, "children: %d\n", len(children))
		if len(blocking) == 0 {
			fmt.Fprintln(out, "ready to start")
			return nil
		}
		fmt.Fprintf(out, "blocked by %d task(s):\n", len(blocking))
		for _, b := range blocking {
			fmt.Fprint(out, "  ")
			cli.PrintTask(out, b)
		}
		return nil
	},
}
