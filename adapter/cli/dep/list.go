package dep

import (
	"fmt"

	"github.com/felixgeelhaar/taskgraph/adapter/cli"
	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/spf13/cobra"
)

var showDependents bool

var listCmd = &cobra.Command{
	Use:     "list [task-id]",
	Aliases: []string{"ls"},
	Short:   "List the prerequisites of a task",
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

		deps := app.Engine.Dependencies()
		var edges []*domain.Edge
		if showDependents {
			edges, err = deps.ListDependents(cmd.Context(), app.CurrentUserID, taskID)
		} else {
			edges, err = deps.ListPrerequisites(cmd.Context(), app.CurrentUserID, taskID)
		}
		if err != nil {
			return cli.Translate("list dependencies", err)
		}

		out := cmd.OutOrStdout()
		if len(edges) == 0 {
			fmt.Fprintln(out, "No dependencies.")
			return nil
		}
		for _, e := range edges {
			cli.PrintEdge(out, e)
		}
		return nil
	},
}

var blockingCmd = &cobra.Command{
	Use:   "blocking [task-id]",
	Short: "List the incomplete prerequisites holding a task back",
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

		blockers, err := app.Engine.Dependencies().BlockingPrerequisites(cmd.Context(), app.CurrentUserID, taskID)
		if err != nil {
			return cli.Translate("list blocking prerequisites", err)
		}
		out := cmd.OutOrStdout()
		if len(blockers) == 0 {
			fmt.Fprintln(out, "Nothing is blocking this task.")
			return nil
		}
		for _, t := range blockers {
			cli.PrintTask(out, t)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&showDependents, "dependents", false, "list the tasks waiting on this one instead")
}
