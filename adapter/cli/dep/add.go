package dep

import (
	"fmt"

	"github.com/felixgeelhaar/taskgraph/adapter/cli"
	"github.com/felixgeelhaar/taskgraph/internal/graph/application/services"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	depType     string
	description string
)

var addCmd = &cobra.Command{
	Use:   "add [dependent-id] [prerequisite-id]",
	Short: "Make one task wait for another",
	Long: `Make the dependent task wait for the prerequisite.

Examples:
  taskgraph dep add <deploy-id> <test-id>
  taskgraph dep add <review-id> <draft-id> --type start_to_start`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		dependent, err := cli.ParseID(args[0], "dependent")
		if err != nil {
			return err
		}
		prerequisite, err := cli.ParseID(args[1], "prerequisite")
		if err != nil {
			return err
		}

		e, err := app.Engine.Dependencies().AddDependency(cmd.Context(), app.CurrentUserID, services.AddDependencyInput{
			DependentID:    dependent,
			PrerequisiteID: prerequisite,
			Type:           depType,
			Description:    description,
		})
		if err != nil {
			return cli.Translate("add dependency", err)
		}
		cli.PrintEdge(cmd.OutOrStdout(), e)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update [dependency-id]",
	Short: "Change the type or description of a dependency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		edgeID, err := cli.ParseID(args[0], "dependency")
		if err != nil {
			return err
		}

		e, err := app.Engine.Dependencies().UpdateDependency(cmd.Context(), app.CurrentUserID, edgeID, depType, description)
		if err != nil {
			return cli.Translate("update dependency", err)
		}
		cli.PrintEdge(cmd.OutOrStdout(), e)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove [dependency-id]...",
	Aliases: []string{"rm"},
	Short:   "Remove dependencies",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			edgeID, err := cli.ParseID(args[0], "dependency")
			if err != nil {
				return err
			}
			removed, err := app.Engine.Dependencies().RemoveDependency(cmd.Context(), app.CurrentUserID, edgeID)
			if err != nil {
				return cli.Translate("remove dependency", err)
			}
			printRemoved(cmd, edgeID.String(), removed)
			return nil
		}

		ids := make([]uuid.UUID, 0, len(args))
		for _, arg := range args {
			id, err := cli.ParseID(arg, "dependency")
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		var failed int
		for _, r := range app.Engine.Dependencies().RemoveMany(cmd.Context(), app.CurrentUserID, ids) {
			if r.Err != nil {
				failed++
				fmt.Fprintf(out, "%s  %v\n", r.EdgeID, cli.Translate("remove dependency", r.Err))
				continue
			}
			printRemoved(cmd, r.EdgeID.String(), r.Removed)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d removals failed", failed, len(ids))
		}
		return nil
	},
}

func printRemoved(cmd *cobra.Command, id string, removed bool) {
	if removed {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  removed\n", id)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  not found\n", id)
	}
}

func init() {
	for _, c := range []*cobra.Command{addCmd, updateCmd} {
		c.Flags().StringVarP(&depType, "type", "t", "", "finish_to_start (default), start_to_start, finish_to_finish or start_to_finish")
		c.Flags().StringVarP(&description, "description", "d", "", "why the dependency exists")
	}
}
