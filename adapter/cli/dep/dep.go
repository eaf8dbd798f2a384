// Package dep holds the prerequisite graph commands.
package dep

import (
	"github.com/spf13/cobra"
)

// Cmd is the dependency command group
var Cmd = &cobra.Command{
	Use:     "dep",
	Aliases: []string{"dependency"},
	Short:   "Manage prerequisites between tasks",
	Long: `Link tasks so that a dependent cannot start before its prerequisite
is complete. Links that would create a cycle are rejected.`,
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(removeCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(blockingCmd)
}
