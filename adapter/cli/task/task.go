package task

import (
	"github.com/spf13/cobra"
)

// Cmd is the task command group
var Cmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long:  `Add, inspect, complete, reopen and delete tasks of the graph.`,
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(completeCmd)
	Cmd.AddCommand(reopenCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(readyCmd)
}
