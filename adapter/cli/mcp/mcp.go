// Package mcp holds the command that serves the engine to MCP clients.
package mcp

import "github.com/spf13/cobra"

// Cmd is the MCP command group.
var Cmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the graph engine to MCP clients",
}

func init() {
	Cmd.AddCommand(serveCmd)
}
