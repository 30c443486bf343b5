package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	chartermcp "github.com/charterhq/charter/internal/mcp"
)

// newMCPCmd creates the mcp command for running as an MCP server.
func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run as MCP server (stdio transport)",
		Long: `Run charter as a Model Context Protocol (MCP) server over stdio.

This exposes read-only contract operations plus propose as MCP tools,
so an agent can inspect and open contracts. Approval and execution stay
on the CLI with a human.

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "charter": {
        "command": "charter",
        "args": ["mcp"]
      }
    }
  }

Available tools: status, show, list, grants, propose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			server := chartermcp.NewServer(buildVersion(), store)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
