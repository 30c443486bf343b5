// Package mcp provides a Model Context Protocol server for charter.
// It exposes contract inspection as MCP tools, plus a single additive
// write tool for proposing new contracts. Approval and execution are
// deliberately not exposed: those must go through a human at the CLI.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/charterhq/charter/internal/contract"
)

// NewServer creates an MCP server with all charter tools registered.
func NewServer(version string, store *contract.FileStore) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "charter",
		Version: version,
	}, nil)
	registerTools(server, store)
	return server
}

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for read-only tools.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

// writeAnnotations returns annotations for write tools (additive, not destructive).
func writeAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
		OpenWorldHint:   boolPtr(false),
	}
}

// registerTools adds all charter tools to the server.
func registerTools(server *mcp.Server, store *contract.FileStore) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "status",
		Description: "Show repository and charter state: repo name, branch, HEAD, " +
			"charter directory status, and contract count.",
		Annotations: readOnlyAnnotations(),
	}, handleStatus(store))

	mcp.AddTool(server, &mcp.Tool{
		Name: "show",
		Description: "Display a single contract by ID, including its state, plan, " +
			"grants, version ledger, and full audit history.",
		Annotations: readOnlyAnnotations(),
	}, handleShow(store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list",
		Description: "List contracts with their states, optionally filtered by state.",
		Annotations: readOnlyAnnotations(),
	}, handleList(store))

	mcp.AddTool(server, &mcp.Tool{
		Name: "grants",
		Description: "Show the control grant gate for a contract: required grants, " +
			"approved grants, and what is still missing.",
		Annotations: readOnlyAnnotations(),
	}, handleGrants(store))

	mcp.AddTool(server, &mcp.Tool{
		Name: "propose",
		Description: "Propose a new contract from an intent, optionally declaring " +
			"required control grants (namespace:permission). The contract starts in " +
			"DRAFT; approval and execution require a human at the CLI.",
		Annotations: writeAnnotations(),
	}, handlePropose(store))
}
