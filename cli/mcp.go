// ABOUTME: MCP server subcommand
// ABOUTME: Exposes list_connections over stdio using the stored credential
package cli

import (
	"context"

	"github.com/harperreed/connections/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(env *Env, version string) error {
	env.Logger.Info("Starting connections MCP server...")

	// stdout belongs to the protocol, so no browser login here
	connectionHandlers := handlers.NewConnectionHandlers(env.authorizer(nil), env.DB, env.PeopleOptions...)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "connections",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_connections",
		Description: "List every Google contact with their display name and phone numbers, optionally filtered by name",
	}, connectionHandlers.ListConnections)

	return server.Run(context.Background(), &mcp.StdioTransport{})
}
