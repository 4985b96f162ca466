// ABOUTME: Connections MCP tool handlers
// ABOUTME: Implements the list_connections tool on top of the stored credential
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/harperreed/connections/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/option"
)

type ConnectionHandlers struct {
	authorizer *sync.Authorizer
	db         *sql.DB
	peopleOpts []option.ClientOption
}

func NewConnectionHandlers(authorizer *sync.Authorizer, database *sql.DB, peopleOpts ...option.ClientOption) *ConnectionHandlers {
	return &ConnectionHandlers{
		authorizer: authorizer,
		db:         database,
		peopleOpts: peopleOpts,
	}
}

type ListConnectionsInput struct {
	NameContains string `json:"name_contains,omitempty" jsonschema:"Only return connections whose display name contains this text (case-insensitive)"`
}

type ConnectionOutput struct {
	Name         string   `json:"name"`
	PhoneNumbers []string `json:"phone_numbers,omitempty"`
}

type ListConnectionsOutput struct {
	Connections []ConnectionOutput `json:"connections"`
	Count       int                `json:"count"`
}

func (h *ConnectionHandlers) ListConnections(ctx context.Context, request *mcp.CallToolRequest, input ListConnectionsInput) (*mcp.CallToolResult, ListConnectionsOutput, error) {
	client, err := h.authorizer.Authorize(ctx)
	if err != nil {
		return nil, ListConnectionsOutput{}, fmt.Errorf("not authorized, run 'connections auth' first: %w", err)
	}

	lister, err := sync.NewConnectionsLister(ctx, client, h.peopleOpts...)
	if err != nil {
		return nil, ListConnectionsOutput{}, err
	}

	summaries, err := sync.NewConnectionsRun(h.db, "mcp").List(ctx, lister)
	if err != nil {
		return nil, ListConnectionsOutput{}, fmt.Errorf("failed to list connections: %w", err)
	}

	needle := strings.ToLower(input.NameContains)
	result := ListConnectionsOutput{Connections: []ConnectionOutput{}}
	for _, summary := range summaries {
		if needle != "" && !strings.Contains(strings.ToLower(summary.Name), needle) {
			continue
		}
		result.Connections = append(result.Connections, ConnectionOutput{
			Name:         summary.Name,
			PhoneNumbers: summary.PhoneNumbers,
		})
	}
	result.Count = len(result.Connections)

	return nil, result, nil
}
