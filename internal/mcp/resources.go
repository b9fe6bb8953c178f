// ABOUTME: MCP resource implementations for fitlog.
// ABOUTME: Provides fitlog://status and fitlog://recent resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/fitlog/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	statusURI = "fitlog://status"
	recentURI = "fitlog://recent"
)

func (s *Server) registerResources() {
	// fitlog://status - plan, connectivity and the on-device backlog
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         statusURI,
		Name:        "Sync Status",
		Description: "Plan, connectivity and the number of records waiting to sync",
		MIMEType:    "application/json",
	}, s.handleStatusResource)

	// fitlog://recent - last few sessions and progress points
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         recentURI,
		Name:        "Recent Training",
		Description: "Last 5 workout sessions and last 10 progress entries",
		MIMEType:    "application/json",
	}, s.handleRecentResource)
}

// Resource handlers

func (s *Server) handleStatusResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	st, err := s.router.GetSyncStatus(ctx, s.snapshot())
	if err != nil {
		return nil, err
	}
	return jsonResource(statusURI, st)
}

func (s *Server) handleRecentResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	ent := s.snapshot()

	sessions, err := s.router.ListWorkoutSessions(ctx, ent, storage.SessionListOptions{Limit: 5})
	if err != nil {
		return nil, fmt.Errorf("failed to list workout sessions: %w", err)
	}

	progress, err := s.router.ListProgressTracking(ctx, ent, storage.ProgressListOptions{Limit: 10})
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	return jsonResource(recentURI, map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"tier":         ent.Tier,
		"sessions":     sessions,
		"progress":     progress,
		"counts": map[string]int{
			"sessions": len(sessions),
			"progress": len(progress),
		},
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
