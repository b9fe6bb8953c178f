// ABOUTME: MCP tool implementations for fitlog.
// ABOUTME: Save/list for each entity family plus sync, status and plan refresh.
package mcp

import (
	"context"
	"fmt"

	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultListLimit = 20

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "save_workout_session",
		Description: "Log a completed workout session for a routine",
	}, s.handleSaveWorkoutSession)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_workout_sessions",
		Description: "List recent workout sessions, optionally for one routine",
	}, s.handleListWorkoutSessions)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "save_exercise_log",
		Description: "Log the sets performed for one exercise in a session",
	}, s.handleSaveExerciseLog)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_exercise_logs",
		Description: "List exercise logs, optionally for one session",
	}, s.handleListExerciseLogs)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "save_progress",
		Description: "Record a progress measurement (weight, body_fat, waist, ...)",
	}, s.handleSaveProgress)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_progress",
		Description: "List progress measurements, optionally for one metric type",
	}, s.handleListProgress)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "sync_to_cloud",
		Description: "Upload every unsynced on-device record to the cloud (paid plans only)",
	}, s.handleSyncToCloud)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "sync_status",
		Description: "Show connectivity, plan and the number of unsynced records",
	}, s.handleSyncStatus)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "refresh_plan",
		Description: "Re-check the subscription plan, e.g. after an upgrade",
	}, s.handleRefreshPlan)
}

// Tool input/output types

type saveWorkoutSessionInput struct {
	RoutineID string `json:"routine_id" jsonschema:"Routine the session followed"`
	StartTime string `json:"start_time,omitempty" jsonschema:"Start time (ISO 8601), defaults to now"`
	EndTime   string `json:"end_time,omitempty" jsonschema:"End time (ISO 8601)"`
	Notes     string `json:"notes,omitempty" jsonschema:"Optional notes"`
	Rating    int    `json:"rating,omitempty" jsonschema:"Rating from 1 to 5"`
}

type savedOutput struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type listWorkoutSessionsInput struct {
	RoutineID string `json:"routine_id,omitempty" jsonschema:"Filter by routine"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type saveExerciseLogInput struct {
	SessionID      string    `json:"session_id" jsonschema:"Session the exercise belongs to"`
	ExerciseID     string    `json:"exercise_id" jsonschema:"Exercise performed"`
	OrderPerformed int       `json:"order_performed" jsonschema:"Position of the exercise within the session"`
	Reps           []int     `json:"reps,omitempty" jsonschema:"Reps for each set"`
	WeightsKg      []float64 `json:"weights_kg,omitempty" jsonschema:"Weight in kg for each set, same length as reps"`
	RestSeconds    []int     `json:"rest_seconds,omitempty" jsonschema:"Rest after each set in seconds"`
	Notes          string    `json:"notes,omitempty" jsonschema:"Optional notes"`
	Skipped        bool      `json:"skipped,omitempty" jsonschema:"Mark the exercise as skipped"`
}

type listExerciseLogsInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"Filter by session"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type saveProgressInput struct {
	MetricType string  `json:"metric_type" jsonschema:"Metric tag (weight, body_fat, waist, chest, arm, thigh or any custom tag)"`
	Value      float64 `json:"value" jsonschema:"The measured value"`
	Unit       string  `json:"unit,omitempty" jsonschema:"Unit, required for custom tags"`
	RecordDate string  `json:"record_date,omitempty" jsonschema:"Date (YYYY-MM-DD), defaults to today"`
	Notes      string  `json:"notes,omitempty" jsonschema:"Optional notes"`
}

type listProgressInput struct {
	MetricType string `json:"metric_type,omitempty" jsonschema:"Filter by metric type"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type emptyInput struct{}

type syncOutput struct {
	Synced  int      `json:"synced"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
	Message string   `json:"message"`
}

type planOutput struct {
	Tier    string `json:"tier"`
	Cloud   bool   `json:"cloud"`
	Message string `json:"message"`
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}

// Tool handlers

func (s *Server) handleSaveWorkoutSession(ctx context.Context, req *mcp.CallToolRequest, input saveWorkoutSessionInput) (*mcp.CallToolResult, savedOutput, error) {
	sess := models.NewWorkoutSession(input.RoutineID)
	if input.StartTime != "" {
		t, err := models.ParseTimestamp(input.StartTime)
		if err != nil {
			return nil, savedOutput{}, err
		}
		sess.WithStartTime(t)
	}
	if input.EndTime != "" {
		t, err := models.ParseTimestamp(input.EndTime)
		if err != nil {
			return nil, savedOutput{}, err
		}
		sess.WithEndTime(t)
	}
	if input.Notes != "" {
		sess.WithNotes(input.Notes)
	}
	if input.Rating != 0 {
		sess.WithRating(input.Rating)
	}

	id, err := s.router.SaveWorkoutSession(ctx, s.snapshot(), sess)
	if err != nil {
		return nil, savedOutput{}, fmt.Errorf("failed to save workout session: %w", err)
	}

	return nil, savedOutput{
		ID:      id,
		Message: fmt.Sprintf("Logged %s session on %s (ID: %s)", input.RoutineID, sess.SessionDate.Format("2006-01-02"), id),
	}, nil
}

func (s *Server) handleListWorkoutSessions(ctx context.Context, req *mcp.CallToolRequest, input listWorkoutSessionsInput) (*mcp.CallToolResult, any, error) {
	sessions, err := s.router.ListWorkoutSessions(ctx, s.snapshot(), storage.SessionListOptions{
		RoutineID: input.RoutineID,
		Limit:     limitOrDefault(input.Limit),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list workout sessions: %w", err)
	}

	if len(sessions) == 0 {
		return nil, map[string]interface{}{"message": "No workout sessions found."}, nil
	}

	return nil, sessions, nil
}

func (s *Server) handleSaveExerciseLog(ctx context.Context, req *mcp.CallToolRequest, input saveExerciseLogInput) (*mcp.CallToolResult, savedOutput, error) {
	l := models.NewExerciseLog(input.SessionID, input.ExerciseID, input.OrderPerformed).
		WithSets(input.Reps, input.WeightsKg)
	if len(input.RestSeconds) > 0 {
		l.WithRest(input.RestSeconds)
	}
	if input.Notes != "" {
		l.WithNotes(input.Notes)
	}
	if input.Skipped {
		l.MarkSkipped()
	}

	id, err := s.router.SaveExerciseLog(ctx, s.snapshot(), l)
	if err != nil {
		return nil, savedOutput{}, fmt.Errorf("failed to save exercise log: %w", err)
	}

	return nil, savedOutput{
		ID:      id,
		Message: fmt.Sprintf("Logged %d sets of %s, volume %.1f kg (ID: %s)", l.SetsCompleted, input.ExerciseID, l.TotalVolumeKg(), id),
	}, nil
}

func (s *Server) handleListExerciseLogs(ctx context.Context, req *mcp.CallToolRequest, input listExerciseLogsInput) (*mcp.CallToolResult, any, error) {
	logs, err := s.router.ListExerciseLogs(ctx, s.snapshot(), storage.ExerciseLogListOptions{
		SessionID: input.SessionID,
		Limit:     limitOrDefault(input.Limit),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list exercise logs: %w", err)
	}

	if len(logs) == 0 {
		return nil, map[string]interface{}{"message": "No exercise logs found."}, nil
	}

	return nil, logs, nil
}

func (s *Server) handleSaveProgress(ctx context.Context, req *mcp.CallToolRequest, input saveProgressInput) (*mcp.CallToolResult, savedOutput, error) {
	p := models.NewProgressTracking(input.MetricType, input.Value)
	if input.Unit != "" {
		p.WithUnit(input.Unit)
	}
	if input.RecordDate != "" {
		d, err := models.ParseTimestamp(input.RecordDate)
		if err != nil {
			return nil, savedOutput{}, err
		}
		p.WithRecordDate(d)
	}
	if input.Notes != "" {
		p.WithNotes(input.Notes)
	}

	id, err := s.router.SaveProgressTracking(ctx, s.snapshot(), p)
	if err != nil {
		return nil, savedOutput{}, fmt.Errorf("failed to save progress: %w", err)
	}

	return nil, savedOutput{
		ID:      id,
		Message: fmt.Sprintf("Recorded %s: %.2f %s (ID: %s)", p.MetricType, p.Value, p.Unit, id),
	}, nil
}

func (s *Server) handleListProgress(ctx context.Context, req *mcp.CallToolRequest, input listProgressInput) (*mcp.CallToolResult, any, error) {
	points, err := s.router.ListProgressTracking(ctx, s.snapshot(), storage.ProgressListOptions{
		MetricType: input.MetricType,
		Limit:      limitOrDefault(input.Limit),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list progress: %w", err)
	}

	if len(points) == 0 {
		return nil, map[string]interface{}{"message": "No progress entries found."}, nil
	}

	return nil, points, nil
}

func (s *Server) handleSyncToCloud(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, syncOutput, error) {
	sum, err := s.router.SyncLocalDataToCloud(ctx, s.snapshot())
	if err != nil {
		return nil, syncOutput{}, fmt.Errorf("sync failed: %w", err)
	}

	out := syncOutput{
		Synced:  sum.Synced,
		Failed:  sum.Failed,
		Message: fmt.Sprintf("%d synced, %d failed", sum.Synced, sum.Failed),
	}
	for _, e := range sum.Errors {
		out.Errors = append(out.Errors, e.Error())
	}
	return nil, out, nil
}

func (s *Server) handleSyncStatus(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
	st, err := s.router.GetSyncStatus(ctx, s.snapshot())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sync status: %w", err)
	}
	return nil, st, nil
}

func (s *Server) handleRefreshPlan(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, planOutput, error) {
	tier := s.resolver.Refresh(ctx)
	cloud := s.resolver.ShouldUseCloud()

	msg := fmt.Sprintf("Plan: %s. New records are stored on this device.", tier)
	if cloud {
		msg = fmt.Sprintf("Plan: %s. New records are stored in the cloud.", tier)
	}
	return nil, planOutput{Tier: string(tier), Cloud: cloud, Message: msg}, nil
}
