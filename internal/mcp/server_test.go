// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Drives the handlers directly against a local store and the in-memory remote.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harperreed/fitlog/internal/entitlement"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/remote/remotetest"
	"github.com/harperreed/fitlog/internal/router"
	"github.com/harperreed/fitlog/internal/storage"
)

type testEnv struct {
	server *Server
	db     *storage.DB
	remote *remotetest.Store
}

// setupServer builds a server for user u1 on the given tier.
func setupServer(t *testing.T, tier string) *testEnv {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "fitlog.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	remote := remotetest.New()
	if tier != "" {
		remote.SetTier("u1", tier)
	}

	resolver := entitlement.NewResolver(remote, nil)
	resolver.LoadSubscription(context.Background(), "u1")

	server, err := NewServer(router.New(db, remote), resolver, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return &testEnv{server: server, db: db, remote: remote}
}

func TestNewServer(t *testing.T) {
	env := setupServer(t, "")

	if env.server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if env.server.router == nil {
		t.Error("Expected non-nil router")
	}
	if env.server.snapshot().Tier != models.TierFree {
		t.Errorf("tier = %s, want free", env.server.snapshot().Tier)
	}
}

func TestHandleSaveWorkoutSession(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   saveWorkoutSessionInput
		wantErr bool
	}{
		{name: "minimal", input: saveWorkoutSessionInput{RoutineID: "push"}},
		{
			name: "full",
			input: saveWorkoutSessionInput{
				RoutineID: "pull",
				StartTime: "2026-03-01T07:00:00Z",
				EndTime:   "2026-03-01T08:10:00Z",
				Notes:     "felt strong",
				Rating:    4,
			},
		},
		{name: "missing routine", input: saveWorkoutSessionInput{}, wantErr: true},
		{name: "bad start time", input: saveWorkoutSessionInput{RoutineID: "push", StartTime: "yesterday"}, wantErr: true},
		{name: "bad rating", input: saveWorkoutSessionInput{RoutineID: "push", Rating: 9}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupServer(t, "")
			_, out, err := env.server.handleSaveWorkoutSession(ctx, nil, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.ID == "" {
				t.Error("expected ID in output")
			}
			if !strings.Contains(out.Message, tt.input.RoutineID) {
				t.Errorf("message %q does not mention routine", out.Message)
			}
		})
	}
}

func TestSaveSessionRoutesByTier(t *testing.T) {
	ctx := context.Background()

	env := setupServer(t, "pro")
	_, out, err := env.server.handleSaveWorkoutSession(ctx, nil, saveWorkoutSessionInput{RoutineID: "legs"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !env.remote.Has("u1", models.FamilyWorkoutSession, out.ID) {
		t.Error("expected session in remote store")
	}

	local, err := env.db.ListWorkoutSessions(ctx, storage.SessionListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(local) != 0 {
		t.Errorf("local sessions = %d, want 0", len(local))
	}
}

func TestHandleSaveExerciseLog(t *testing.T) {
	env := setupServer(t, "")
	ctx := context.Background()

	_, sess, err := env.server.handleSaveWorkoutSession(ctx, nil, saveWorkoutSessionInput{RoutineID: "push"})
	if err != nil {
		t.Fatal(err)
	}

	_, out, err := env.server.handleSaveExerciseLog(ctx, nil, saveExerciseLogInput{
		SessionID:      sess.ID,
		ExerciseID:     "bench",
		OrderPerformed: 1,
		Reps:           []int{5, 5, 5},
		WeightsKg:      []float64{100, 100, 100},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.Message, "1500.0 kg") {
		t.Errorf("message = %q, want volume 1500.0 kg", out.Message)
	}

	_, _, err = env.server.handleSaveExerciseLog(ctx, nil, saveExerciseLogInput{
		SessionID:  sess.ID,
		ExerciseID: "bench",
		Reps:       []int{5, 5},
		WeightsKg:  []float64{100},
	})
	if err == nil {
		t.Error("expected error for mismatched sets")
	}

	_, _, err = env.server.handleSaveExerciseLog(ctx, nil, saveExerciseLogInput{
		SessionID:  "missing",
		ExerciseID: "bench",
	})
	if err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestHandleListExerciseLogs(t *testing.T) {
	env := setupServer(t, "")
	ctx := context.Background()

	_, _, err := env.server.handleListExerciseLogs(ctx, nil, listExerciseLogsInput{})
	if err != nil {
		t.Fatal(err)
	}

	_, sess, _ := env.server.handleSaveWorkoutSession(ctx, nil, saveWorkoutSessionInput{RoutineID: "push"})
	for i := 1; i <= 2; i++ {
		_, _, err := env.server.handleSaveExerciseLog(ctx, nil, saveExerciseLogInput{
			SessionID: sess.ID, ExerciseID: "dip", OrderPerformed: i,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	_, out, err := env.server.handleListExerciseLogs(ctx, nil, listExerciseLogsInput{SessionID: sess.ID})
	if err != nil {
		t.Fatal(err)
	}
	logs, ok := out.([]*models.ExerciseLog)
	if !ok {
		t.Fatalf("output type = %T", out)
	}
	if len(logs) != 2 {
		t.Errorf("logs = %d, want 2", len(logs))
	}
}

func TestHandleListWorkoutSessions(t *testing.T) {
	env := setupServer(t, "")
	ctx := context.Background()

	_, out, err := env.server.handleListWorkoutSessions(ctx, nil, listWorkoutSessionsInput{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out.(map[string]interface{}); !ok {
		t.Errorf("empty list should return a message, got %T", out)
	}

	for _, routine := range []string{"push", "pull", "push"} {
		if _, _, err := env.server.handleSaveWorkoutSession(ctx, nil, saveWorkoutSessionInput{RoutineID: routine}); err != nil {
			t.Fatal(err)
		}
	}

	_, out, err = env.server.handleListWorkoutSessions(ctx, nil, listWorkoutSessionsInput{RoutineID: "push"})
	if err != nil {
		t.Fatal(err)
	}
	sessions := out.([]*models.WorkoutSession)
	if len(sessions) != 2 {
		t.Errorf("sessions = %d, want 2", len(sessions))
	}

	_, out, _ = env.server.handleListWorkoutSessions(ctx, nil, listWorkoutSessionsInput{Limit: 1})
	if got := len(out.([]*models.WorkoutSession)); got != 1 {
		t.Errorf("limited sessions = %d, want 1", got)
	}
}

func TestHandleProgress(t *testing.T) {
	env := setupServer(t, "")
	ctx := context.Background()

	_, out, err := env.server.handleSaveProgress(ctx, nil, saveProgressInput{MetricType: "weight", Value: 80.4, RecordDate: "2026-02-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.Message, "kg") {
		t.Errorf("message = %q, want default unit", out.Message)
	}

	if _, _, err := env.server.handleSaveProgress(ctx, nil, saveProgressInput{MetricType: "vo2max", Value: 50}); err == nil {
		t.Error("expected error for custom metric without unit")
	}
	if _, _, err := env.server.handleSaveProgress(ctx, nil, saveProgressInput{MetricType: "vo2max", Value: 50, Unit: "ml/kg/min"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	_, list, err := env.server.handleListProgress(ctx, nil, listProgressInput{MetricType: "weight"})
	if err != nil {
		t.Fatal(err)
	}
	points := list.([]*models.ProgressTracking)
	if len(points) != 1 || points[0].Value != 80.4 {
		t.Errorf("unexpected progress list: %+v", points)
	}
}

func TestHandleSyncToCloud(t *testing.T) {
	env := setupServer(t, "")
	ctx := context.Background()

	for range 3 {
		if _, _, err := env.server.handleSaveProgress(ctx, nil, saveProgressInput{MetricType: "weight", Value: 80}); err != nil {
			t.Fatal(err)
		}
	}

	if _, _, err := env.server.handleSyncToCloud(ctx, nil, emptyInput{}); err == nil {
		t.Fatal("expected error syncing on the free tier")
	}

	env.remote.SetTier("u1", "premium")
	_, plan, err := env.server.handleRefreshPlan(ctx, nil, emptyInput{})
	if err != nil {
		t.Fatal(err)
	}
	if plan.Tier != "premium" || !plan.Cloud {
		t.Errorf("plan = %+v, want premium cloud", plan)
	}

	_, out, err := env.server.handleSyncToCloud(ctx, nil, emptyInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Synced != 3 || out.Failed != 0 {
		t.Errorf("sync = %+v, want 3 synced", out)
	}
	if n := env.remote.Count("u1", models.FamilyProgressTracking); n != 3 {
		t.Errorf("remote progress = %d, want 3", n)
	}
}

func TestHandleSyncToCloudReportsRowErrors(t *testing.T) {
	env := setupServer(t, "")
	ctx := context.Background()

	_, saved, err := env.server.handleSaveProgress(ctx, nil, saveProgressInput{MetricType: "weight", Value: 80})
	if err != nil {
		t.Fatal(err)
	}

	env.remote.SetTier("u1", "pro")
	env.server.resolver.Refresh(ctx)
	env.remote.FailSave(saved.ID, storage.NewRemoteError(storage.RemoteTransient, "progress_tracking", "insert", errors.New("timeout")))

	_, out, err := env.server.handleSyncToCloud(ctx, nil, emptyInput{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Failed != 1 || len(out.Errors) != 1 {
		t.Errorf("sync = %+v, want one failure", out)
	}
}

func TestHandleSyncStatus(t *testing.T) {
	env := setupServer(t, "")
	ctx := context.Background()

	if _, _, err := env.server.handleSaveWorkoutSession(ctx, nil, saveWorkoutSessionInput{RoutineID: "push"}); err != nil {
		t.Fatal(err)
	}

	_, out, err := env.server.handleSyncStatus(ctx, nil, emptyInput{})
	if err != nil {
		t.Fatal(err)
	}
	st := out.(router.SyncStatus)
	if st.UnsyncedCount != 1 {
		t.Errorf("unsynced = %d, want 1", st.UnsyncedCount)
	}
	if !st.LocalStorageEnabled || st.CanSyncToCloud {
		t.Errorf("free tier status = %+v", st)
	}
}

func TestStatusResource(t *testing.T) {
	env := setupServer(t, "pro")
	ctx := context.Background()

	result, err := env.server.handleStatusResource(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Contents) != 1 || result.Contents[0].URI != statusURI {
		t.Fatalf("unexpected contents: %+v", result.Contents)
	}

	var st router.SyncStatus
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &st); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if st.Tier != models.TierPro || !st.CanSyncToCloud || !st.IsOnline {
		t.Errorf("status = %+v", st)
	}
}

func TestRecentResource(t *testing.T) {
	env := setupServer(t, "")
	ctx := context.Background()

	if _, _, err := env.server.handleSaveProgress(ctx, nil, saveProgressInput{MetricType: "waist", Value: 84}); err != nil {
		t.Fatal(err)
	}

	result, err := env.server.handleRecentResource(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &data); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	counts := data["counts"].(map[string]interface{})
	if counts["progress"].(float64) != 1 {
		t.Errorf("progress count = %v, want 1", counts["progress"])
	}
}
