// ABOUTME: Export of everything held in the local store.
// ABOUTME: Supports JSON (full fidelity) and YAML (progress grouped by metric type).
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/fitlog/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData is the full export format for local data.
type ExportData struct {
	Version      string                     `json:"version" yaml:"version"`
	ExportedAt   time.Time                  `json:"exported_at" yaml:"exported_at"`
	Tool         string                     `json:"tool" yaml:"tool"`
	Sessions     []*models.WorkoutSession   `json:"workout_sessions" yaml:"workout_sessions"`
	ExerciseLogs []*models.ExerciseLog      `json:"exercise_logs" yaml:"exercise_logs"`
	Progress     []*models.ProgressTracking `json:"progress_tracking" yaml:"progress_tracking"`
}

// GetAllData snapshots every local row, synced or not.
func (d *DB) GetAllData(ctx context.Context) (*ExportData, error) {
	sessions, err := d.ListWorkoutSessions(ctx, SessionListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	logs, err := d.ListExerciseLogs(ctx, ExerciseLogListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list exercise logs: %w", err)
	}
	progress, err := d.ListProgressTracking(ctx, ProgressListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	return &ExportData{
		Version:      "1.0",
		ExportedAt:   time.Now().UTC(),
		Tool:         "fitlog",
		Sessions:     sessions,
		ExerciseLogs: logs,
		Progress:     progress,
	}, nil
}

// ExportJSON exports all local data as JSON.
func (d *DB) ExportJSON(ctx context.Context) ([]byte, error) {
	data, err := d.GetAllData(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML exports all local data as YAML, grouping progress by metric type.
func (d *DB) ExportYAML(ctx context.Context) ([]byte, error) {
	data, err := d.GetAllData(ctx)
	if err != nil {
		return nil, err
	}

	yamlData := struct {
		Version      string                         `yaml:"version"`
		ExportedAt   string                         `yaml:"exported_at"`
		Tool         string                         `yaml:"tool"`
		Sessions     []*models.WorkoutSession       `yaml:"workout_sessions"`
		ExerciseLogs []*models.ExerciseLog          `yaml:"exercise_logs"`
		Progress     map[string][]yamlProgressPoint `yaml:"progress"`
	}{
		Version:      data.Version,
		ExportedAt:   data.ExportedAt.Format(time.RFC3339),
		Tool:         data.Tool,
		Sessions:     data.Sessions,
		ExerciseLogs: data.ExerciseLogs,
		Progress:     make(map[string][]yamlProgressPoint),
	}

	for _, p := range data.Progress {
		point := yamlProgressPoint{
			ID:     p.ID,
			Date:   p.RecordDate.Format(dateLayout),
			Value:  p.Value,
			Unit:   p.Unit,
			Synced: p.Synced,
		}
		if p.Notes != nil {
			point.Notes = *p.Notes
		}
		yamlData.Progress[p.MetricType] = append(yamlData.Progress[p.MetricType], point)
	}

	return yaml.Marshal(yamlData)
}

type yamlProgressPoint struct {
	ID     string  `yaml:"id"`
	Date   string  `yaml:"date"`
	Value  float64 `yaml:"value"`
	Unit   string  `yaml:"unit"`
	Notes  string  `yaml:"notes,omitempty"`
	Synced bool    `yaml:"synced"`
}
