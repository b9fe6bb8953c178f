// ABOUTME: One-shot drain of unsynced local rows into the remote store.
// ABOUTME: A per-row journal lets a later run finish rows whose remote insert already landed.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/harperreed/fitlog/internal/entitlement"
	"github.com/harperreed/fitlog/internal/logging"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
)

var (
	// ErrNotEntitled is returned, before any I/O, when the caller is not on a cloud tier.
	ErrNotEntitled = errors.New("not entitled to cloud storage")
	// ErrMigrationInProgress is returned when another run holds the engine.
	ErrMigrationInProgress = errors.New("migration already in progress")
	// ErrRemoteUnavailable is returned when no remote store is configured.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
)

// Local is the part of the local store the engine drives.
type Local interface {
	ListUnsyncedWorkoutSessions(ctx context.Context) ([]*models.WorkoutSession, error)
	ListUnsyncedExerciseLogs(ctx context.Context) ([]*models.ExerciseLog, error)
	ListUnsyncedProgressTracking(ctx context.Context) ([]*models.ProgressTracking, error)

	JournalStates(ctx context.Context, family models.Family) (map[string]storage.JournalState, error)
	SetJournalState(ctx context.Context, family models.Family, id string, state storage.JournalState) error
	ClearJournalEntry(ctx context.Context, family models.Family, id string) error
	MarkSynced(ctx context.Context, family models.Family, id string) error
}

var _ Local = (*storage.DB)(nil)

// RowError is the failure of one row in a run.
type RowError struct {
	Family   models.Family
	RecordID string
	Err      error
	// Retryable is true when running again may succeed with the same payload.
	Retryable bool
	// FlipPending is true when the remote store holds the row but the local
	// flag could not be flipped. The next run flips it without re-inserting.
	FlipPending bool
}

func (e RowError) Error() string {
	if e.FlipPending {
		return fmt.Sprintf("%s %s: inserted remotely, local flip pending: %v", e.Family, e.RecordID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Family, e.RecordID, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Summary aggregates one run.
type Summary struct {
	Synced int        `json:"synced"`
	Failed int        `json:"failed"`
	Errors []RowError `json:"-"`
}

// Retryable reports whether any failed row could succeed on a later run.
func (s Summary) Retryable() bool {
	for _, e := range s.Errors {
		if e.Retryable {
			return true
		}
	}
	return false
}

func (s *Summary) fail(e RowError) {
	s.Failed++
	s.Errors = append(s.Errors, e)
}

// Engine migrates unsynced rows for one device. Runs never overlap.
type Engine struct {
	local   Local
	remote  storage.RemoteStore
	logger  *log.Logger
	running atomic.Bool
}

// New creates an engine. remote may be nil, in which case every entitled run
// fails with ErrRemoteUnavailable.
func New(local Local, remote storage.RemoteStore, logger *log.Logger) *Engine {
	return &Engine{local: local, remote: remote, logger: logging.OrDiscard(logger)}
}

// Running reports whether a run is in progress.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run drains every unsynced local row into the remote store for ent.UserID.
// Row failures are collected in the Summary and never abort the run. The
// returned error is non-nil only when the run could not proceed at all.
func (e *Engine) Run(ctx context.Context, ent entitlement.Context) (Summary, error) {
	if !ent.ShouldUseCloud() {
		return Summary{}, ErrNotEntitled
	}
	if e.remote == nil {
		return Summary{}, ErrRemoteUnavailable
	}
	if !e.running.CompareAndSwap(false, true) {
		return Summary{}, ErrMigrationInProgress
	}
	defer e.running.Store(false)

	backend := e.remote.ForUser(ent.UserID)
	e.logger.Info("migration started", "user", ent.UserID, "tier", ent.Tier)

	var sum Summary
	for _, family := range models.Families() {
		if err := e.migrateFamily(ctx, backend, family, &sum); err != nil {
			e.logger.Error("migration stopped", "family", family, "err", err)
			return sum, err
		}
	}

	e.logger.Info("migration finished", "user", ent.UserID, "synced", sum.Synced, "failed", sum.Failed)
	return sum, nil
}

// pendingRow is one unsynced row ready to be written to a backend.
type pendingRow struct {
	id   string
	save func(ctx context.Context, b storage.Backend) error
}

func (e *Engine) pendingRows(ctx context.Context, family models.Family) ([]pendingRow, error) {
	var rows []pendingRow
	switch family {
	case models.FamilyWorkoutSession:
		recs, err := e.local.ListUnsyncedWorkoutSessions(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			rows = append(rows, pendingRow{id: r.ID, save: func(ctx context.Context, b storage.Backend) error {
				return b.SaveWorkoutSession(ctx, r)
			}})
		}
	case models.FamilyExerciseLog:
		recs, err := e.local.ListUnsyncedExerciseLogs(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			rows = append(rows, pendingRow{id: r.ID, save: func(ctx context.Context, b storage.Backend) error {
				return b.SaveExerciseLog(ctx, r)
			}})
		}
	case models.FamilyProgressTracking:
		recs, err := e.local.ListUnsyncedProgressTracking(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			rows = append(rows, pendingRow{id: r.ID, save: func(ctx context.Context, b storage.Backend) error {
				return b.SaveProgressTracking(ctx, r)
			}})
		}
	default:
		return nil, fmt.Errorf("unknown family %q", family)
	}
	return rows, nil
}

func (e *Engine) migrateFamily(ctx context.Context, backend storage.Backend, family models.Family, sum *Summary) error {
	rows, err := e.pendingRows(ctx, family)
	if err != nil {
		return fmt.Errorf("list unsynced %s: %w", family, err)
	}
	if len(rows) == 0 {
		return nil
	}

	journal, err := e.local.JournalStates(ctx, family)
	if err != nil {
		return fmt.Errorf("read journal %s: %w", family, err)
	}

	e.logger.Debug("migrating family", "family", family, "rows", len(rows))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.migrateRow(ctx, backend, family, row, journal[row.id], sum)
	}
	return nil
}

func (e *Engine) migrateRow(ctx context.Context, backend storage.Backend, family models.Family, row pendingRow, prior storage.JournalState, sum *Summary) {
	if prior == storage.JournalAcknowledged {
		e.logger.Debug("finishing acknowledged row", "family", family, "id", row.id)
		e.flip(ctx, family, row.id, sum)
		return
	}

	if err := e.local.SetJournalState(ctx, family, row.id, storage.JournalInserting); err != nil {
		sum.fail(RowError{Family: family, RecordID: row.id, Err: err, Retryable: true})
		return
	}

	err := row.save(ctx, backend)
	switch {
	case err == nil:
	case storage.IsConflict(err) && prior == storage.JournalInserting:
		// an earlier run's insert landed before its acknowledgement was recorded
		e.logger.Info("row already present remotely", "family", family, "id", row.id)
	default:
		retryable := storage.IsTransient(err)
		if !retryable {
			// the insert definitely did not land
			if cerr := e.local.ClearJournalEntry(ctx, family, row.id); cerr != nil {
				e.logger.Warn("clear journal entry", "family", family, "id", row.id, "err", cerr)
			}
		}
		e.logger.Warn("row failed", "family", family, "id", row.id, "retryable", retryable, "err", err)
		sum.fail(RowError{Family: family, RecordID: row.id, Err: err, Retryable: retryable})
		return
	}

	if err := e.local.SetJournalState(ctx, family, row.id, storage.JournalAcknowledged); err != nil {
		e.logger.Warn("record acknowledgement", "family", family, "id", row.id, "err", err)
	}
	e.flip(ctx, family, row.id, sum)
}

func (e *Engine) flip(ctx context.Context, family models.Family, id string, sum *Summary) {
	if err := e.local.MarkSynced(ctx, family, id); err != nil {
		e.logger.Warn("local flip failed after remote insert", "family", family, "id", id, "err", err)
		sum.fail(RowError{Family: family, RecordID: id, Err: err, Retryable: true, FlipPending: true})
		return
	}
	sum.Synced++
}
