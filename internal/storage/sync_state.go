// ABOUTME: Sync flag transitions and the migration journal for the local store.
// ABOUTME: The journal records rows whose remote insert is in flight or acknowledged.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/fitlog/internal/models"
)

// JournalState tracks a row's progress through a migration step.
type JournalState string

const (
	// JournalInserting is written before the remote insert is attempted.
	JournalInserting JournalState = "inserting"
	// JournalAcknowledged means the remote store accepted the row and only the
	// local flag flip is outstanding.
	JournalAcknowledged JournalState = "acknowledged"
)

// MarkSynced flips one row's synced flag to true and clears its journal entry.
// Flipping an already-synced row is a no-op.
func (d *DB) MarkSynced(ctx context.Context, family models.Family, id string) error {
	if !family.IsValid() {
		return fmt.Errorf("mark synced: unknown family %q", family)
	}
	table := family.Table()

	err := d.withTx(ctx, func(tx *sql.Tx) error {
		// table names come from the closed Family enum
		result, err := tx.ExecContext(ctx, "UPDATE "+table+" SET synced = 1 WHERE id = ?", id)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM sync_journal WHERE family = ? AND record_id = ?", string(family), id)
		return err
	})
	if err != nil {
		return opErr(table, "mark synced", err)
	}
	return nil
}

// SetJournalState records the migration state for a row.
func (d *DB) SetJournalState(ctx context.Context, family models.Family, id string, state JournalState) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO sync_journal (family, record_id, state, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(family, record_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at`,
		string(family), id, string(state), formatTime(time.Now()),
	)
	return opErr("sync_journal", "set state", err)
}

// ClearJournalEntry removes a row's journal entry without touching its flag.
func (d *DB) ClearJournalEntry(ctx context.Context, family models.Family, id string) error {
	_, err := d.db.ExecContext(ctx, "DELETE FROM sync_journal WHERE family = ? AND record_id = ?", string(family), id)
	return opErr("sync_journal", "clear entry", err)
}

// JournalStates returns the journal entries for one family keyed by record id.
func (d *DB) JournalStates(ctx context.Context, family models.Family) (map[string]JournalState, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT record_id, state FROM sync_journal WHERE family = ?", string(family))
	if err != nil {
		return nil, opErr("sync_journal", "list", err)
	}
	defer rows.Close()

	states := make(map[string]JournalState)
	for rows.Next() {
		var id, state string
		if err := rows.Scan(&id, &state); err != nil {
			return nil, opErr("sync_journal", "list", err)
		}
		states[id] = JournalState(state)
	}
	if err := rows.Err(); err != nil {
		return nil, opErr("sync_journal", "list", err)
	}
	return states, nil
}

// CountUnsynced returns the number of unsynced rows per family.
func (d *DB) CountUnsynced(ctx context.Context) (map[models.Family]int, error) {
	counts := make(map[models.Family]int, 3)
	for _, family := range models.Families() {
		var n int
		err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+family.Table()+" WHERE synced = 0").Scan(&n)
		if err != nil {
			return nil, opErr(family.Table(), "count unsynced", err)
		}
		counts[family] = n
	}
	return counts, nil
}

// TotalUnsynced sums CountUnsynced across families.
func (d *DB) TotalUnsynced(ctx context.Context) (int, error) {
	counts, err := d.CountUnsynced(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

// ClearAll hard-deletes every row in every table, children first.
func (d *DB) ClearAll(ctx context.Context) error {
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"sync_journal", "exercise_logs", "progress_tracking", "workout_sessions"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
	return opErr("all", "clear", err)
}
