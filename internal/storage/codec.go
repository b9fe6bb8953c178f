// ABOUTME: Encoding of per-set sequences into SQLite text columns.
// ABOUTME: Only the local store sees the encoded form.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	timeLayout = "2006-01-02T15:04:05.000000000Z"
	dateLayout = "2006-01-02"
)

// encodeSeq stores an empty or nil sequence as NULL.
func encodeSeq[T int | float64](seq []T) (sql.NullString, error) {
	if len(seq) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(seq)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode sequence: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeSeq[T int | float64](col sql.NullString) ([]T, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var seq []T
	if err := json.Unmarshal([]byte(col.String), &seq); err != nil {
		return nil, fmt.Errorf("decode sequence: %w", err)
	}
	return seq, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// rows written by the column default use SQLite's own format
		return time.Parse("2006-01-02 15:04:05", s)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
