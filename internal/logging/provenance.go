package logging

import (
	"database/sql"
	"fmt"
	"math"
	"time"
)

// #region log-run
// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// LogRun writes a provenance entry to the run_log table.
func LogRun(db Execer, entry RunEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO run_log (run_id, trigger_type, winner, winner_score, focus, format_count, sample_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Trigger,
		nullIfEmpty(entry.Winner),
		nullIfNotFinite(entry.WinnerScore),
		nullIfEmpty(entry.Focus),
		entry.Formats,
		entry.Samples,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log run: %w", err)
	}
	return nil
}

// #endregion log-run

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullIfNotFinite(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// #endregion helpers
