package logging

import "time"

// #region run-entry
// RunEntry is a single row in the run_log table.
type RunEntry struct {
	RunID       string
	Trigger     string // "sweep" | "replay" | "rpc"
	Winner      string
	WinnerScore float64 // stored as NULL when not finite
	Focus       string
	Formats     int
	Samples     int
	CreatedAt   time.Time
}

// #endregion run-entry
