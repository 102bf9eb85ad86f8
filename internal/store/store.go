package store

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/softfloat-lab/internal/eval"
)

// timeLayout sorts lexicographically, unlike RFC3339Nano.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	created_at    TEXT NOT NULL,
	domain        TEXT NOT NULL,
	k_min         REAL NOT NULL,
	k_max         REAL NOT NULL,
	k_step        REAL NOT NULL,
	sample_count  INTEGER NOT NULL,
	config_json   TEXT
);

CREATE TABLE IF NOT EXISTS run_formats (
	run_id        TEXT NOT NULL,
	position      INTEGER NOT NULL,
	kind          TEXT NOT NULL,
	name          TEXT NOT NULL,
	mantissa_bits INTEGER NOT NULL,
	min_exp2      INTEGER NOT NULL,
	max_exp2      INTEGER NOT NULL,
	PRIMARY KEY (run_id, position),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS run_metrics (
	run_id        TEXT NOT NULL,
	rank          INTEGER NOT NULL,
	name          TEXT NOT NULL,
	metrics       BLOB NOT NULL,
	PRIMARY KEY (run_id, rank),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS run_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	trigger_type  TEXT NOT NULL,
	winner        TEXT,
	winner_score  REAL,
	focus         TEXT,
	format_count  INTEGER NOT NULL,
	sample_count  INTEGER NOT NULL,
	created_at    TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct
// Store persists sweep runs in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region save-run
// SaveRun writes a run with its formats and ranking in one transaction.
// An empty ID is replaced with a new UUID; the stored ID is returned.
func (s *Store) SaveRun(run Run) (string, error) {
	return s.SaveRunWith(run, nil)
}

// SaveRunWith is SaveRun with extra writes, such as the provenance row,
// run inside the same transaction. within receives the stored run ID; an
// error from it rolls the whole run back.
func (s *Store) SaveRunWith(run Run, within func(tx *sql.Tx, id string) error) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, created_at, domain, k_min, k_max, k_step, sample_count, config_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(timeLayout), run.Domain,
		run.KMin, run.KMax, run.KStep, run.SampleCount, nullIfEmpty(run.ConfigJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i, f := range run.Formats {
		_, err = tx.Exec(
			`INSERT INTO run_formats (run_id, position, kind, name, mantissa_bits, min_exp2, max_exp2)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, f.Kind, f.Name, f.MantissaBits, f.MinExp2, f.MaxExp2,
		)
		if err != nil {
			return "", fmt.Errorf("insert format %s: %w", f.Name, err)
		}
	}

	for i, m := range run.Ranking {
		_, err = tx.Exec(
			`INSERT INTO run_metrics (run_id, rank, name, metrics) VALUES (?, ?, ?, ?)`,
			run.ID, i, m.Name, encodeMetrics(m),
		)
		if err != nil {
			return "", fmt.Errorf("insert metrics %s: %w", m.Name, err)
		}
	}

	if within != nil {
		if err := within(tx, run.ID); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return run.ID, nil
}

// #endregion save-run

// #region get-run
// GetRun retrieves a run with its formats and ranking.
func (s *Store) GetRun(id string) (Run, error) {
	var run Run
	var createdStr string
	var configJSON sql.NullString

	err := s.db.QueryRow(
		`SELECT run_id, created_at, domain, k_min, k_max, k_step, sample_count, config_json
		 FROM runs WHERE run_id = ?`, id,
	).Scan(&run.ID, &createdStr, &run.Domain, &run.KMin, &run.KMax, &run.KStep, &run.SampleCount, &configJSON)
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	if run.CreatedAt, err = time.Parse(timeLayout, createdStr); err != nil {
		return Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	if configJSON.Valid {
		run.ConfigJSON = configJSON.String
	}

	if run.Formats, err = s.formats(id); err != nil {
		return Run{}, err
	}
	if run.Ranking, err = s.ranking(id); err != nil {
		return Run{}, err
	}
	return run, nil
}

func (s *Store) formats(id string) ([]FormatRecord, error) {
	rows, err := s.db.Query(
		`SELECT kind, name, mantissa_bits, min_exp2, max_exp2
		 FROM run_formats WHERE run_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("query formats: %w", err)
	}
	defer rows.Close()

	var out []FormatRecord
	for rows.Next() {
		var f FormatRecord
		if err := rows.Scan(&f.Kind, &f.Name, &f.MantissaBits, &f.MinExp2, &f.MaxExp2); err != nil {
			return nil, fmt.Errorf("scan format: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) ranking(id string) ([]eval.FormatMetrics, error) {
	rows, err := s.db.Query(
		`SELECT name, metrics FROM run_metrics WHERE run_id = ? ORDER BY rank`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var out []eval.FormatMetrics
	for rows.Next() {
		var name string
		var blob []byte
		if err := rows.Scan(&name, &blob); err != nil {
			return nil, fmt.Errorf("scan metrics: %w", err)
		}
		m, err := decodeMetrics(blob)
		if err != nil {
			return nil, fmt.Errorf("decode metrics %s: %w", name, err)
		}
		m.Name = name
		out = append(out, m)
	}
	return out, rows.Err()
}

// #endregion get-run

// #region latest-run
// LatestRun returns the most recently created run.
func (s *Store) LatestRun() (Run, error) {
	var id string
	err := s.db.QueryRow(
		`SELECT run_id FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&id)
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return s.GetRun(id)
}

// #endregion latest-run

// #region list-runs
// ListRuns returns summaries of the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	rows, err := s.db.Query(
		`SELECT r.run_id, r.created_at, r.k_min, r.k_max, r.k_step, r.sample_count,
		        (SELECT COUNT(*) FROM run_formats f WHERE f.run_id = r.run_id),
		        m.name, m.metrics
		 FROM runs r
		 LEFT JOIN run_metrics m ON m.run_id = r.run_id AND m.rank = 0
		 ORDER BY r.created_at DESC, r.rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var rs RunSummary
		var createdStr string
		var winner sql.NullString
		var blob []byte
		if err := rows.Scan(&rs.ID, &createdStr, &rs.KMin, &rs.KMax, &rs.KStep, &rs.SampleCount,
			&rs.FormatCount, &winner, &blob); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if rs.CreatedAt, err = time.Parse(timeLayout, createdStr); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		rs.WinnerScore = math.Inf(1)
		if winner.Valid {
			rs.Winner = winner.String
			m, err := decodeMetrics(blob)
			if err != nil {
				return nil, fmt.Errorf("decode winner of %s: %w", rs.ID, err)
			}
			rs.WinnerScore = m.Score
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// #endregion list-runs

// #region metrics-encoding
const metricsFields = 6

func encodeMetrics(m eval.FormatMetrics) []byte {
	vals := [metricsFields]float64{m.MeanRelErr, m.MaxRelErr, m.UnderflowFrac, m.OverflowFrac, m.FiniteFrac, m.Score}
	buf := make([]byte, metricsFields*8)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeMetrics(b []byte) (eval.FormatMetrics, error) {
	if len(b) != metricsFields*8 {
		return eval.FormatMetrics{}, fmt.Errorf("metrics blob has %d bytes, want %d", len(b), metricsFields*8)
	}
	var vals [metricsFields]float64
	for i := range vals {
		vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return eval.FormatMetrics{
		MeanRelErr:    vals[0],
		MaxRelErr:     vals[1],
		UnderflowFrac: vals[2],
		OverflowFrac:  vals[3],
		FiniteFrac:    vals[4],
		Score:         vals[5],
	}, nil
}

// #endregion metrics-encoding

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
