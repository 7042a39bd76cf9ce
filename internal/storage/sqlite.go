package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/san-kum/casim/internal/metrics"
	"github.com/san-kum/casim/internal/optim"
	"github.com/san-kum/casim/internal/sim"

	_ "modernc.org/sqlite"
)

const sqliteFile = "casim.db"

// SQLiteStore keeps runs, traces and sweep rows in a single database file.
type SQLiteStore struct {
	dir string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(dir string) *SQLiteStore {
	return &SQLiteStore{dir: dir}
}

func (s *SQLiteStore) Path() string { return filepath.Join(s.dir, sqliteFile) }

func (s *SQLiteStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", s.Path())
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			created_at TEXT NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS trace (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			time REAL,
			reference REAL,
			error REAL,
			command REAL,
			applied REAL,
			disturbance REAL,
			attitude REAL,
			stability REAL,
			speed REAL,
			suppressed INTEGER NOT NULL,
			PRIMARY KEY (run_id, tick)
		);
		CREATE TABLE IF NOT EXISTS tuning (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS sweep_rows (
			run_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			controller TEXT NOT NULL,
			grid TEXT NOT NULL,
			turbulence TEXT NOT NULL,
			failure TEXT NOT NULL,
			seed INTEGER NOT NULL,
			overshoot REAL NOT NULL,
			time_to_recover INTEGER NOT NULL,
			crash INTEGER NOT NULL,
			control_effort REAL NOT NULL,
			PRIMARY KEY (run_id, idx)
		);
	`)
	return err
}

// withRun inserts the metadata row and the payload rows in one transaction.
func (s *SQLiteStore) withRun(meta RunMetadata, insert func(tx *sql.Tx) error) (string, error) {
	db, err := s.getDB()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	tx, err := db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO runs (id, kind, created_at, payload) VALUES (?, ?, ?, ?)`,
		meta.ID, string(meta.Kind), meta.Timestamp.Format("2006-01-02T15:04:05.000000000Z"), payload); err != nil {
		return "", err
	}
	if err := insert(tx); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *SQLiteStore) SaveEpisode(meta RunMetadata, trace sim.Trace) (string, error) {
	meta = stamp(meta, KindEpisode)
	return s.withRun(meta, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO trace (run_id, tick, time, reference, error, command, applied,
				disturbance, attitude, stability, speed, suppressed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range trace {
			if _, err := stmt.Exec(meta.ID, r.Tick, r.Time, r.Reference, r.Error, r.Command, r.Applied,
				r.Disturbance, r.Attitude, r.Stability, r.Speed, r.Suppressed); err != nil {
				return fmt.Errorf("insert tick %d: %w", r.Tick, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) SaveTuning(meta RunMetadata, res *optim.TuneResult) (string, error) {
	meta = stamp(meta, KindTuning)
	payload, err := json.Marshal(jsonSafe(res))
	if err != nil {
		return "", err
	}
	return s.withRun(meta, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO tuning (run_id, payload) VALUES (?, ?)`, meta.ID, payload)
		return err
	})
}

func (s *SQLiteStore) SaveSweep(meta RunMetadata, rows []metrics.Row) (string, error) {
	meta = stamp(meta, KindSweep)
	return s.withRun(meta, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO sweep_rows (run_id, idx, controller, grid, turbulence, failure, seed,
				overshoot, time_to_recover, crash, control_effort)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, r := range rows {
			if _, err := stmt.Exec(meta.ID, i, r.Controller, r.Grid, r.Turbulence, r.Failure, r.Seed,
				r.Summary.Overshoot, r.Summary.TimeToRecover, r.Summary.Crash, r.Summary.ControlEffort); err != nil {
				return fmt.Errorf("insert row %d: %w", i, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListRuns() ([]RunMetadata, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT payload FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var meta RunMetadata
		if err := json.Unmarshal(payload, &meta); err != nil {
			return nil, err
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) LoadRun(id string) (*RunMetadata, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = db.QueryRow(`SELECT payload FROM runs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &meta, nil
}

// LoadTrace returns an empty trace for a known run without ticks and
// ErrNotFound for an unknown run.
func (s *SQLiteStore) LoadTrace(id string) (sim.Trace, error) {
	if _, err := s.LoadRun(id); err != nil {
		return nil, err
	}
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT tick, time, reference, error, command, applied, disturbance,
			attitude, stability, speed, suppressed
		FROM trace WHERE run_id = ? ORDER BY tick`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trace := sim.Trace{}
	for rows.Next() {
		var (
			r    sim.Record
			vals [9]sql.NullFloat64
		)
		dest := []any{&r.Tick}
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		dest = append(dest, &r.Suppressed)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		fields := []*float64{&r.Time, &r.Reference, &r.Error, &r.Command, &r.Applied,
			&r.Disturbance, &r.Attitude, &r.Stability, &r.Speed}
		for i, f := range fields {
			*f = nullToNaN(vals[i])
		}
		trace = append(trace, r)
	}
	return trace, rows.Err()
}

func (s *SQLiteStore) LoadTuning(id string) (*optim.TuneResult, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = db.QueryRow(`SELECT payload FROM tuning WHERE run_id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}

	var res optim.TuneResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decode tuning %s: %w", id, err)
	}
	return &res, nil
}

func (s *SQLiteStore) LoadSweep(id string) ([]metrics.Row, error) {
	if _, err := s.LoadRun(id); err != nil {
		return nil, err
	}
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT controller, grid, turbulence, failure, seed,
			overshoot, time_to_recover, crash, control_effort
		FROM sweep_rows WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]metrics.Row, 0)
	for rows.Next() {
		var r metrics.Row
		if err := rows.Scan(&r.Controller, &r.Grid, &r.Turbulence, &r.Failure, &r.Seed,
			&r.Summary.Overshoot, &r.Summary.TimeToRecover, &r.Summary.Crash, &r.Summary.ControlEffort); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// sqlite stores NaN as NULL.
func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
