// Package recorder persists plant trajectories to SQLite, one row per
// snapshot keyed by run and step.
package recorder

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"pwrsim/plant"
)

var ErrUnknownRun = errors.New("unknown run")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	plant TEXT NOT NULL,
	started TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots (
	run_id TEXT NOT NULL,
	step INTEGER NOT NULL,
	time REAL NOT NULL,
	mode TEXT NOT NULL,
	status TEXT NOT NULL,
	electrical_power REAL NOT NULL,
	payload BLOB NOT NULL,
	PRIMARY KEY (run_id, step)
);`

type row struct {
	runID uuid.UUID
	snap  plant.Snapshot
}

// Store buffers snapshots and writes them in one transaction per batch.
type Store struct {
	db    *sql.DB
	path  string
	batch int

	mu      sync.Mutex
	pending []row
}

// Open creates or reuses the database at path. batch < 1 writes every
// snapshot immediately.
func Open(path string, batch int) (*Store, error) {
	if path == "" {
		path = "pwrsim.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if batch < 1 {
		batch = 1
	}
	return &Store{db: db, path: path, batch: batch}, nil
}

func (s *Store) Path() string {
	return s.path
}

// Begin registers a run so Load can tell an empty run from an unknown one.
func (s *Store) Begin(runID uuid.UUID, plantName string) error {
	_, err := s.db.Exec(`INSERT INTO runs(run_id, plant, started) VALUES(?, ?, ?) ON CONFLICT(run_id) DO NOTHING`,
		runID.String(), plantName, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}
	return nil
}

// Record queues a snapshot and flushes once a batch is full.
func (s *Store) Record(runID uuid.UUID, snap plant.Snapshot) error {
	s.mu.Lock()
	s.pending = append(s.pending, row{runID: runID, snap: snap})
	full := len(s.pending) >= s.batch
	s.mu.Unlock()
	if full {
		return s.Flush()
	}
	return nil
}

// Flush writes every queued snapshot.
func (s *Store) Flush() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, r := range s.pending {
		payload, err := json.Marshal(r.snap)
		if err != nil {
			return fmt.Errorf("encode step %d: %w", r.snap.Step, err)
		}
		if _, err := tx.Exec(`INSERT INTO snapshots(run_id, step, time, mode, status, electrical_power, payload)
			VALUES(?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, step) DO UPDATE SET time=excluded.time, mode=excluded.mode,
			status=excluded.status, electrical_power=excluded.electrical_power, payload=excluded.payload`,
			r.runID.String(), r.snap.Step, r.snap.Time, r.snap.Mode.String(), string(r.snap.Status),
			r.snap.ElectricalPower, payload); err != nil {
			return fmt.Errorf("insert step %d: %w", r.snap.Step, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"rows": len(s.pending),
		"path": s.path,
	}).Debug("snapshots flushed")
	s.pending = s.pending[:0]
	return nil
}

// Load returns the recorded snapshots of a run in step order.
func (s *Store) Load(runID uuid.UUID) ([]plant.Snapshot, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID.String()).Scan(&n); err != nil {
		return nil, fmt.Errorf("select run: %w", err)
	}
	rows, err := s.db.Query(`SELECT payload FROM snapshots WHERE run_id = ? ORDER BY step`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("select snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snaps []plant.Snapshot
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var snap plant.Snapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if n == 0 && len(snaps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return snaps, nil
}

// Run summarizes one recorded run.
type Run struct {
	ID      uuid.UUID `json:"id"`
	Plant   string    `json:"plant"`
	Started string    `json:"started"`
	Steps   int       `json:"steps"`
}

func (s *Store) Runs() ([]Run, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT r.run_id, r.plant, r.started, COUNT(s.step)
		FROM runs r LEFT JOIN snapshots s ON s.run_id = r.run_id
		GROUP BY r.run_id ORDER BY r.started, r.run_id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var id string
		if err := rows.Scan(&id, &r.Plant, &r.Started, &r.Steps); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Save records a whole trajectory and flushes. Steps already stored are
// overwritten.
func (s *Store) Save(t *plant.Trajectory, plantName string) error {
	if err := s.Begin(t.RunID, plantName); err != nil {
		return err
	}
	for _, snap := range t.Snapshots() {
		if err := s.Record(t.RunID, snap); err != nil {
			return err
		}
	}
	if err := s.Flush(); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"run_id": t.RunID,
		"steps":  t.Len(),
		"path":   s.path,
	}).Info("trajectory saved")
	return nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	err := s.Flush()
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}
