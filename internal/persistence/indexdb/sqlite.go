// Package indexdb keeps a small sqlite index next to the snapshot
// files: which snapshots exist, the economy history, and an audit trail
// of client commands. It is a secondary index: losing it costs nothing
// but observability, so writes go through a buffered channel and a
// single writer goroutine, never blocking the simulation tick.
package indexdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"hamletcraft.dev/internal/persistence/snapshot"
	"hamletcraft.dev/internal/sim/village"
)

type Index struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqEcon reqKind = iota + 1
	reqAudit
	reqSnapshot
	reqBarrier
)

type req struct {
	kind reqKind

	econ  village.EconEntry
	audit village.AuditEntry
	snap  snapshotRow
	done  chan struct{}
}

type snapshotRow struct {
	Tick       uint64
	Path       string
	Items      int
	Budget     float64
	Population int
	Unemployed int
}

func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Index{
		db: db,
		// Generous buffer: command bursts from a busy client must not
		// stall the sim on index writes.
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-only workload; NORMAL durability is fine for
	// a rebuildable index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER NOT NULL,
			path TEXT NOT NULL,
			items INTEGER NOT NULL,
			budget REAL NOT NULL,
			population INTEGER NOT NULL,
			unemployed INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (tick, path)
		);`,
		`CREATE TABLE IF NOT EXISTS econ_log (
			tick INTEGER NOT NULL,
			income REAL NOT NULL,
			expense REAL NOT NULL,
			multiplier REAL NOT NULL,
			budget_after REAL NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS econ_log_tick ON econ_log(tick);`,
		`CREATE TABLE IF NOT EXISTS audits (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			tick INTEGER NOT NULL,
			entry TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Index) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteEcon implements village.EconLogger.
func (s *Index) WriteEcon(entry village.EconEntry) error {
	s.enqueue(req{kind: reqEcon, econ: entry})
	return nil
}

// WriteAudit implements village.AuditLogger.
func (s *Index) WriteAudit(entry village.AuditEntry) error {
	s.enqueue(req{kind: reqAudit, audit: entry})
	return nil
}

// RecordSnapshot notes a snapshot file that was written to disk.
func (s *Index) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	s.enqueue(req{kind: reqSnapshot, snap: snapshotRow{
		Tick:       snap.Header.Tick,
		Path:       path,
		Items:      len(snap.Items),
		Budget:     snap.Budget,
		Population: snap.Population,
		Unemployed: snap.Unemployed,
	}})
}

func (s *Index) enqueue(r req) {
	if s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		// Index full: drop rather than stall the caller.
	}
}

func (s *Index) loop() {
	for r := range s.ch {
		now := time.Now().UTC().Format(time.RFC3339)
		switch r.kind {
		case reqEcon:
			_, _ = s.db.Exec(
				`INSERT INTO econ_log (tick, income, expense, multiplier, budget_after, created_at) VALUES (?,?,?,?,?,?)`,
				r.econ.Tick, r.econ.Income, r.econ.Expense, r.econ.Multiplier, r.econ.BudgetAfter, now,
			)
		case reqAudit:
			b, err := json.Marshal(r.audit)
			if err != nil {
				continue
			}
			_, _ = s.db.Exec(`INSERT INTO audits (tick, entry) VALUES (?,?)`, r.audit.Tick, string(b))
		case reqSnapshot:
			_, _ = s.db.Exec(
				`INSERT OR REPLACE INTO snapshots (tick, path, items, budget, population, unemployed, created_at) VALUES (?,?,?,?,?,?,?)`,
				r.snap.Tick, r.snap.Path, r.snap.Items, r.snap.Budget, r.snap.Population, r.snap.Unemployed, now,
			)
		case reqBarrier:
			close(r.done)
		}
	}
}

// Flush blocks until every write enqueued before the call has been
// applied. Bypasses the drop-on-full path so it always synchronizes.
func (s *Index) Flush() {
	if s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- req{kind: reqBarrier, done: done}
	<-done
}

// LatestSnapshotPath returns the path of the highest-tick recorded
// snapshot, or "" when none exist.
func (s *Index) LatestSnapshotPath() (string, error) {
	row := s.db.QueryRow(`SELECT path FROM snapshots ORDER BY tick DESC LIMIT 1`)
	var p string
	if err := row.Scan(&p); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return p, nil
}

// EconCount reports the number of economy log rows (used by /statez and
// tests).
func (s *Index) EconCount() (int, error) {
	row := s.db.QueryRow(`SELECT COUNT(*) FROM econ_log`)
	var n int
	err := row.Scan(&n)
	return n, err
}
