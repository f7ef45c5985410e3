// Package history records benchmark results in a SQLite database so runs
// can be compared over time.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/tapevm/pkg/bench"
)

var log = commonlog.GetLogger("tapevm.history")

const schema = `CREATE TABLE IF NOT EXISTS results (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	program    TEXT NOT NULL,
	n          INTEGER NOT NULL,
	strategy   TEXT NOT NULL,
	iterations INTEGER NOT NULL,
	workers    INTEGER NOT NULL,
	compile_ns INTEGER NOT NULL,
	total_ns   INTEGER NOT NULL,
	result     TEXT NOT NULL,
	started_at TEXT NOT NULL
)`

// Entry is one stored result.
type Entry struct {
	RunID      string
	Program    string
	N          int
	Strategy   bench.Strategy
	Iterations int
	Workers    int
	Compile    time.Duration
	Total      time.Duration
	Result     string
	Started    time.Time
}

// PerIteration returns the mean wall time of one execution.
func (e Entry) PerIteration() time.Duration {
	if e.Iterations == 0 {
		return 0
	}
	return e.Total / time.Duration(e.Iterations)
}

// Store is an open history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	log.Debugf("opened history %s", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores results in a single transaction.
func (s *Store) Record(ctx context.Context, results []bench.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO results
		(run_id, program, n, strategy, iterations, workers, compile_ns, total_ns, result, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		_, err := stmt.ExecContext(ctx,
			r.RunID, r.Program, r.N, string(r.Strategy), r.Iterations, r.Workers,
			int64(r.Compile), int64(r.Total), r.Value.String(),
			r.Started.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("saving result %s/%s: %w", r.Program, r.Strategy, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing results: %w", err)
	}
	log.Debugf("recorded %d results", len(results))
	return nil
}

// Recent returns up to limit results, newest first. An empty program
// matches every program.
func (s *Store) Recent(ctx context.Context, program string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `SELECT
		run_id, program, n, strategy, iterations, workers, compile_ns, total_ns, result, started_at
		FROM results
		WHERE ? = '' OR program = ?
		ORDER BY id DESC
		LIMIT ?`, program, program, limit)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                 Entry
			strategy, started string
			compile, total    int64
		)
		if err := rows.Scan(&e.RunID, &e.Program, &e.N, &strategy, &e.Iterations, &e.Workers,
			&compile, &total, &e.Result, &started); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		e.Strategy = bench.Strategy(strategy)
		e.Compile = time.Duration(compile)
		e.Total = time.Duration(total)
		if e.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parsing start time %q: %w", started, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}
	return entries, nil
}
