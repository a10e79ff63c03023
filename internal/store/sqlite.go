package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	// Registers the "sqlite" driver.
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by DeleteRun for an unknown ID.
var ErrNotFound = errors.New("run not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	log *logrus.Entry
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// Each pooled connection to ":memory:" would see its own empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteStore{
		db:  db,
		log: logrus.WithField("component", "store"),
	}, nil
}

// Open opens the store at dbPath and applies the schema.
func Open(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	st, err := NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.log.Debug("migrate")
	return migrate(ctx, s.db)
}

// SaveRun inserts a run. Only finished reports are accepted.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) error {
	s.log.WithFields(logrus.Fields{"op": "insert", "id": run.ID}).Debug("sql")

	m := run.Report.Metrics
	if m.CompletedProcesses != m.TotalProcesses {
		return fmt.Errorf("save run %s: report is unfinished (%d of %d processes completed)",
			run.ID, m.CompletedProcesses, m.TotalProcesses)
	}
	metricsJSON, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	reportJSON, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, policy, source, total_time, completed, metrics, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Policy, run.Source, m.TotalTime, m.CompletedProcesses,
		string(metricsJSON), string(reportJSON), run.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// GetRun returns the run with id, or nil if it does not exist.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	s.log.WithFields(logrus.Fields{"op": "select", "id": id}).Debug("sql")

	row := s.db.QueryRowContext(ctx,
		`SELECT id, policy, source, report, created_at FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// ListRuns returns a page of runs, newest first, and the total matching count.
func (s *SQLiteStore) ListRuns(ctx context.Context, opts ListOptions) ([]*RunRecord, int, error) {
	s.log.WithFields(logrus.Fields{"op": "list", "limit": opts.Limit, "offset": opts.Offset}).Debug("sql")
	opts.Clamp()

	where, args := "", []any{}
	if opts.Policy != "" {
		where = " WHERE policy = ?"
		args = append(args, opts.Policy)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, policy, source, report, created_at FROM runs`+where+
			` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, run)
	}
	return runs, total, rows.Err()
}

// DeleteRun removes a run. Unknown IDs return ErrNotFound.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	s.log.WithFields(logrus.Fields{"op": "delete", "id": id}).Debug("sql")

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var run RunRecord
	var reportJSON, createdAt string
	if err := row.Scan(&run.ID, &run.Policy, &run.Source, &reportJSON, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(reportJSON), &run.Report); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", run.ID, err)
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %s: %w", run.ID, err)
	}
	run.CreatedAt = t
	return &run, nil
}

var _ Store = (*SQLiteStore)(nil)
