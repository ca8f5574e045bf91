package database

import (
	"database/sql"
	"fmt"
	"time"

	"netconf-go/internal/database/migrations"
	"netconf-go/internal/model"
	"netconf-go/internal/netconf"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the RunStore interface using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		// A cron run and a manual run may overlap.
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return db, nil
}

// StartRun inserts run with status running and returns its row ID.
func (s *SQLiteDatabase) StartRun(run *model.CompileRun) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO compile_runs (run_id, operation, mode, started_at, status)
		 VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.Operation, run.Mode, run.StartedAt.UTC(), model.RunStatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("creating compile run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading compile run id: %w", err)
	}
	run.ID = id
	run.Status = model.RunStatusRunning
	return id, nil
}

func (s *SQLiteDatabase) FinishRun(id int64, status string, digest string, changed bool, message string) error {
	res, err := s.db.Exec(
		`UPDATE compile_runs
		 SET finished_at = ?, status = ?, digest = ?, changed = ?, message = ?
		 WHERE id = ?`,
		time.Now().UTC(), status, digest, changed, message, id,
	)
	if err != nil {
		return fmt.Errorf("finishing compile run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing compile run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finishing compile run: no run with id %d", id)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *SQLiteDatabase) ListRuns(limit int) ([]*model.CompileRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT id, run_id, operation, mode, started_at, finished_at, status, digest, changed, message
		 FROM compile_runs
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing compile runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.CompileRun
	for rows.Next() {
		r := &model.CompileRun{}
		if err := rows.Scan(&r.ID, &r.RunID, &r.Operation, &r.Mode, &r.StartedAt, &r.FinishedAt,
			&r.Status, &r.Digest, &r.Changed, &r.Message); err != nil {
			return nil, fmt.Errorf("scanning compile run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing compile runs: %w", err)
	}
	return runs, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Migrate brings the schema up to date.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ netconf.RunStore = (*SQLiteDatabase)(nil)
