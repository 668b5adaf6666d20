package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

var schemas = map[string]string{
	DriverSQLite: `CREATE TABLE IF NOT EXISTS quill_runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		source      TEXT    NOT NULL,
		started_at  INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		result      TEXT    NOT NULL,
		error       TEXT    NOT NULL
	)`,
	DriverMySQL: `CREATE TABLE IF NOT EXISTS quill_runs (
		id          BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
		source      VARCHAR(1024) NOT NULL,
		started_at  BIGINT       NOT NULL,
		duration_ms BIGINT       NOT NULL,
		result      TEXT         NOT NULL,
		error       TEXT         NOT NULL
	)`,
}

// Run is one evaluation of an AST document. Result holds the rendered final
// value and Error the failure message; at most one of them is set.
type Run struct {
	ID        int64
	Source    string
	StartedAt time.Time
	Duration  time.Duration
	Result    string
	Error     string
}

func (r Run) Failed() bool { return r.Error != "" }

type Journal struct {
	DB     *sql.DB
	Driver string
}

// Open connects to the journal database and creates the runs table if it
// does not exist yet.
func Open(ctx context.Context, driver, dsn string) (*Journal, error) {
	schema, ok := schemas[driver]
	if !ok {
		return nil, fmt.Errorf("journal: unsupported driver '%s'", driver)
	}

	if driver == DriverMySQL {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		dsn = cfg.FormatDSN()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// every pooled connection to ":memory:" would get its own database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}

	slog.Debug("journal opened", slog.String("driver", driver))
	return &Journal{DB: db, Driver: driver}, nil
}

// Record stores run and returns its id.
func (j *Journal) Record(ctx context.Context, run Run) (int64, error) {
	tx, err := j.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("journal: begin: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO quill_runs (source, started_at, duration_ms, result, error) VALUES (?, ?, ?, ?, ?)`,
		run.Source,
		run.StartedAt.UnixMilli(),
		run.Duration.Milliseconds(),
		run.Result,
		run.Error,
	)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("journal: insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("journal: insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("journal: commit: %w", err)
	}

	slog.Debug("run recorded",
		slog.Int64("id", id),
		slog.String("source", run.Source),
		slog.Bool("failed", run.Failed()))
	return id, nil
}

// Recent returns up to limit runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := j.DB.QueryContext(ctx,
		`SELECT id, source, started_at, duration_ms, result, error FROM quill_runs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt, durationMs int64
		if err := rows.Scan(&run.ID, &run.Source, &startedAt, &durationMs, &run.Result, &run.Error); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		run.StartedAt = time.UnixMilli(startedAt)
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: rows: %w", err)
	}
	return runs, nil
}

func (j *Journal) Close() error {
	return j.DB.Close()
}
