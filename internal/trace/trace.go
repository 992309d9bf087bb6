// Package trace records executed instructions to a SQL database, one row
// per run and one per step. It is wired into the VM through its step hook
// and is entirely optional; a recording failure disables the recorder
// instead of faulting the run.
package trace

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TIMESTAMP NOT NULL,
	source     TEXT NOT NULL,
	outcome    TEXT NOT NULL DEFAULT 'running'
);
CREATE TABLE IF NOT EXISTS steps (
	run_id       INTEGER NOT NULL,
	idx          INTEGER NOT NULL,
	op           TEXT NOT NULL,
	src_position INTEGER NOT NULL
);`

	mysqlSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id         BIGINT PRIMARY KEY AUTO_INCREMENT,
	started_at TIMESTAMP NOT NULL,
	source     TEXT NOT NULL,
	outcome    VARCHAR(16) NOT NULL DEFAULT 'running'
);
CREATE TABLE IF NOT EXISTS steps (
	run_id       BIGINT NOT NULL,
	idx          INT NOT NULL,
	op           VARCHAR(16) NOT NULL,
	src_position INT NOT NULL
);`
)

type Recorder struct {
	db    *sql.DB
	runID int64
	tx    *sql.Tx
	dead  bool
}

// Open connects to the trace database and ensures the schema exists. The
// spec string has the form driver:dsn, e.g. sqlite3:trace.db or
// mysql:user:pass@/dbname.
func Open(spec string) (*Recorder, error) {
	driver, dsn, ok := strings.Cut(spec, ":")
	if !ok || dsn == "" {
		return nil, fmt.Errorf("trace database spec must be driver:dsn, got '%s'", spec)
	}
	if driver != "sqlite3" && driver != "mysql" {
		return nil, fmt.Errorf("unsupported trace database driver '%s'", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}

	schema := sqliteSchema
	if driver == "mysql" {
		schema = mysqlSchema
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create trace schema: %w", err)
		}
	}

	return &Recorder{db: db}, nil
}

// Begin opens a run row and a transaction that the per-step inserts join.
func (r *Recorder) Begin(source string) error {
	result, err := r.db.Exec(
		"INSERT INTO runs (started_at, source, outcome) VALUES (?, ?, 'running')",
		time.Now().UTC(), source)
	if err != nil {
		return err
	}
	r.runID, err = result.LastInsertId()
	if err != nil {
		return err
	}
	r.tx, err = r.db.Begin()
	return err
}

// Step records one executed instruction. Failures are logged and mute the
// recorder; they never fault the run being traced.
func (r *Recorder) Step(index int, op string, position int) {
	if r.dead || r.tx == nil {
		return
	}
	_, err := r.tx.Exec(
		"INSERT INTO steps (run_id, idx, op, src_position) VALUES (?, ?, ?, ?)",
		r.runID, index, op, position)
	if err != nil {
		slog.Warn("trace step insert failed, disabling recorder",
			slog.Int64("run", r.runID),
			slog.Any("error", err))
		r.dead = true
	}
}

// Finish commits the recorded steps and stamps the run's terminal outcome
// (halted, faulted or aborted).
func (r *Recorder) Finish(outcome string) error {
	if r.tx != nil {
		if err := r.tx.Commit(); err != nil {
			return err
		}
		r.tx = nil
	}
	_, err := r.db.Exec("UPDATE runs SET outcome = ? WHERE id = ?", outcome, r.runID)
	return err
}

func (r *Recorder) Close() error {
	if r.tx != nil {
		r.tx.Rollback()
		r.tx = nil
	}
	return r.db.Close()
}
