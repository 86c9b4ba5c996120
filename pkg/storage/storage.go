package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

var ErrRunNotFound = errors.New("run not found")

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS generation_runs (
  id            INTEGER PRIMARY KEY,
  scopetag      TEXT NOT NULL,
  scopedir      TEXT NOT NULL,
  vsntag        TEXT NOT NULL,
  output_path   TEXT,
  dry_run       INTEGER NOT NULL DEFAULT 0 CHECK (dry_run IN (0,1)),
  entry_count   INTEGER NOT NULL DEFAULT 0,
  warning_count INTEGER NOT NULL DEFAULT 0,
  started_at    DATETIME NOT NULL,
  finished_at   DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_scope ON generation_runs(scopetag, vsntag, id);
CREATE TABLE IF NOT EXISTS run_entries (
  id       INTEGER PRIMARY KEY,
  run_id   INTEGER NOT NULL REFERENCES generation_runs(id) ON DELETE CASCADE,
  term_id  TEXT NOT NULL,
  scopetag TEXT NOT NULL,
  locator  TEXT
);
CREATE INDEX IF NOT EXISTS idx_entries_run ON run_entries(run_id);
CREATE TABLE IF NOT EXISTS run_warnings (
  id      INTEGER PRIMARY KEY,
  run_id  INTEGER NOT NULL REFERENCES generation_runs(id) ON DELETE CASCADE,
  message TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_warnings_run ON run_warnings(run_id);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// RecordRun stores a run with its entries and warnings and returns its id.
func (d *DB) RecordRun(ctx context.Context, run Run) (id int64, err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO generation_runs(scopetag, scopedir, vsntag, output_path, dry_run, entry_count, warning_count, started_at, finished_at) VALUES(?,?,?,?,?,?,?,?,?)`,
		run.ScopeTag, run.ScopeDir, run.VersionTag, nullIfEmpty(run.OutputPath), boolToInt(run.DryRun), len(run.Entries), len(run.Warnings),
		run.StartedAt.UTC().Format(time.RFC3339), run.FinishedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, e := range run.Entries {
		if _, err = tx.ExecContext(ctx, `INSERT INTO run_entries(run_id, term_id, scopetag, locator) VALUES(?,?,?,?)`, id, e.TermID, e.ScopeTag, nullIfEmpty(e.Locator)); err != nil {
			return 0, err
		}
	}
	for _, w := range run.Warnings {
		if _, err = tx.ExecContext(ctx, `INSERT INTO run_warnings(run_id, message) VALUES(?,?)`, id, w); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListOptions controls selection when listing runs.
type ListOptions struct {
	ScopeTag   string
	VersionTag string
	Since      time.Time
	Limit      int // defaults to 50 if <= 0
}

const runColumns = "id, scopetag, scopedir, vsntag, output_path, dry_run, entry_count, warning_count, started_at, finished_at"

// ListRuns returns recorded runs, most recent first.
func (d *DB) ListRuns(ctx context.Context, opts ListOptions) ([]Run, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.ScopeTag != "" {
		where += " AND scopetag = ?"
		args = append(args, opts.ScopeTag)
	}
	if opts.VersionTag != "" {
		where += " AND vsntag = ?"
		args = append(args, opts.VersionTag)
	}
	if !opts.Since.IsZero() {
		where += " AND started_at >= ?"
		args = append(args, opts.Since.UTC().Format(time.RFC3339))
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	rows, err := d.sql.QueryContext(ctx, "SELECT "+runColumns+" FROM generation_runs "+where+" ORDER BY id DESC LIMIT ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetRun returns a single run without its entries.
func (d *DB) GetRun(ctx context.Context, id int64) (Run, error) {
	row := d.sql.QueryRowContext(ctx, "SELECT "+runColumns+" FROM generation_runs WHERE id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return r, err
}

// PreviousRun returns the latest run of the same scope and version recorded
// before run, or ErrRunNotFound.
func (d *DB) PreviousRun(ctx context.Context, run Run) (Run, error) {
	row := d.sql.QueryRowContext(ctx, "SELECT "+runColumns+" FROM generation_runs WHERE scopetag = ? AND vsntag = ? AND id < ? ORDER BY id DESC LIMIT 1", run.ScopeTag, run.VersionTag, run.ID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return r, err
}

func (d *DB) ListRunEntries(ctx context.Context, runID int64) ([]RunEntry, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT term_id, scopetag, locator FROM run_entries WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunEntry
	for rows.Next() {
		var e RunEntry
		var locator sql.NullString
		if err := rows.Scan(&e.TermID, &e.ScopeTag, &locator); err != nil {
			return nil, err
		}
		e.Locator = locator.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (d *DB) ListRunWarnings(ctx context.Context, runID int64) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT message FROM run_warnings WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Changes compares the entries of two runs. Entries are matched on scope tag
// and term id.
func (d *DB) Changes(ctx context.Context, fromRunID, toRunID int64) ([]Change, error) {
	before, err := d.ListRunEntries(ctx, fromRunID)
	if err != nil {
		return nil, err
	}
	after, err := d.ListRunEntries(ctx, toRunID)
	if err != nil {
		return nil, err
	}

	old := make(map[string]bool, len(before))
	for _, e := range before {
		old[e.key()] = true
	}
	current := make(map[string]bool, len(after))
	var changes []Change
	for _, e := range after {
		current[e.key()] = true
		if !old[e.key()] {
			changes = append(changes, Change{Entry: e, ChangeType: "added"})
		}
	}
	for _, e := range before {
		if !current[e.key()] {
			changes = append(changes, Change{Entry: e, ChangeType: "removed"})
		}
	}
	return changes, nil
}

func (d *DB) GetStats(ctx context.Context) ([]ScopeStats, error) {
	query := `
		SELECT
			r.scopetag,
			COUNT(*),
			COUNT(DISTINCT r.vsntag),
			(SELECT l.entry_count FROM generation_runs l WHERE l.scopetag = r.scopetag ORDER BY l.id DESC LIMIT 1)
		FROM
			generation_runs r
		GROUP BY
			r.scopetag
		ORDER BY
			r.scopetag;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ScopeStats
	for rows.Next() {
		var s ScopeStats
		if err := rows.Scan(&s.ScopeTag, &s.RunCount, &s.VersionCount, &s.EntryCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r                 Run
		output            sql.NullString
		dryRun            int
		started, finished string
	)
	if err := row.Scan(&r.ID, &r.ScopeTag, &r.ScopeDir, &r.VersionTag, &output, &dryRun, &r.EntryCount, &r.WarningCount, &started, &finished); err != nil {
		return Run{}, err
	}
	r.OutputPath = output.String
	r.DryRun = dryRun == 1
	r.StartedAt = parseTimestamp(started)
	r.FinishedAt = parseTimestamp(finished)
	return r, nil
}

// parseTimestamp accepts RFC3339 and SQLite's CURRENT_TIMESTAMP format.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
