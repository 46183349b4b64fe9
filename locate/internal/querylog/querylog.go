// CLAUDE:SUMMARY SQLite sink for shipped queries; writes never block or fail a search.
// Package querylog records every query shipped to a document in an SQLite
// table. Writes are fire-and-forget: errors are logged via slog and swallowed.
package querylog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/domfind/locate/internal/dom"
)

const schema = `
CREATE TABLE IF NOT EXISTS query_logs (
	query_id   TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	expr       TEXT NOT NULL,
	shadow     INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_query_logs_created ON query_logs(created_at);
`

// Entry is one recorded query.
type Entry struct {
	ID        string
	Kind      dom.Kind
	Expr      string
	Shadow    bool
	CreatedAt time.Time
}

// Logger writes query rows.
type Logger struct {
	db     *sql.DB
	newID  func() string
	logger *slog.Logger
}

// Option configures a Logger.
type Option func(*Logger)

// WithIDGenerator sets a custom ID generator for row IDs.
func WithIDGenerator(gen func() string) Option {
	return func(l *Logger) { l.newID = gen }
}

// WithLogger sets the slog logger used to report write failures.
func WithLogger(lg *slog.Logger) Option {
	return func(l *Logger) { l.logger = lg }
}

// New creates a Logger on an already-open database and ensures the schema.
func New(db *sql.DB, opts ...Option) (*Logger, error) {
	l := &Logger{
		db: db,
		newID: func() string {
			return "q_" + uuid.Must(uuid.NewV7()).String()
		},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(l)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("querylog: schema: %w", err)
	}
	return l, nil
}

// Open opens (or creates) the SQLite database at path with WAL pragmas and
// returns a Logger that owns it. Use ":memory:" for tests.
func Open(path string, opts ...Option) (*Logger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("querylog: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("querylog: open: %w", err)
	}
	if path == ":memory:" {
		// each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	for _, p := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("querylog: %s: %w", p, err)
		}
	}
	l, err := New(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// Close closes the underlying database.
func (l *Logger) Close() error { return l.db.Close() }

// LogQuery records q. Non-blocking: errors are logged but never returned.
func (l *Logger) LogQuery(ctx context.Context, q dom.Query) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO query_logs (query_id, kind, expr, shadow, created_at)
		VALUES (?,?,?,?,?)`,
		l.newID(), string(q.Kind), q.Expr, q.Shadow, time.Now().UnixMilli())
	if err != nil {
		l.logger.Warn("querylog: insert failed", "error", err, "kind", q.Kind)
	}
}

// Recent returns the latest entries, newest first.
func (l *Logger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT query_id, kind, expr, shadow, created_at
		FROM query_logs ORDER BY created_at DESC, query_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querylog: recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e    Entry
			kind string
			ms   int64
		)
		if err := rows.Scan(&e.ID, &kind, &e.Expr, &e.Shadow, &ms); err != nil {
			return nil, fmt.Errorf("querylog: scan: %w", err)
		}
		e.Kind = dom.Kind(kind)
		e.CreatedAt = time.UnixMilli(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Cleanup deletes entries older than maxAge.
func (l *Logger) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	res, err := l.db.ExecContext(ctx, `DELETE FROM query_logs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("querylog: cleanup: %w", err)
	}
	return res.RowsAffected()
}
