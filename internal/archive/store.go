// Package archive provides read-only access to the Messages chat.db store:
// filtered, paginated search; recent-message and chat lookups; and recovery
// of text from rich-text payloads at the row boundary.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
)

// SearchRecorder receives completed searches. Recording is fire-and-forget:
// implementations should be cheap, and failures are logged, never surfaced
// to the search caller.
type SearchRecorder interface {
	RecordSearch(f Filters, totalCount int64) error
}

// Archive is a read-only view over a Messages database. The store is
// externally owned; Archive never writes to it.
type Archive struct {
	db       *sql.DB
	dbPath   string
	logger   *slog.Logger
	recorder SearchRecorder
}

// Option configures an Archive.
type Option func(*Archive)

// WithRecorder attaches a search-history sink.
func WithRecorder(r SearchRecorder) Option {
	return func(a *Archive) { a.recorder = r }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(a *Archive) { a.logger = l }
}

// DefaultPath returns the standard location of the Messages database.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "chat.db"
	}
	return filepath.Join(home, "Library", "Messages", "chat.db")
}

// Open opens the database at dbPath in read-only mode and verifies access.
// The returned error explains the likely cause (missing database, Full Disk
// Access not granted, Messages holding a lock) when verification fails.
func Open(dbPath string, opts ...Option) (*Archive, error) {
	if dbPath == "" {
		dbPath = DefaultPath()
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, eris.Wrapf(ErrAccess,
			"no Messages database at %s; the Messages app may not be set up, or the path is wrong",
			dbPath)
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, accessErr("open", err)
	}

	a := &Archive{db: db, dbPath: dbPath, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.verifyAccess(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// verifyAccess runs a trivial query to distinguish permission and lock
// problems from a healthy store up front, where the diagnosis is actionable.
func (a *Archive) verifyAccess() error {
	var one int
	err := a.db.QueryRow("SELECT 1").Scan(&one)
	if err == nil {
		return nil
	}
	switch {
	case isSQLiteError(err, "database is locked"):
		return eris.Wrap(fmt.Errorf("%w: %v", ErrAccess, err),
			"Messages database is locked; close the Messages app and retry")
	case isSQLiteError(err, "unable to open database file"):
		return eris.Wrap(fmt.Errorf("%w: %v", ErrAccess, err),
			"permission denied; grant Full Disk Access to your terminal in System Settings > Privacy & Security")
	default:
		return accessErr("verify", err)
	}
}

// Close releases the database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

// conn checks a single connection out of the pool. Every query runs on its
// own scoped connection, released on all exit paths.
func (a *Archive) conn(ctx context.Context) (*sql.Conn, error) {
	c, err := a.db.Conn(ctx)
	if err != nil {
		return nil, accessErr("acquire connection", err)
	}
	return c, nil
}
