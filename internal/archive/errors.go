package archive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
)

// ErrAccess marks store-level failures: database unreachable, locked, or
// schema mismatch. Callers match it with errors.Is. Search is all-or-nothing,
// so these propagate instead of degrading.
var ErrAccess = errors.New("archive access")

// accessErr tags a driver error with ErrAccess and the failing query name.
func accessErr(query string, err error) error {
	return eris.Wrapf(fmt.Errorf("%w: %v", ErrAccess, err), "query %s", query)
}

// isSQLiteError checks if err is a sqlite3.Error whose message contains
// substr.
func isSQLiteError(err error, substr string) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return strings.Contains(sqliteErr.Error(), substr)
	}
	var sqliteErrPtr *sqlite3.Error
	if errors.As(err, &sqliteErrPtr) && sqliteErrPtr != nil {
		return strings.Contains(sqliteErrPtr.Error(), substr)
	}
	return false
}
