//go:build !cgo_sqlite

package ledger

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// openDB opens the ledger with the pure-Go driver, the default build.
func openDB(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path)
}
