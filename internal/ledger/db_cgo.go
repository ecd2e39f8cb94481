//go:build cgo_sqlite

package ledger

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// openDB opens the ledger with the cgo driver, selected by the
// cgo_sqlite build tag.
func openDB(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", path)
}
