package ledger

import (
	"os"
	"path/filepath"
)

// DefaultPath returns the ledger location under the XDG state directory,
// falling back to ~/.local/state when XDG_STATE_HOME is unset.
func DefaultPath() string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".mergelytics", "ledger.db")
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "mergelytics", "ledger.db")
}
