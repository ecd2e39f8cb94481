// Package assets carries the canonical byte content of every file the
// scaffolder emits. The bytes are embedded at build time and written out
// unchanged on every run, which is what keeps re-provisioning idempotent.
package assets

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"sort"
)

//go:embed templates
var templates embed.FS

// payloadNames maps workspace-relative file paths to embedded template
// names. Dotfiles are stored without the leading dot because go:embed
// skips hidden files.
var payloadNames = map[string]string{
	"scraper/requirements.txt": "templates/requirements.txt",
	"dashboard/package.json":   "templates/package.json",
	"README.md":                "templates/README.md",
	".gitignore":               "templates/gitignore",
	"docs/SETUP.md":            "templates/SETUP.md",
}

// Payload returns the canonical bytes for a workspace-relative file path.
func Payload(rel string) ([]byte, error) {
	name, ok := payloadNames[rel]
	if !ok {
		return nil, fmt.Errorf("no payload for %s", rel)
	}
	data, err := templates.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload %s: %w", name, err)
	}
	return data, nil
}

// Digest returns the hex SHA-256 of the canonical bytes for rel.
func Digest(rel string) (string, error) {
	data, err := Payload(rel)
	if err != nil {
		return "", err
	}
	return DigestBytes(data), nil
}

// DigestBytes returns the hex SHA-256 of data.
func DigestBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Names returns the workspace-relative paths of all payloads, sorted.
func Names() []string {
	out := make([]string, 0, len(payloadNames))
	for rel := range payloadNames {
		out = append(out, rel)
	}
	sort.Strings(out)
	return out
}
