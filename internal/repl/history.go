package repl

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/peterh/liner"
)

// loadHistory reads persisted command history. Concurrent tokendex sessions
// share the file, so reads and writes go through an advisory lock.
func loadHistory(line *liner.State, path string) {
	if path == "" {
		return
	}

	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return
	}
	defer lock.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.ReadHistory(f)
}

// saveHistory persists command history with owner-only permissions.
func saveHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return
	}
	defer lock.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}
