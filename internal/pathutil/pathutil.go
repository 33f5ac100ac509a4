// Package pathutil resolves user-supplied paths to the canonical absolute
// form used as file identity throughout the index.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tokendex/tokendex/internal/errors"
)

// Canonicalize returns an absolute, lexically normalized path for p, with
// symlinks resolved on the deepest existing prefix. It does not require p to
// exist: components below the existing prefix are appended literally after
// `.`/`..` normalization. Relative inputs are rooted at the current working
// directory.
//
// Two inputs that canonicalize equal denote the same file and share a FileID.
func Canonicalize(path string) (string, error) {
	if path == "" {
		return "", errors.InvalidPathError(path, nil)
	}
	if strings.IndexByte(path, 0) >= 0 {
		return "", errors.InvalidPathError(path, nil)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.InvalidPathError(path, err)
	}
	abs = filepath.Clean(abs)

	// Resolve the longest existing prefix through the OS, then re-append the
	// missing tail components.
	prefix := abs
	var tail []string
	for {
		resolved, err := filepath.EvalSymlinks(prefix)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			// Permission or I/O failure below this point: fall back to the
			// lexical form, which is still a stable identity.
			return abs, nil
		}

		parent := filepath.Dir(prefix)
		if parent == prefix {
			return abs, nil
		}
		tail = append(tail, filepath.Base(prefix))
		prefix = parent
	}
}

// Head returns the first component of a relative path.
// Head("a/b/c") == "a"; Head("a") == "a".
func Head(rel string) string {
	rel = filepath.Clean(rel)
	if i := strings.IndexByte(rel, filepath.Separator); i >= 0 {
		return rel[:i]
	}
	return rel
}

// HasParent reports whether a relative path has more than one component.
func HasParent(rel string) bool {
	return strings.IndexByte(filepath.Clean(rel), filepath.Separator) >= 0
}

// RelativeTo returns p expressed relative to base. Both paths are treated
// lexically; no filesystem access is performed.
func RelativeTo(base, p string) (string, error) {
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return "", errors.InvalidPathError(p, err)
	}
	return rel, nil
}
