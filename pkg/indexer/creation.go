package indexer

import (
	"path/filepath"

	"github.com/tokendex/tokendex/internal/pathutil"
)

// creationTracker tracks paths the user asked for that do not yet exist.
// Each key is the deepest existing ancestor currently watched for a pending
// child; the value holds one relative path per still-missing descendant.
// An empty set means the key is dropped and its watch released.
type creationTracker struct {
	watches map[string]map[string]struct{}
}

func newCreationTracker() *creationTracker {
	return &creationTracker{watches: make(map[string]map[string]struct{})}
}

// Has reports whether ancestor is already watched for pending children.
func (c *creationTracker) Has(ancestor string) bool {
	_, ok := c.watches[ancestor]
	return ok
}

// Add records rel as pending below ancestor.
func (c *creationTracker) Add(ancestor, rel string) {
	set, ok := c.watches[ancestor]
	if !ok {
		set = make(map[string]struct{})
		c.watches[ancestor] = set
	}
	set[rel] = struct{}{}
}

// Take removes an exact single-component match and reports whether it was
// pending. A hit means the awaited path itself just appeared.
func (c *creationTracker) Take(ancestor, name string) bool {
	set, ok := c.watches[ancestor]
	if !ok {
		return false
	}
	if _, ok := set[name]; !ok {
		return false
	}
	delete(set, name)
	return true
}

// Reroot removes every multi-component pending path whose head is name and
// returns the full paths to re-await one level deeper.
func (c *creationTracker) Reroot(ancestor, name string) []string {
	set, ok := c.watches[ancestor]
	if !ok {
		return nil
	}
	var fulls []string
	for rel := range set {
		if pathutil.HasParent(rel) && pathutil.Head(rel) == name {
			delete(set, rel)
			fulls = append(fulls, filepath.Join(ancestor, rel))
		}
	}
	return fulls
}

// Pending returns the full paths of everything awaited below ancestor.
// Used when the watched ancestor itself disappears and every pending entry
// must be re-rooted further up.
func (c *creationTracker) Pending(ancestor string) []string {
	set, ok := c.watches[ancestor]
	if !ok {
		return nil
	}
	fulls := make([]string, 0, len(set))
	for rel := range set {
		fulls = append(fulls, filepath.Join(ancestor, rel))
	}
	return fulls
}

// Empty reports whether ancestor has no pending children left.
func (c *creationTracker) Empty(ancestor string) bool {
	set, ok := c.watches[ancestor]
	return ok && len(set) == 0
}

// Drop forgets ancestor entirely.
func (c *creationTracker) Drop(ancestor string) {
	delete(c.watches, ancestor)
}
