// Package store holds the in-memory dual-map token index: a forward index
// from file to token set and an inverted index from token to file set, kept
// mutually consistent under a single lock.
package store

import (
	"bytes"
	"crypto/sha256"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tokendex/tokendex/internal/errors"
	"github.com/tokendex/tokendex/pkg/tokenizer"
)

// FileID is the dense integer identity of a canonical path. IDs are
// allocated monotonically and never reused; an ID outlives removal of its
// file so a recreation keeps the same identity.
type FileID int

// DefaultMaxFileSize is the default maximum file size to index (100MB).
// Larger files are indexed as empty to prevent memory exhaustion.
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// DefaultHashCacheSize is the default capacity of the content-hash cache
// used to short-circuit reindexing of unchanged files.
const DefaultHashCacheSize = 4096

// Options configures the store.
type Options struct {
	// MaxFileSize is the maximum file size to index in bytes.
	// Defaults to DefaultMaxFileSize if zero.
	MaxFileSize int64

	// HashCacheSize is the capacity of the content-hash LRU.
	// Defaults to DefaultHashCacheSize if zero.
	HashCacheSize int
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	if o.MaxFileSize == 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.HashCacheSize == 0 {
		o.HashCacheSize = DefaultHashCacheSize
	}
	return o
}

// Store is the dual-map index. All operations take the single store lock;
// queries take it shared, mutations exclusive.
type Store struct {
	mu sync.RWMutex

	nextID FileID
	idOf   map[string]FileID
	pathOf map[FileID]string

	forward  map[FileID]map[string]struct{}
	inverted map[string]map[FileID]struct{}

	proto  tokenizer.Tokenizer
	hashes *lru.Cache[string, [sha256.Size]byte]
	opts   Options
}

// New creates an empty store tokenizing with clones of proto.
func New(proto tokenizer.Tokenizer, opts Options) (*Store, error) {
	opts = opts.WithDefaults()
	hashes, err := lru.New[string, [sha256.Size]byte](opts.HashCacheSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err)
	}
	return &Store{
		idOf:     make(map[string]FileID),
		pathOf:   make(map[FileID]string),
		forward:  make(map[FileID]map[string]struct{}),
		inverted: make(map[string]map[FileID]struct{}),
		proto:    proto,
		hashes:   hashes,
		opts:     opts,
	}, nil
}

// fileID allocates or looks up the FileID for a canonical path.
// Caller must hold the write lock.
func (s *Store) fileID(path string) FileID {
	if id, ok := s.idOf[path]; ok {
		return id
	}
	id := s.nextID
	s.nextID++
	s.idOf[path] = id
	s.pathOf[id] = path
	return id
}

// AddFile tokenizes path and inserts its token set. If the file is already
// indexed the call degrades to a reindex, so repeated adds are idempotent.
func (s *Store) AddFile(path string) {
	s.mu.Lock()
	id := s.fileID(path)
	s.mu.Unlock()

	tokens, hash := s.tokenizeFile(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forward[id]; ok {
		s.applyReindex(id, tokens)
	} else {
		s.forward[id] = tokens
		for token := range tokens {
			s.invert(token, id)
		}
	}
	s.hashes.Add(path, hash)
}

// RemoveFile drops the file's token set from both maps. The FileID and its
// path mapping survive so a recreation keeps the same identity. Unknown or
// already-removed paths are a no-op.
func (s *Store) RemoveFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.idOf[path]
	if !ok {
		return
	}
	tokens, ok := s.forward[id]
	if !ok {
		return
	}
	for token := range tokens {
		s.uninvert(token, id)
	}
	delete(s.forward, id)
	s.hashes.Remove(path)
}

// ReindexFile re-tokenizes path and swaps its token set atomically with
// respect to Lookup: a concurrent query sees either the complete pre-state
// or the complete post-state. Unchanged content is detected by hash and
// leaves the store untouched.
func (s *Store) ReindexFile(path string) {
	s.mu.Lock()
	id := s.fileID(path)
	_, indexed := s.forward[id]
	s.mu.Unlock()

	tokens, hash := s.tokenizeFile(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if indexed {
		if prev, ok := s.hashes.Get(path); ok && prev == hash {
			return
		}
		s.applyReindex(id, tokens)
	} else {
		s.forward[id] = tokens
		for token := range tokens {
			s.invert(token, id)
		}
	}
	s.hashes.Add(path, hash)
}

// applyReindex diffs the new token set against the current one.
// Caller must hold the write lock and have a forward entry for id.
func (s *Store) applyReindex(id FileID, next map[string]struct{}) {
	prev := s.forward[id]
	for token := range prev {
		if _, keep := next[token]; !keep {
			s.uninvert(token, id)
		}
	}
	for token := range next {
		if _, had := prev[token]; !had {
			s.invert(token, id)
		}
	}
	s.forward[id] = next
}

func (s *Store) invert(token string, id FileID) {
	ids, ok := s.inverted[token]
	if !ok {
		ids = make(map[FileID]struct{})
		s.inverted[token] = ids
	}
	ids[id] = struct{}{}
}

// uninvert removes id from the token's posting set, dropping the key when
// the last id leaves.
func (s *Store) uninvert(token string, id FileID) {
	ids, ok := s.inverted[token]
	if !ok {
		return
	}
	delete(ids, id)
	if len(ids) == 0 {
		delete(s.inverted, token)
	}
}

// Lookup returns the canonical paths of all files containing token, as a
// fresh sorted slice. Unknown tokens yield an empty result.
func (s *Store) Lookup(token string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.inverted[token]
	if !ok {
		return nil
	}
	paths := make([]string, 0, len(ids))
	for id := range ids {
		paths = append(paths, s.pathOf[id])
	}
	sort.Strings(paths)
	return paths
}

// Indexed reports whether path currently has a forward entry.
func (s *Store) Indexed(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.idOf[path]
	if !ok {
		return false
	}
	_, ok = s.forward[id]
	return ok
}

// Known reports whether path ever received a FileID.
func (s *Store) Known(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.idOf[path]
	return ok
}

// IndexedUnder returns the currently indexed paths that descend from dir.
func (s *Store) IndexedUnder(dir string) []string {
	prefix := dir + string(os.PathSeparator)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var paths []string
	for id := range s.forward {
		p := s.pathOf[id]
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// Stats returns the number of indexed files and distinct tokens.
func (s *Store) Stats() (files, tokens int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.forward), len(s.inverted)
}

// tokenizeFile reads path and produces its token set plus a content hash.
// A missing file yields the empty set; unreadable or oversized files are
// logged and treated as empty, leaving the registration in place so a later
// event retries.
func (s *Store) tokenizeFile(path string) (map[string]struct{}, [sha256.Size]byte) {
	tokens := make(map[string]struct{})

	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("cannot stat file, indexing as empty",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return tokens, sha256.Sum256(nil)
	}
	if info.Size() > s.opts.MaxFileSize {
		slog.Warn("skipping oversized file",
			slog.String("path", path),
			slog.Int64("size", info.Size()),
			slog.Int64("max", s.opts.MaxFileSize))
		return tokens, sha256.Sum256(nil)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		ierr := errors.PathInaccessibleError(path, err)
		slog.Warn("cannot read file, indexing as empty",
			slog.String("path", path),
			slog.String("code", ierr.Code),
			slog.String("error", err.Error()))
		return tokens, sha256.Sum256(nil)
	}

	tok := s.proto.Clone()
	lines := bytes.Split(content, []byte{'\n'})
	for i, line := range lines {
		tok.FeedLine(string(line))
		if i == len(lines)-1 {
			tok.FeedEOF()
		}
		for !tok.Done() {
			tokens[tok.Next()] = struct{}{}
		}
	}

	return tokens, sha256.Sum256(content)
}
