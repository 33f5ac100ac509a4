package indexer

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tokendex/tokendex/internal/pathutil"
	"github.com/tokendex/tokendex/internal/store"
	"github.com/tokendex/tokendex/internal/watcher"
	"github.com/tokendex/tokendex/pkg/tokenizer"
)

// Recursive selects whether a directory registration follows subdirectories.
type Recursive int

const (
	// RecursiveNo indexes only the direct file children of a directory.
	RecursiveNo Recursive = iota
	// RecursiveYes follows subdirectories transitively.
	RecursiveYes
)

// String returns a human-readable representation of the recursion mode.
func (r Recursive) String() string {
	if r == RecursiveYes {
		return "recursive"
	}
	return "non-recursive"
}

// Indexer is the live index controller. It services AddPath and Search
// synchronously and runs one background goroutine draining the watcher.
//
// Indexer is safe for concurrent use.
type Indexer struct {
	store   *store.Store
	watcher watcher.Watcher
	log     *slog.Logger

	// mu guards addedPaths, indexedDirectories, and creations. The store has
	// its own lock; mu is always acquired first when both are needed.
	mu                 sync.Mutex
	addedPaths         map[string]struct{}
	indexedDirectories map[string]Recursive
	creations          *creationTracker

	maxWorkers int

	stop      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
	closeErr  error
}

type options struct {
	tokenizer   tokenizer.Tokenizer
	watcher     watcher.Watcher
	storeOpts   store.Options
	watcherOpts watcher.Options
	logger      *slog.Logger
	maxWorkers  int
}

// Option configures an Indexer.
type Option func(*options)

// WithTokenizer sets the tokenization strategy. Defaults to the word
// tokenizer.
func WithTokenizer(tok tokenizer.Tokenizer) Option {
	return func(o *options) { o.tokenizer = tok }
}

// WithWatcher replaces the platform watcher. Intended for tests.
func WithWatcher(w watcher.Watcher) Option {
	return func(o *options) { o.watcher = w }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithMaxWorkers caps concurrent tokenization. Defaults to the hardware
// parallelism.
func WithMaxWorkers(n int) Option {
	return func(o *options) { o.maxWorkers = n }
}

// WithStoreOptions overrides index store tuning.
func WithStoreOptions(opts store.Options) Option {
	return func(o *options) { o.storeOpts = opts }
}

// WithWatcherOptions overrides watcher tuning.
func WithWatcherOptions(opts watcher.Options) Option {
	return func(o *options) { o.watcherOpts = opts }
}

// New creates an Indexer and starts its background watcher loop.
// Watcher initialization failures (resource exhaustion, kernel OOM) are
// fatal and returned with a named error kind.
func New(opts ...Option) (*Indexer, error) {
	o := options{
		tokenizer:  tokenizer.NewWordTokenizer(),
		logger:     slog.Default(),
		maxWorkers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxWorkers < 1 {
		o.maxWorkers = 1
	}

	st, err := store.New(o.tokenizer, o.storeOpts)
	if err != nil {
		return nil, err
	}

	w := o.watcher
	if w == nil {
		w, err = watcher.NewFsnotifyWatcher(o.watcherOpts)
		if err != nil {
			return nil, err
		}
	}

	i := &Indexer{
		store:              st,
		watcher:            w,
		log:                o.logger,
		addedPaths:         make(map[string]struct{}),
		indexedDirectories: make(map[string]Recursive),
		creations:          newCreationTracker(),
		maxWorkers:         o.maxWorkers,
		stop:               make(chan struct{}),
		loopDone:           make(chan struct{}),
	}
	go i.watchLoop()
	return i, nil
}

// AddPath registers path for indexing. Missing paths are accepted and
// indexed as soon as they materialize. The call returns after every file it
// started tokenizing has been indexed; only un-canonicalizable input is an
// error.
func (i *Indexer) AddPath(path string, recursive Recursive) error {
	canonical, err := pathutil.Canonicalize(path)
	if err != nil {
		return err
	}

	i.mu.Lock()
	files := i.addPathLocked(canonical, recursive)
	i.mu.Unlock()

	i.indexFiles(files)
	return nil
}

// Search returns the canonical paths of all indexed files containing token,
// as a fresh sorted slice. Unknown tokens yield an empty result.
func (i *Indexer) Search(token string) []string {
	return i.store.Lookup(token)
}

// Stats returns the number of indexed files and distinct tokens.
func (i *Indexer) Stats() (files, tokens int) {
	return i.store.Stats()
}

// CheckConsistency verifies the forward/inverted duality of the underlying
// store.
func (i *Indexer) CheckConsistency() store.CheckResult {
	return i.store.CheckConsistency()
}

// Close stops the watcher loop, joins it, and releases OS handles. It
// returns any fatal error the watcher read loop encountered. Idempotent.
func (i *Indexer) Close() error {
	i.closeOnce.Do(func() {
		close(i.stop)
		<-i.loopDone
		i.closeErr = i.watcher.Close()
	})
	return i.closeErr
}

// addPathLocked dispatches a registration on existence and kind, returning
// the files to tokenize. Caller holds mu.
func (i *Indexer) addPathLocked(p string, recursive Recursive) []string {
	i.addedPaths[p] = struct{}{}

	info, err := os.Stat(p)
	switch {
	case err != nil:
		files := i.awaitCreationLocked(p)
		if recursive == RecursiveYes {
			// Remember the recursion mode for when the directory appears.
			if _, ok := i.indexedDirectories[p]; !ok {
				i.indexedDirectories[p] = RecursiveYes
			}
		}
		return files
	case info.IsDir():
		return i.addDirectoryLocked(p, recursive)
	default:
		return i.watchFileLocked(p)
	}
}

// addDirectoryLocked records the directory, installs its watch, and walks
// one level of children, recursing into subdirectories iff recursive.
// An earlier recursive registration is never downgraded. Caller holds mu.
func (i *Indexer) addDirectoryLocked(p string, recursive Recursive) []string {
	if existing, ok := i.indexedDirectories[p]; ok {
		if existing == RecursiveYes {
			recursive = RecursiveYes
		}
	}
	i.indexedDirectories[p] = recursive

	if err := i.watcher.AddDirectory(p); err != nil {
		i.log.Warn("cannot watch directory",
			slog.String("path", p),
			slog.String("error", err.Error()))
	}

	entries, err := os.ReadDir(p)
	if err != nil {
		i.log.Warn("cannot list directory",
			slog.String("path", p),
			slog.String("error", err.Error()))
		return nil
	}

	var files []string
	for _, entry := range entries {
		child := filepath.Join(p, entry.Name())
		if entry.IsDir() {
			if recursive == RecursiveYes {
				files = append(files, i.addDirectoryLocked(child, RecursiveYes)...)
			}
			continue
		}
		files = append(files, i.watchFileLocked(child)...)
	}
	return files
}

// watchFileLocked installs the file watch before tokenization so no
// modification slips between the two. Caller holds mu.
func (i *Indexer) watchFileLocked(p string) []string {
	if err := i.watcher.AddFile(p); err != nil {
		i.log.Warn("cannot watch file",
			slog.String("path", p),
			slog.String("error", err.Error()))
	}
	return []string{p}
}

// awaitCreationLocked arms a pending watch for a path that does not exist:
// walk up to the deepest existing ancestor, watch it, and remember the
// missing suffix. Caller holds mu.
func (i *Indexer) awaitCreationLocked(p string) []string {
	if _, err := os.Stat(p); err == nil {
		// Materialized while we were looking.
		return i.addPathLocked(p, i.recursionFor(p))
	}

	ancestor := filepath.Dir(p)
	for {
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			break
		}
		ancestor = parent
	}

	if !i.creations.Has(ancestor) {
		if err := i.watcher.AddDirectory(ancestor); err != nil {
			i.log.Warn("cannot watch ancestor for pending path",
				slog.String("ancestor", ancestor),
				slog.String("pending", p),
				slog.String("error", err.Error()))
		}
	}
	rel, err := pathutil.RelativeTo(ancestor, p)
	if err != nil {
		i.log.Warn("cannot relativize pending path",
			slog.String("ancestor", ancestor),
			slog.String("pending", p),
			slog.String("error", err.Error()))
		return nil
	}
	i.creations.Add(ancestor, rel)
	return nil
}

// recursionFor returns the remembered recursion mode for p. Caller holds mu.
func (i *Indexer) recursionFor(p string) Recursive {
	if r, ok := i.indexedDirectories[p]; ok {
		return r
	}
	return RecursiveNo
}

// indexFiles tokenizes the collected files, capped at maxWorkers in flight.
// It returns only when all of them are in the store.
func (i *Indexer) indexFiles(files []string) {
	if len(files) == 0 {
		return
	}
	if len(files) == 1 {
		i.store.AddFile(files[0])
		return
	}

	var g errgroup.Group
	g.SetLimit(i.maxWorkers)
	for _, f := range files {
		f := f
		g.Go(func() error {
			i.store.AddFile(f)
			return nil
		})
	}
	_ = g.Wait()
}

// watchLoop drains the watcher until Close. Each event performs one bounded
// amount of work; anything that fails while servicing a single event is
// logged and the event discarded, leaving the index consistent.
func (i *Indexer) watchLoop() {
	defer close(i.loopDone)
	for {
		select {
		case <-i.stop:
			return
		default:
		}

		for _, ev := range i.watcher.Poll() {
			i.handleEvent(ev)
		}
	}
}

func (i *Indexer) handleEvent(ev watcher.Event) {
	i.log.Debug("filesystem event",
		slog.String("kind", ev.Kind.String()),
		slog.String("path", ev.Path),
		slog.Bool("is_dir", ev.IsDir))

	switch ev.Kind {
	case watcher.Modified:
		i.handleModified(ev.Path)
	case watcher.Created:
		i.handleCreated(ev)
	case watcher.Deleted:
		i.handleDeleted(ev)
	}
}

// handleModified reindexes a file that is currently indexed; anything else
// is ignored.
func (i *Indexer) handleModified(p string) {
	if !i.store.Indexed(p) {
		return
	}
	i.store.ReindexFile(p)
}

// handleCreated dispatches a new child: index it if its parent is followed,
// and resolve any pending creation watches it satisfies or advances.
func (i *Indexer) handleCreated(ev watcher.Event) {
	parent := filepath.Dir(ev.Path)
	name := filepath.Base(ev.Path)

	i.mu.Lock()

	var files []string
	if ev.IsDir {
		if r, ok := i.indexedDirectories[parent]; ok && r == RecursiveYes {
			files = append(files, i.addDirectoryLocked(ev.Path, RecursiveYes)...)
		}
	} else {
		_, parentIndexed := i.indexedDirectories[parent]
		_, added := i.addedPaths[ev.Path]
		if parentIndexed || added {
			files = append(files, i.watchFileLocked(ev.Path)...)
		}
	}

	if i.creations.Has(parent) {
		if i.creations.Take(parent, name) {
			files = append(files, i.addPathLocked(ev.Path, i.recursionFor(ev.Path))...)
		}
		for _, full := range i.creations.Reroot(parent, name) {
			files = append(files, i.awaitCreationLocked(full)...)
		}
		if i.creations.Empty(parent) {
			i.creations.Drop(parent)
			if _, stillIndexed := i.indexedDirectories[parent]; !stillIndexed {
				_ = i.watcher.RemovePath(parent)
			}
		}
	}

	i.mu.Unlock()
	i.indexFiles(files)
}

// handleDeleted removes the path from the index, sweeps descendants when an
// indexed directory disappears, and re-arms creation watches for anything
// the user still wants.
func (i *Indexer) handleDeleted(ev watcher.Event) {
	i.mu.Lock()

	i.store.RemoveFile(ev.Path)

	if _, ok := i.indexedDirectories[ev.Path]; ok {
		for _, p := range i.store.IndexedUnder(ev.Path) {
			i.store.RemoveFile(p)
			_ = i.watcher.RemovePath(p)
		}
		prefix := ev.Path + string(os.PathSeparator)
		for dir := range i.indexedDirectories {
			if strings.HasPrefix(dir, prefix) {
				delete(i.indexedDirectories, dir)
				_ = i.watcher.RemovePath(dir)
			}
		}
		// The entry for the deleted directory itself survives only as the
		// recursion-mode memory for a user-added path awaiting recreation.
		if _, added := i.addedPaths[ev.Path]; !added {
			delete(i.indexedDirectories, ev.Path)
		}
	}

	var files []string
	if _, ok := i.addedPaths[ev.Path]; ok {
		files = append(files, i.awaitCreationLocked(ev.Path)...)
	}

	if i.creations.Has(ev.Path) {
		pending := i.creations.Pending(ev.Path)
		i.creations.Drop(ev.Path)
		_ = i.watcher.RemovePath(ev.Path)
		for _, full := range pending {
			files = append(files, i.awaitCreationLocked(full)...)
		}
	}

	i.mu.Unlock()
	i.indexFiles(files)
}
