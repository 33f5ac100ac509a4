package watcher

import "time"

// EventKind classifies a canonical filesystem event.
type EventKind int

const (
	// Created indicates a new child appeared in a watched directory.
	Created EventKind = iota
	// Modified indicates the content of a watched file changed.
	// Modified is never emitted for a directory.
	Modified
	// Deleted indicates a watched path was unlinked or renamed away.
	Deleted
)

// String returns a human-readable representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case Created:
		return "CREATED"
	case Modified:
		return "MODIFIED"
	case Deleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// Event is a canonical filesystem event. Platform notifications are
// normalized into this shape before anything else sees them; renames appear
// as Deleted plus Created.
type Event struct {
	// Kind is the event classification.
	Kind EventKind

	// Path is the canonical absolute path the event refers to.
	// For Created it is the new child's full path.
	Path string

	// IsDir indicates if the event is for a directory.
	IsDir bool
}

// Watcher is the canonical abstraction over OS change notification.
//
// AddFile watches a regular file for modification and removal. AddDirectory
// watches a directory for new children and its own removal. RemovePath
// releases a watch and is a no-op for unknown paths; events already queued
// for a removed watch are dropped. Poll returns all events accumulated since
// the previous call, in FIFO order, blocking at most a small timeout to
// coalesce. Close releases OS handles and surfaces any fatal read error.
type Watcher interface {
	AddFile(path string) error
	AddDirectory(path string) error
	RemovePath(path string) error
	Poll() []Event
	Close() error
}

// Options configures the watcher behavior.
type Options struct {
	// PollTimeout is the maximum time Poll blocks waiting for events.
	// Default: 5ms. Kept small so the watcher loop stays responsive to stop.
	PollTimeout time.Duration

	// EventBuffer is the maximum number of queued events before new ones
	// are dropped. Default: 1024.
	EventBuffer int
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		PollTimeout: 5 * time.Millisecond,
		EventBuffer: 1024,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.PollTimeout == 0 {
		o.PollTimeout = defaults.PollTimeout
	}
	if o.EventBuffer == 0 {
		o.EventBuffer = defaults.EventBuffer
	}
	return o
}
