// Package watcher turns platform change notifications into a canonical,
// ordered stream of Created/Modified/Deleted events.
//
// The canonical layer guarantees:
//   - a file watch emits Modified on content change and Deleted on unlink or
//     rename-away
//   - a directory watch emits Created for each new child (with the child's
//     full path) and Deleted for the directory itself
//   - Modified is never emitted for a directory
//   - renames are normalized to Deleted plus Created
//   - events queued for a watch that was already removed are dropped
//
// Poll drains accumulated events in FIFO order and may block up to a small
// timeout to coalesce; an empty return is expected on idle.
package watcher
