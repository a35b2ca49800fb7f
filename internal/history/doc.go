// Package history keeps a bounded, linear undo/redo history of
// configuration snapshots.
//
// Recording after an undo truncates the abandoned redo branch. When the
// history exceeds its cap the oldest versions are dropped. Index 0 is the
// oldest retained version and cannot itself be undone.
//
// Every snapshot is cloned on the way in and on the way out, so callers may
// freely mutate what they pass or receive without corrupting replay.
//
// # Thread Safety
//
// Manager is NOT safe for concurrent use; the owning editing session
// serializes access.
package history
