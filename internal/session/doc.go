// Package session owns one ruleflow editing session.
//
// An Editor is the explicit context object through which a UI (or the CLI,
// or a test) edits a configuration: Dispatch applies an action through the
// reducer and records the result in the undo/redo history; Undo and Redo
// walk that history; Load, Save and Generate talk to the external gateway.
//
// Actions that leave the document unchanged are not recorded, so rejected
// edits (moving the locked package, unknown ids, boundary moves) never
// create history entries or mark the document modified.
//
// Gateway failures never corrupt in-memory state: a failed Load falls back
// to the default document, and a failed Save leaves IsModified true.
package session
