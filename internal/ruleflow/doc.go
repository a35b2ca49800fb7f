// Package ruleflow defines the ruleflow configuration document and the
// closed vocabulary of actions that mutate it.
//
// This package contains types and pure helpers only. All other internal
// packages import ruleflow; ruleflow imports nothing internal.
//
// Key design constraints:
//   - Packages are ordered; ExecutionOrder always equals the slice index
//   - The package named LockedPackageName is pinned at index 0
//   - Ids are assigned once and never reused within a document
//   - Condition and code strings are opaque and never evaluated here
//   - Snapshots are immutable by convention: mutate only a Clone
package ruleflow
