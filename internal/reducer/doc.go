// Package reducer applies ruleflow actions to configuration snapshots.
//
// Apply is a pure function of (snapshot, action): the input is never
// mutated and the output always satisfies the document invariants.
//
// # Error Policy
//
// Unknown ids, boundary moves and attempts to move or delete the locked
// package are expected user actions. They produce an unchanged copy of the
// input, never an error. The only error Apply returns is a ReduceError with
// ErrCodeUnknownAction, which is a programmer error.
//
// # Normalization
//
// After every action the reducer pins the locked package back to index 0
// and recomputes every ExecutionOrder from list position, whether or not
// the action was structural. No sequence of actions can desynchronize order
// from position.
package reducer
