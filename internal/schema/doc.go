// Package schema validates ruleflow documents and wire actions against an
// embedded CUE schema at the import boundary.
//
// The schema checks shape only: field names, types and closedness. The
// ordering and uniqueness invariants are checked by ruleflow.Validate.
package schema
