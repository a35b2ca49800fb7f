// Package codegen compiles ruleflow documents to Python source for the
// rules runtime. The output is never evaluated here; rule code and
// conditions are copied verbatim into a fixed class skeleton.
//
// Output is a pure function of the document: identical documents produce
// byte-identical source, and the artifact carries the document hash.
package codegen
