// Package codegen issues the random numeric codes that replace file names.
//
// A code of length x is a decimal string of exactly x digits with no leading
// zero, so there are 9*10^(x-1) of them. The collision domain is the whole
// mapping lineage passed in as a mapping.Index, not just the current run.
package codegen
