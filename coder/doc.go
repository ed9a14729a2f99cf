// Package coder ties the walker, the code generator and the mapping store
// together into a coding run.
//
// Each discovered file gets a code from the generator, the (code, name) pair
// is recorded in the store, and the file is copied to the destination as
// <code>.<ext>. Assignment and recording happen under the store's lock as one
// step, so copies may run on several workers without two files ever sharing a
// code. A run is all or nothing: any error aborts it with a *RunError, and the
// caller persists the store only after Run succeeds.
package coder
