// Package mapping holds the code to original-name mapping that every coding
// run extends.
//
// A Store is loaded once from the prior snapshot (or starts empty), grows by
// appending entries during the run, and is written out as a new snapshot at
// the end. The set of codes across a snapshot lineage never contains a
// duplicate: Store.Assign draws and records a code in one critical section,
// and Store.Insert panics on a repeated code.
//
// Snapshots are two-column (code, identity) tables. Five encodings are
// supported:
//   - csv: header row code,identity (the default)
//   - json: {"entries":[{"code":...,"identity":...}]}
//   - sqlite: table mapping(code TEXT PRIMARY KEY, identity TEXT)
//   - parquet: columns code and identity
//   - xlsx: first sheet, code in column A and identity in column B
//
// New snapshots are published atomically under a timestamped name and never
// overwrite an existing file. Each one gets a JSON metadata sidecar
// (<snapshot>.meta.json) recording the run ID, code length and entry counts.
package mapping
