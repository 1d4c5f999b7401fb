// Package database provides the SQLite-backed store for proxysort.
//
// LinkDB keeps everything that survives between runs:
//   - the IP to category mapping maintained by operators
//   - the deduplicated link set of every category
//   - the Unknown Bucket: links whose IP has no category yet, grouped by IP
//   - rendered reports of past scans
//
// SQLite is accessed through modernc.org/sqlite, so the binary stays CGO-free.
// The database runs in WAL mode with a single connection, and every mutating
// method runs in one transaction: a reader sees either all of a write or
// none of it.
package database
