// Package store provides a SQLite-backed catalog of query builds.
//
// Each row records one distinct build: the definition name, the Cypher
// text, the parameter table and its key order.
//
// # Identity
//
//   - fingerprint: SHA-256 over the text and canonical parameters,
//     computed by internal/canon. UNIQUE, so saving a build twice is a no-op.
//   - id: a UUIDv7 assigned on first save.
//   - seq: insertion order. History is listed by seq, never by wall time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Parameters are stored as RFC 8785 canonical JSON so identical tables
// are byte-identical on disk.
package store
