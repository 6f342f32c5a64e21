// Package sqliteexternal registers the CGO SQLite driver
// (github.com/mattn/go-sqlite3) for builds that opt into it.
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/scripture
//
// The corpus store opens databases through core/sqlite, which imports this
// package only under the cgo_sqlite tag. The default build uses the pure Go
// modernc.org/sqlite driver and cross-compiles without a C toolchain.
//
// Prefer the CGO driver for large bulk ingestion runs where write
// throughput matters more than portability.
package sqliteexternal
