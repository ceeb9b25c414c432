// Package sqlstore provides a SQL implementation of the graph backend.
//
// Three dialects are supported through database/sql:
//
//   - sqlite: modernc.org/sqlite, a pure Go SQLite that needs no CGO. The
//     database URL is a file path; its directory is created on open.
//   - postgres: github.com/jackc/pgx/v5 via its stdlib adapter.
//   - mysql: github.com/go-sql-driver/mysql.
//
// # Schema
//
// Vertices are unique per (kind, key) and carry one property row per source,
// so both API generations are recorded side by side. Edges are unique per
// (src, dst, label). Freshness marks are unix microsecond timestamps keyed by
// (kind, mark, key).
//
// The schema is managed through versioned migrations embedded per dialect in
// the migrations/ directory and applied with golang-migrate on Open.
package sqlstore
