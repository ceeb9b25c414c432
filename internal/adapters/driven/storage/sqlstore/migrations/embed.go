// Package migrations embeds the graph schema migrations, one directory per
// SQL dialect.
package migrations

import "embed"

// FS contains all SQL migration files embedded at compile time.
//
//go:embed sqlite/*.sql postgres/*.sql mysql/*.sql
var FS embed.FS
