// Package migrations embeds the PostgreSQL schema migrations so the binaries
// carry them without a migrations directory on disk.
package migrations

import "embed"

// FS holds every NNNNNN_name.{up,down}.sql file
//
//go:embed *.sql
var FS embed.FS
