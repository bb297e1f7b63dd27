package migrations

import "embed"

// FS contains embedded SQLite migrations for version-graph storage.
//
//go:embed *.sql
var FS embed.FS
