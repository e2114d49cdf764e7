// Package migrations embeds the ordering SQLite schema.
package migrations

import "embed"

// FS contains embedded SQLite migrations for ordering storage.
//
//go:embed *.sql
var FS embed.FS
