// Package migrations embeds the SQL schema.
package migrations

import "embed"

// FS holds the *.up.sql migration files, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
