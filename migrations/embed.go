// Package migrations embeds the storefront SQL schema.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files applied at startup.
//
//go:embed *.sql
var FS embed.FS
