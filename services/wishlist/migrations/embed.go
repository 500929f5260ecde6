// Package migrations embeds the wishlist schema.
package migrations

import "embed"

// FS holds the *.up.sql files applied at start-up.
//
//go:embed *.sql
var FS embed.FS
