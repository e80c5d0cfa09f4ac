// Package migrations embeds the SQL schema of the console's own tables.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
