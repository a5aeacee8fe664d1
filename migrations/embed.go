// Package migrations embeds the SQL schema so binaries and integration
// tests can migrate without a migrations directory on disk.
package migrations

import "embed"

// FS holds every *.up.sql / *.down.sql file of this directory.
//
//go:embed *.sql
var FS embed.FS
