// Package migrations embeds the SQL schema for the on-device state store.
package migrations

import "embed"

//go:embed *.sql
var files embed.FS

// FS is the set of migrations passed to database.DB.Migrate.
var FS = files
