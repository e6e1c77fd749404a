// Package migrations embeds the SQL migrations of the local durable log, one
// directory per database driver.
package migrations

import "embed"

// FS holds the sqlite, postgresql and mysql migration directories.
//
//go:embed sqlite/*.sql postgresql/*.sql mysql/*.sql
var FS embed.FS
