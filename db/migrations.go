// Package db embeds the SQL migrations so the binary and the tests apply the
// same schema without depending on the working directory.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
