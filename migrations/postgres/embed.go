// Package migrations embeds SQL migration files.
package migrations

import "embed"

// SchemaFS contains the users/images schema.
//
//go:embed schema/*.sql
var SchemaFS embed.FS

// SchemaDir is the directory within SchemaFS where migrations live.
const SchemaDir = "schema"
