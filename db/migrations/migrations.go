// Package migrations embeds the goose SQL migrations so binaries do not
// depend on the working directory.
package migrations

import "embed"

// FS holds every file under sql/.
//
//go:embed sql/*.sql
var FS embed.FS

// Dir is the path of the migrations inside FS.
const Dir = "sql"
