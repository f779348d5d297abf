// Package migrations embeds the SQL schema migrations into the binary.
//
// Importing this package (usually with a blank import) registers the files
// with the database package, so db.Migrate works without the SQL files on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/smarthouse-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
