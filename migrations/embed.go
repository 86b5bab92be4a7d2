// Package migrations embeds the SQL schema of the iotinator master so the
// binary can migrate its database without files on disk.
package migrations

import (
	"embed"

	"github.com/iotinator/iotinator-master/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
