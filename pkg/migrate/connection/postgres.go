package connection

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DialPostgres : database/sql handle over the pgx driver
func DialPostgres(dsn string, opts Options) (*sql.DB, error) {
	return dial("pgx", dsn, opts)
}
