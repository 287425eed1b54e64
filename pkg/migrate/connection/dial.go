package connection

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/baderkha/blazing-transfer/pkg/migrate/config/sourcecfg"
)

// DialSource : opens and pings the configured source database
func DialSource(ctx context.Context, cfg *sourcecfg.Source, opts Options) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case sourcecfg.DriverMysql:
		db, err = DialMysql(cfg.GetDSN(), opts)
	case sourcecfg.DriverPostgres:
		db, err = DialPostgres(cfg.GetDSN(), opts)
	default:
		return nil, fmt.Errorf("unsupported source driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout.Std())
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s source : ping failed : %w", cfg.Driver, err)
	}
	return db, nil
}
