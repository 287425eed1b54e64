package connection

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
)

// AddLogger : wraps db so every statement is logged with its duration
func AddLogger(db *sql.DB, dsn string, driverName string, log zerolog.Logger) *sql.DB {
	loggerAdapter := zerologadapter.New(log.With().Str("driver", driverName).Logger())
	db = sqldblogger.OpenDriver(dsn, db.Driver(), loggerAdapter,
		sqldblogger.WithWrapResult(false),
		sqldblogger.WithDurationFieldname("dur_ms"),
		sqldblogger.WithDurationUnit(sqldblogger.DurationMillisecond),
		sqldblogger.WithSQLQueryAsMessage(true),
		sqldblogger.WithSQLQueryFieldname("sql_query"),
		sqldblogger.WithMinimumLevel(sqldblogger.LevelDebug),
	)
	return db
}

// Options : pool sizing and query logging for a source connection
type Options struct {
	MaxConns     int
	QueryLogging bool
	Logger       zerolog.Logger
}

func DialMysql(dsn string, opts Options) (*sql.DB, error) {
	return dial("mysql", dsn, opts)
}

func dial(driverName string, dsn string, opts Options) (*sql.DB, error) {
	opts.Logger.Debug().Str("driver", driverName).Msg("dialing source")
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s source : could not dial connection due to : %w", driverName, err)
	}
	if opts.QueryLogging {
		sqlDB = AddLogger(sqlDB, dsn, driverName, opts.Logger)
	}
	if opts.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxConns)
		sqlDB.SetMaxIdleConns(opts.MaxConns)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return sqlDB, nil
}
