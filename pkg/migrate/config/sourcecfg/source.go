package sourcecfg

import (
	"fmt"
	"time"

	"github.com/baderkha/blazing-transfer/pkg/migrate/config"
	"github.com/hashicorp/go-multierror"
)

const (
	DriverMysql    = "mysql"
	DriverPostgres = "postgres"

	DefaultPageSize = 50_000
	DefaultTimeout  = 5 * time.Minute
)

// Source : the relational database rows are read from
type Source struct {
	Driver       string          `json:"driver"`
	MySQL        *MYSQL          `json:"mysql"`
	Postgres     *Postgres       `json:"postgres"`
	Schema       string          `json:"schema"`
	PageSize     int             `json:"page_size"`
	Timeout      config.Duration `json:"timeout"`
	QueryLogging bool            `json:"query_log"`
}

func (s *Source) Defaults() {
	if s.PageSize <= 0 {
		s.PageSize = DefaultPageSize
	}
	if s.Timeout <= 0 {
		s.Timeout = config.Duration(DefaultTimeout)
	}
	if s.Schema == "" {
		switch s.Driver {
		case DriverPostgres:
			s.Schema = "public"
		case DriverMysql:
			if s.MySQL != nil {
				s.Schema = s.MySQL.DB
			}
		}
	}
}

func (s *Source) Validate() error {
	var result error
	switch s.Driver {
	case DriverMysql:
		if s.MySQL == nil {
			result = multierror.Append(result, fmt.Errorf("source.mysql block is required for driver mysql"))
		}
	case DriverPostgres:
		if s.Postgres == nil {
			result = multierror.Append(result, fmt.Errorf("source.postgres block is required for driver postgres"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("source.driver %q is not one of mysql, postgres", s.Driver))
	}
	if s.PageSize < 0 {
		result = multierror.Append(result, fmt.Errorf("source.page_size must not be negative"))
	}
	return result
}

// GetDSN : dsn of whichever driver is configured
func (s *Source) GetDSN() string {
	switch s.Driver {
	case DriverMysql:
		return s.MySQL.GetDSN()
	case DriverPostgres:
		return s.Postgres.GetDSN()
	}
	return ""
}
