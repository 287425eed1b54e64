package migrate

import (
	"context"
	"database/sql"

	"github.com/baderkha/blazing-transfer/pkg/migrate/config"
	"github.com/baderkha/blazing-transfer/pkg/migrate/config/sourcecfg"
	"github.com/baderkha/blazing-transfer/pkg/migrate/config/targetcfg"
	"github.com/baderkha/blazing-transfer/pkg/migrate/connection"
	"github.com/baderkha/blazing-transfer/pkg/migrate/connector"
	"github.com/baderkha/blazing-transfer/pkg/migrate/errs"
	"github.com/baderkha/blazing-transfer/pkg/migrate/importer"
	"github.com/baderkha/blazing-transfer/pkg/migrate/pipeline"
	"github.com/baderkha/blazing-transfer/pkg/migrate/source"
	"github.com/baderkha/blazing-transfer/pkg/migrate/state"
	"github.com/baderkha/blazing-transfer/pkg/migrate/table"
	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// JobConfig : job.json of a migration into the destination
type JobConfig = config.Config[sourcecfg.Source, targetcfg.Blazing]

// Job : a migrator wired from a JobConfig plus what has to be closed after it
type Job struct {
	*Migrator
	Filter Filter
	State  *state.GormManager
	RunTag string

	db   *sql.DB
	conn *connector.Connector
}

// Close : closes the destination connector and the source connection
func (j *Job) Close() error {
	var result error
	if j.conn != nil {
		if err := j.conn.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if j.db != nil {
		if err := j.db.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

// prepare : fills the defaults of cfg, validates it and builds its filter.
// Chunk files go under the destination user's folder unless staging names one.
func prepare(cfg *JobConfig) (Filter, error) {
	cfg.Defaults()
	if cfg.Importer.Staging.User == "" {
		cfg.Importer.Staging.User = cfg.Target.UserName
	}
	if err := cfg.Validate(); err != nil {
		return Filter{}, &errs.ConfigError{Err: err}
	}
	filter := Filter{Include: cfg.Include, Exclude: cfg.Exclude}
	return filter, filter.Validate()
}

// Open : validates cfg, dials the source and wires the pipeline, importer and
// connector it describes. Extra opts are applied last.
func Open(ctx context.Context, cfg *JobConfig, log zerolog.Logger, opts ...Option) (*Job, error) {
	filter, err := prepare(cfg)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.FromConfig(cfg.Pipeline)
	if err != nil {
		return nil, err
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	runTag := uid.String()
	imp, err := importer.FromConfig(cfg.Importer, runTag, nil,
		importer.WithLogger(log),
		importer.WithBatchHooks(p),
	)
	if err != nil {
		return nil, &errs.ConfigError{Err: err}
	}

	job := &Job{Filter: filter, RunTag: runTag}
	src := &cfg.SourceConfig
	job.db, err = connection.DialSource(ctx, src, connection.Options{
		MaxConns:     cfg.MaxConcurrency,
		QueryLogging: src.QueryLogging,
		Logger:       log,
	})
	if err != nil {
		return nil, &errs.SourceError{Op: "connect", Err: err}
	}
	var info table.InfoFetcher
	switch src.Driver {
	case sourcecfg.DriverPostgres:
		info = table.NewInfoFetcherPostgres(job.db, src.Schema)
	default:
		info = table.NewInfoFetcherMysql(job.db, src.Schema)
	}
	job.conn = connector.New(cfg.Target, connector.WithLogger(log))

	base := []Option{
		WithPipeline(p),
		WithImportLimit(cfg.MaxConcurrency),
		WithPageSize(src.PageSize),
		WithLogger(log),
	}
	if cfg.StateDB != "" {
		job.State, err = state.NewSqliteGormManager(cfg.StateDB)
		if err != nil {
			_ = job.Close()
			return nil, err
		}
		base = append(base, WithStateManager(job.State, src.Schema))
	}
	job.Migrator = New(
		source.NewSQL(job.db, info, source.WithTimeout(src.Timeout.Std()), source.WithLogger(log)),
		job.conn,
		imp,
		append(base, opts...)...,
	)
	log.Debug().
		Str("run_tag", runTag).
		Str("importer", string(cfg.Importer.Kind)).
		Int("stages", p.Len()).
		Msgf("job ready for %s", cfg.Target.BaseURL())
	return job, nil
}
