package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/baderkha/blazing-transfer/pkg/migrate/connector"
	"github.com/baderkha/blazing-transfer/pkg/migrate/errs"
	"github.com/baderkha/blazing-transfer/pkg/migrate/importer"
	"github.com/baderkha/blazing-transfer/pkg/migrate/pipeline"
	"github.com/baderkha/blazing-transfer/pkg/migrate/source"
	"github.com/baderkha/blazing-transfer/pkg/migrate/state"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Runner : runs migration between a source and the destination
type Runner interface {
	Migrate(ctx context.Context, f Filter) ([]TableResult, error) // fresh run
	RetryFailed(ctx context.Context, runID string) ([]TableResult, error)
}

const (
	DefaultImportLimit = 5
	DefaultPageSize    = 50_000
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// TableResult : outcome of one table. Counts are kept on failure too
type TableResult struct {
	Table     string
	DestTable string
	Status    Status
	Rows      int64
	Bytes     int64
	Batches   int
	Err       error
	Kind      errs.Kind
	// Reason : why a skipped table was skipped
	Reason   string
	Duration time.Duration
}

type Migrator struct {
	source      source.Source
	dest        connector.Querier
	importer    importer.Importer
	pipeline    *pipeline.Pipeline
	importLimit int
	pageSize    int
	state       state.Manager
	dbName      string
	onTableDone func(TableResult)
	onSelected  func(tables []string)
	log         zerolog.Logger
}

var _ Runner = (*Migrator)(nil)

type Option func(*Migrator)

func WithPipeline(p *pipeline.Pipeline) Option {
	return func(m *Migrator) { m.pipeline = p }
}

// WithImportLimit : most tables migrating at once
func WithImportLimit(n int) Option {
	return func(m *Migrator) { m.importLimit = n }
}

// WithPageSize : rows fetched from the source per query
func WithPageSize(n int) Option {
	return func(m *Migrator) { m.pageSize = n }
}

// WithStateManager : records every run in mgr, dbName labels the source tables
func WithStateManager(mgr state.Manager, dbName string) Option {
	return func(m *Migrator) {
		m.state = mgr
		m.dbName = dbName
	}
}

// OnTableDone : called once per table as soon as it finishes, from the worker
func OnTableDone(fn func(TableResult)) Option {
	return func(m *Migrator) { m.onTableDone = fn }
}

// OnTablesSelected : called with the tables a run is about to migrate, before any starts
func OnTablesSelected(fn func(tables []string)) Option {
	return func(m *Migrator) { m.onSelected = fn }
}

func WithLogger(log zerolog.Logger) Option {
	return func(m *Migrator) { m.log = log }
}

func New(src source.Source, dest connector.Querier, imp importer.Importer, opts ...Option) *Migrator {
	m := &Migrator{
		source:      src,
		dest:        dest,
		importer:    imp,
		pipeline:    pipeline.New(),
		importLimit: DefaultImportLimit,
		pageSize:    DefaultPageSize,
		log:         zerolog.Nop(),
	}
	for _, o := range opts {
		o(m)
	}
	if m.importLimit <= 0 {
		m.importLimit = DefaultImportLimit
	}
	if m.pageSize <= 0 {
		m.pageSize = DefaultPageSize
	}
	return m
}

// Migrate : migrates every table f selects and reports one result per table,
// in source order. One table failing never stops the others, the returned
// error is only set when nothing could be migrated at all (bad filter,
// unreachable source).
func (m *Migrator) Migrate(ctx context.Context, f Filter) ([]TableResult, error) {
	tables, err := m.source.Tables(ctx)
	if err != nil {
		if errs.KindOf(err) == errs.KindUnknown {
			err = &errs.SourceError{Op: "list tables", Err: err}
		}
		return nil, err
	}
	selected, err := f.Select(tables)
	if err != nil {
		return nil, err
	}
	m.log.Info().Msgf("migrating %d of %d table(s), %d at a time", len(selected), len(tables), m.importLimit)
	if m.onSelected != nil {
		m.onSelected(selected)
	}

	runID := m.startRun(len(selected))
	results := make([]TableResult, len(selected))
	g := errgroup.Group{}
	g.SetLimit(m.importLimit)
	for i, t := range selected {
		i, t := i, t
		g.Go(func() error {
			m.record(runID, t, nil)
			results[i] = m.migrateTable(ctx, t)
			m.record(runID, t, &results[i])
			if m.onTableDone != nil {
				m.onTableDone(results[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	m.finishRun(runID, Summary(results))
	return results, nil
}

// RetryFailed : migrates again the tables of runID that did not succeed
func (m *Migrator) RetryFailed(ctx context.Context, runID string) ([]TableResult, error) {
	if m.state == nil {
		return nil, errs.Configf("retrying a run needs a state db")
	}
	names, err := m.state.FailedTables(runID)
	if err != nil {
		return nil, fmt.Errorf("could not read run %s : %w", runID, err)
	}
	if len(names) == 0 {
		m.log.Info().Str("run_id", runID).Msg("nothing to retry")
		return nil, nil
	}
	return m.Migrate(ctx, Tables(names...))
}

func (m *Migrator) migrateTable(ctx context.Context, name string) (res TableResult) {
	var (
		start = time.Now()
		log   = m.log.With().Str("table", name).Logger()
		tc    = pipeline.NewTableContext(name, m.source, m.dest, log)
	)
	res = TableResult{Table: name, DestTable: name}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic while migrating %s : %v", name, r)
		}
		res.DestTable = tc.DestTable
		res.Duration = time.Since(start)
		switch {
		case res.Err != nil:
			res.Status = StatusFailed
			if res.Kind == errs.KindNone {
				res.Kind = errs.KindOf(res.Err)
			}
			log.Error().Err(res.Err).Str("kind", string(res.Kind)).Msg("table failed")
		case tc.Cancelled():
			res.Status = StatusSkipped
			res.Reason = tc.CancelReason()
			log.Info().Str("reason", tc.CancelReason()).Msg("table skipped")
		default:
			res.Status = StatusSucceeded
			log.Info().
				Str("dest_table", res.DestTable).
				Int64("rows", res.Rows).
				Str("bytes", humanize.IBytes(uint64(res.Bytes))).
				Dur("took", res.Duration).
				Msg("table migrated")
		}
	}()

	if err := m.pipeline.RunBefore(ctx, tc); err != nil {
		res.Err = err
		return res
	}
	if tc.Cancelled() {
		return res
	}

	rows, err := tc.Source.Rows(ctx, name, m.pageSize)
	if err != nil {
		if errs.KindOf(err) == errs.KindUnknown {
			err = &errs.SourceError{Table: name, Op: "stream rows", Err: err}
		}
		res.Err = err
		return res
	}
	loaded, loadErr := m.importer.Load(ctx, tc, rows)
	rows.Close()
	res.Rows, res.Bytes, res.Batches = loaded.Rows, loaded.Bytes, loaded.Batches

	// after hooks run even when the load failed part way, cleanup stages still apply
	afterErr := m.pipeline.RunAfter(ctx, tc)
	switch {
	case loadErr != nil && afterErr != nil:
		res.Kind = errs.KindOf(loadErr)
		res.Err = multierror.Append(loadErr, afterErr)
	case loadErr != nil:
		res.Err = loadErr
	case afterErr != nil:
		res.Err = afterErr
	}
	return res
}

// Summary : one error per failed table, nil when none failed
func Summary(results []TableResult) error {
	var result error
	for _, r := range results {
		if r.Status == StatusFailed {
			result = multierror.Append(result, fmt.Errorf("%s (%s) : %w", r.Table, r.Kind, r.Err))
		}
	}
	return result
}

func (m *Migrator) startRun(total int) string {
	if m.state == nil {
		return ""
	}
	runID, err := m.state.InitRunLog(total)
	if err != nil {
		m.log.Warn().Err(err).Msg("could not record the run")
		return ""
	}
	m.log.Info().Str("run_id", runID).Msg("run started")
	return runID
}

// record : table started when res is nil, finished otherwise
func (m *Migrator) record(runID string, table string, res *TableResult) {
	if m.state == nil || runID == "" {
		return
	}
	var err error
	switch {
	case res == nil:
		err = m.state.InitTableRunLog(runID, m.dbName, table)
	case res.Status == StatusFailed:
		err = m.state.FailedTableRun(runID, m.dbName, table, string(res.Kind), res.Err)
	case res.Status == StatusSkipped:
		err = m.state.SkippedTableRun(runID, m.dbName, table, res.Reason)
	default:
		err = m.state.PassedTableRun(runID, m.dbName, table, res.Rows, res.Bytes)
	}
	if err != nil {
		m.log.Warn().Err(err).Str("table", table).Msg("could not record table state")
	}
}

func (m *Migrator) finishRun(runID string, summary error) {
	if m.state == nil || runID == "" {
		return
	}
	var err error
	if summary != nil {
		err = m.state.FailedRunLog(runID, summary)
	} else {
		err = m.state.PassedRunLog(runID)
	}
	if err != nil {
		m.log.Warn().Err(err).Msg("could not record the end of the run")
	}
}

// RunID : id of the last run recorded in the state db, empty without one
func (m *Migrator) RunID() string {
	if m.state == nil {
		return ""
	}
	run, err := m.state.GetLastRun()
	if err != nil || run == nil {
		return ""
	}
	return fmt.Sprint(run.RunID)
}
