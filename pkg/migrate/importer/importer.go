package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/baderkha/blazing-transfer/pkg/migrate/batch"
	"github.com/baderkha/blazing-transfer/pkg/migrate/connector"
	"github.com/baderkha/blazing-transfer/pkg/migrate/errs"
	"github.com/baderkha/blazing-transfer/pkg/migrate/pipeline"
	"github.com/baderkha/blazing-transfer/pkg/migrate/source"
	"github.com/rs/zerolog"
)

// Result : what reached the destination (or the staging area) for one table
type Result struct {
	Rows    int64
	Bytes   int64
	Batches int
}

func (r *Result) add(b *batch.Batch) {
	r.Rows += int64(b.Len())
	r.Bytes += int64(b.Size())
	r.Batches++
}

// Importer : loads rows into tc.DestTable. On failure the counts up to the
// failing batch are still returned.
type Importer interface {
	Load(ctx context.Context, tc *pipeline.TableContext, rows source.RowIterator) (Result, error)
}

// BatchHooks : run around every batch, a *pipeline.Pipeline satisfies it
type BatchHooks interface {
	RunBeforeBatch(ctx context.Context, tc *pipeline.TableContext, b *batch.Batch) error
	RunAfterBatch(ctx context.Context, tc *pipeline.TableContext, b *batch.Batch) error
}

type noHooks struct{}

func (noHooks) RunBeforeBatch(context.Context, *pipeline.TableContext, *batch.Batch) error {
	return nil
}

func (noHooks) RunAfterBatch(context.Context, *pipeline.TableContext, *batch.Batch) error {
	return nil
}

type options struct {
	log     zerolog.Logger
	hooks   BatchHooks
	timeout time.Duration
}

func defaultOptions() options {
	return options{log: zerolog.Nop(), hooks: noHooks{}}
}

type Option func(*options)

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

func WithBatchHooks(h BatchHooks) Option {
	return func(o *options) { o.hooks = h }
}

// WithTimeout : bound on each request to the destination
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// loadQuery : load data <method> into table <table> with the format's delimiters
func loadQuery(method string, tableName string, f batch.Format) string {
	return fmt.Sprintf(
		"load data %s into table %s fields terminated by '%s' enclosed by '%s' lines terminated by '%s'",
		method, tableName, f.FieldTerminator, f.FieldWrapper, f.LineTerminator,
	)
}

// perform : runs query, logging in again and retrying exactly once when the
// session turned out to be expired
func perform(ctx context.Context, o *options, dest connector.Querier, query string) error {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	_, err := dest.Query(ctx, query, connector.WithAutoConnect())
	if !errors.Is(err, connector.ErrSessionExpired) {
		return err
	}
	o.log.Warn().Msg("session expired, logging in again")
	sess, err := dest.Connect(ctx)
	if err != nil {
		return fmt.Errorf("reconnecting after an expired session : %w", err)
	}
	_, err = dest.Query(ctx, query, connector.WithSession(sess))
	return err
}

// readErr : errors from the batch iterator come from the source
func readErr(tc *pipeline.TableContext, err error) error {
	if errs.KindOf(err) != errs.KindUnknown {
		return err
	}
	return &errs.SourceError{Table: tc.SourceTable, Op: "stream rows", Err: err}
}

// each : walks the batches, stopping between batches when the table is cancelled
func each(ctx context.Context, tc *pipeline.TableContext, it batch.Iterator, fn func(b *batch.Batch) error) error {
	for !tc.Cancelled() {
		b, err := it.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return readErr(tc, err)
		}
		if err := fn(b); err != nil {
			return err
		}
	}
	return nil
}
