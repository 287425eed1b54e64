package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/baderkha/blazing-transfer/pkg/migrate/connector"
	"github.com/baderkha/blazing-transfer/pkg/migrate/source"
	"github.com/baderkha/blazing-transfer/pkg/migrate/table"
	"github.com/rs/zerolog"
)

// TableContext : state of one table's migration, shared by its stages and its
// importer and dropped once the table is done
type TableContext struct {
	SourceTable string
	// DestTable : name in the destination, stages may rename it
	DestTable string
	// Source : where rows come from, stages may wrap it (limit, column filter)
	Source      source.Source
	Destination connector.Querier
	Log         zerolog.Logger

	rows      atomic.Int64
	bytes     atomic.Int64
	batches   atomic.Int64
	cancelled atomic.Bool
	reason    atomic.Value
}

func NewTableContext(tableName string, src source.Source, dest connector.Querier, log zerolog.Logger) *TableContext {
	return &TableContext{
		SourceTable: tableName,
		DestTable:   tableName,
		Source:      src,
		Destination: dest,
		Log:         log,
	}
}

// Columns : columns of the source table as the (possibly wrapped) source reports them
func (t *TableContext) Columns(ctx context.Context) ([]*table.Column, error) {
	return t.Source.Columns(ctx, t.SourceTable)
}

// Query : runs sql on the destination, logging in as needed
func (t *TableContext) Query(ctx context.Context, sql string) (*connector.Result, error) {
	return t.Destination.Query(ctx, sql, connector.WithAutoConnect())
}

// Cancel : skips the rest of this table. Checked between stages and between batches
func (t *TableContext) Cancel(reason string) {
	t.reason.Store(reason)
	t.cancelled.Store(true)
}

func (t *TableContext) Cancelled() bool { return t.cancelled.Load() }

func (t *TableContext) CancelReason() string {
	r, _ := t.reason.Load().(string)
	return r
}

// AddBatch : counts one uploaded batch
func (t *TableContext) AddBatch(rows int, bytes int) {
	t.Add(int64(rows), int64(bytes), 1)
}

// Add : counts several batches loaded at once
func (t *TableContext) Add(rows int64, bytes int64, batches int) {
	t.batches.Add(int64(batches))
	t.rows.Add(rows)
	t.bytes.Add(bytes)
}

func (t *TableContext) Rows() int64    { return t.rows.Load() }
func (t *TableContext) Bytes() int64   { return t.bytes.Load() }
func (t *TableContext) Batches() int64 { return t.batches.Load() }
