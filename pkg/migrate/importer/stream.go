package importer

import (
	"context"

	"github.com/baderkha/blazing-transfer/pkg/migrate/batch"
	"github.com/baderkha/blazing-transfer/pkg/migrate/errs"
	"github.com/baderkha/blazing-transfer/pkg/migrate/pipeline"
	"github.com/baderkha/blazing-transfer/pkg/migrate/source"
	"github.com/dustin/go-humanize"
)

// StreamImporter : one load request per batch, payload inline
type StreamImporter struct {
	batcher batch.Batcher
	opts    options
}

func NewStreamImporter(b batch.Batcher, opts ...Option) *StreamImporter {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &StreamImporter{batcher: b, opts: o}
}

func (s *StreamImporter) Load(ctx context.Context, tc *pipeline.TableContext, rows source.RowIterator) (Result, error) {
	var (
		res    Result
		format = s.batcher.Format()
	)
	err := each(ctx, tc, s.batcher.Accumulate(rows), func(b *batch.Batch) error {
		if err := s.opts.hooks.RunBeforeBatch(ctx, tc, b); err != nil {
			return err
		}
		tc.Log.Info().
			Int("batch", b.Index).
			Int("rows", b.Len()).
			Str("bytes", humanize.IBytes(uint64(b.Size()))).
			Msg("streaming batch")
		query := loadQuery("stream '"+string(b.Payload)+"'", tc.DestTable, format)
		if err := perform(ctx, &s.opts, tc.Destination, query); err != nil {
			return &errs.UploadError{Table: tc.SourceTable, Batch: b.Index, Err: err}
		}
		res.add(b)
		tc.AddBatch(b.Len(), b.Size())
		return s.opts.hooks.RunAfterBatch(ctx, tc, b)
	})
	return res, err
}
