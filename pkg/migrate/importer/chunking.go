package importer

import (
	"context"
	"fmt"
	"path"

	"github.com/baderkha/blazing-transfer/pkg/migrate/batch"
	"github.com/baderkha/blazing-transfer/pkg/migrate/config"
	"github.com/baderkha/blazing-transfer/pkg/migrate/errs"
	"github.com/baderkha/blazing-transfer/pkg/migrate/pipeline"
	"github.com/baderkha/blazing-transfer/pkg/migrate/source"
	"github.com/baderkha/blazing-transfer/pkg/migrate/staging"
	"github.com/dustin/go-humanize"
	"github.com/gofrs/uuid"
)

// ChunkingImporter : writes every batch as a chunk file into a staging
// directory of its own, then loads the directory with a single request
type ChunkingImporter struct {
	batcher   batch.Batcher
	store     staging.Store
	runID     string
	extension string
	keepFiles bool
	opts      options
}

func NewChunkingImporter(b batch.Batcher, store staging.Store, runID string, opts ...Option) *ChunkingImporter {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &ChunkingImporter{
		batcher:   b,
		store:     store,
		runID:     runID,
		extension: config.DefaultFileExtension,
		opts:      o,
	}
}

// WithFiles : chunk file extension, and whether staged files outlive the load
func (c *ChunkingImporter) WithFiles(extension string, keep bool) *ChunkingImporter {
	c.extension = extension
	c.keepFiles = keep
	return c
}

func (c *ChunkingImporter) fileName(tableName string, chunk int) string {
	name := fmt.Sprintf("%s_%d", tableName, chunk)
	if c.extension == "" {
		return name
	}
	return name + "." + c.extension
}

func (c *ChunkingImporter) Load(ctx context.Context, tc *pipeline.TableContext, rows source.RowIterator) (Result, error) {
	uid, err := uuid.NewV4()
	if err != nil {
		return Result{}, err
	}
	var (
		res Result
		dir = path.Join(c.runID, tc.DestTable+"-"+uid.String())
	)
	if !c.keepFiles {
		defer func() {
			if err := c.store.Remove(context.Background(), dir); err != nil {
				tc.Log.Warn().Err(err).Str("dir", dir).Msg("could not clean up staged chunks")
			}
		}()
	}

	err = each(ctx, tc, c.batcher.Accumulate(rows), func(b *batch.Batch) error {
		if err := c.opts.hooks.RunBeforeBatch(ctx, tc, b); err != nil {
			return err
		}
		name := c.fileName(tc.DestTable, b.Index)
		tc.Log.Info().
			Str("file", name).
			Str("bytes", humanize.IBytes(uint64(b.Size()))).
			Msg("writing chunk file")
		if err := c.store.Write(ctx, dir, name, b.Payload); err != nil {
			return &errs.UploadError{Table: tc.SourceTable, Batch: b.Index, Err: err}
		}
		res.add(b)
		return c.opts.hooks.RunAfterBatch(ctx, tc, b)
	})
	if err != nil || tc.Cancelled() || res.Batches == 0 {
		return res, err
	}

	location := c.store.Location(dir)
	tc.Log.Info().Str("location", location).Int("chunks", res.Batches).Msg("loading staged chunks")
	if err := perform(ctx, &c.opts, tc.Destination, loadQuery("infile "+location, tc.DestTable, c.batcher.Format())); err != nil {
		return res, &errs.UploadError{Table: tc.SourceTable, Batch: errs.NoBatch, Err: err}
	}
	tc.Add(res.Rows, res.Bytes, res.Batches)
	return res, nil
}
