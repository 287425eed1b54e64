package importer

import (
	"fmt"

	"github.com/baderkha/blazing-transfer/pkg/migrate/batch"
	"github.com/baderkha/blazing-transfer/pkg/migrate/config"
	"github.com/baderkha/blazing-transfer/pkg/migrate/staging"
	"github.com/rs/zerolog"
)

// NewBatcher : the batcher an importer config asks for
func NewBatcher(cfg config.Importer, log zerolog.Logger) batch.Batcher {
	f := batch.FormatFromConfig(cfg)
	if cfg.Batcher == config.BatchByRows {
		return batch.NewRowBatcher(cfg.RowCount, f, batch.WithLogger(log))
	}
	return batch.NewByteBatcher(cfg.ByteLimit, f, batch.WithLogger(log))
}

// FromConfig : the importer an importer config asks for. store is only read by
// the chunking importer, nil builds one from the staging config.
func FromConfig(cfg config.Importer, runID string, store staging.Store, opts ...Option) (Importer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	opts = append(opts, WithTimeout(cfg.Timeout.Std()))
	switch cfg.Kind {
	case config.ImporterStream, "":
		return NewStreamImporter(NewBatcher(cfg, o.log), opts...), nil
	case config.ImporterChunking:
		if store == nil {
			var err error
			if store, err = staging.FromConfig(cfg.Staging); err != nil {
				return nil, err
			}
		}
		return NewChunkingImporter(NewBatcher(cfg, o.log), store, runID, opts...).
			WithFiles(cfg.Staging.FileExtension, cfg.Staging.KeepFiles), nil
	case config.ImporterSkip:
		return SkipImporter{}, nil
	}
	return nil, fmt.Errorf("unsupported importer kind %s", cfg.Kind)
}
