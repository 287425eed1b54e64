package importer

import (
	"context"

	"github.com/baderkha/blazing-transfer/pkg/migrate/pipeline"
	"github.com/baderkha/blazing-transfer/pkg/migrate/source"
)

// SkipImporter : reads nothing and loads nothing, only the pipeline stages run
type SkipImporter struct{}

func (SkipImporter) Load(ctx context.Context, tc *pipeline.TableContext, rows source.RowIterator) (Result, error) {
	tc.Log.Info().Msg("skipping data import")
	return Result{}, nil
}
