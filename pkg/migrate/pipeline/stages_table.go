package pipeline

import (
	"context"
	"strings"

	"github.com/baderkha/blazing-transfer/pkg/migrate/source"
)

// DefaultPrefixSeparator : joins prefix and table name
const DefaultPrefixSeparator = "$"

// PrefixTableStage : renames the destination table to <prefix><separator><table>
type PrefixTableStage struct {
	Base
	Prefix    string
	Separator string
}

func (s *PrefixTableStage) Name() string { return "prefix_table" }

func (s *PrefixTableStage) Before(ctx context.Context, tc *TableContext) error {
	sep := s.Separator
	if sep == "" {
		sep = DefaultPrefixSeparator
	}
	tc.DestTable = s.Prefix + sep + tc.DestTable
	return nil
}

// LimitImportStage : caps the rows transferred per table
type LimitImportStage struct {
	Base
	Count int
}

func (s *LimitImportStage) Name() string { return "limit_import" }

func (s *LimitImportStage) Before(ctx context.Context, tc *TableContext) error {
	tc.Source = source.Limited(tc.Source, s.Count)
	return nil
}

// FilterColumnsStage : leaves the listed columns of each table out of the transfer
type FilterColumnsStage struct {
	Base
	Tables map[string][]string
}

func (s *FilterColumnsStage) Name() string { return "filter_columns" }

func (s *FilterColumnsStage) Before(ctx context.Context, tc *TableContext) error {
	ignored := s.Tables[tc.SourceTable]
	if len(ignored) == 0 {
		return nil
	}
	tc.Log.Info().Msgf("filtering %d column(s) (%s)", len(ignored), strings.Join(ignored, ", "))
	tc.Source = source.Filtered(tc.Source, ignored)
	return nil
}
