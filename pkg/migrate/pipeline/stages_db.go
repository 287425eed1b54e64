package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/baderkha/blazing-transfer/pkg/migrate/connector"
)

// quietly : runs sql, when quiet a rejected query is logged and ignored
func quietly(ctx context.Context, tc *TableContext, quiet bool, sql string, why string) error {
	_, err := tc.Query(ctx, sql)
	var qErr *connector.QueryError
	if err != nil && quiet && errors.As(err, &qErr) {
		tc.Log.Debug().Err(err).Msgf("query rejected, ignoring as it most likely means %s", why)
		return nil
	}
	return err
}

// CreateTableStage : creates the destination table from the source columns
type CreateTableStage struct {
	Base
	Quiet bool
}

func (s *CreateTableStage) Name() string { return "create_table" }

func (s *CreateTableStage) Before(ctx context.Context, tc *TableContext) error {
	cols, err := tc.Columns(ctx)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("table %s has no columns", tc.SourceTable)
	}
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		typ := c.TargetType
		if typ == "" {
			typ = c.Type
		}
		defs = append(defs, c.ColumnName+" "+typ)
	}
	tc.Log.Info().Str("dest_table", tc.DestTable).Msgf("creating table with %d column(s)", len(cols))
	return quietly(ctx, tc, s.Quiet, fmt.Sprintf("CREATE TABLE %s (%s)", tc.DestTable, strings.Join(defs, ", ")), "the table exists")
}

// DropTableStage : drops the destination table
type DropTableStage struct {
	Base
	Quiet bool
}

func (s *DropTableStage) Name() string { return "drop_table" }

func (s *DropTableStage) Before(ctx context.Context, tc *TableContext) error {
	tc.Log.Info().Str("dest_table", tc.DestTable).Msg("dropping table")
	return quietly(ctx, tc, s.Quiet, "DROP TABLE "+tc.DestTable, "the table doesn't exist")
}

// TruncateTableStage : deletes every row of the destination table
type TruncateTableStage struct {
	Base
	Quiet bool
}

func (s *TruncateTableStage) Name() string { return "truncate_table" }

func (s *TruncateTableStage) Before(ctx context.Context, tc *TableContext) error {
	tc.Log.Info().Str("dest_table", tc.DestTable).Msg("truncating table")
	return quietly(ctx, tc, s.Quiet, "DELETE FROM "+tc.DestTable, "the table is already empty")
}

// PostImportHackStage : queries the destination needs after a bulk load before
// the table reads correctly
type PostImportHackStage struct {
	Base
}

func (s *PostImportHackStage) Name() string { return "post_import" }

func (s *PostImportHackStage) After(ctx context.Context, tc *TableContext) error {
	tc.Log.Info().Str("dest_table", tc.DestTable).Msg("performing post-optimize")
	for _, q := range []string{
		"POST-OPTIMIZE TABLE " + tc.DestTable,
		"GENERATE SKIP-DATA FOR " + tc.DestTable,
	} {
		if _, err := tc.Query(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
