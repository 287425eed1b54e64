package source

import (
	"context"
	"io"

	"github.com/baderkha/blazing-transfer/pkg/migrate/table"
)

// Row : scalar values aligned to the table's column order
type Row []any

// RowIterator : lazy, finite, forward-only row sequence. Next returns io.EOF
// once exhausted. It is not restartable, ask the Source for a new one instead.
type RowIterator interface {
	Next(ctx context.Context) (Row, error)
	Close() error
}

// Source : where tables are migrated from
type Source interface {
	Tables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, tableName string) ([]*table.Column, error)
	// Rows : pages pageSize rows at a time so memory stays bounded
	Rows(ctx context.Context, tableName string, pageSize int) (RowIterator, error)
}

// FromSlice : iterator over rows already in memory
func FromSlice(rows []Row) RowIterator {
	return &sliceRows{rows: rows}
}

type sliceRows struct {
	rows []Row
	pos  int
}

func (s *sliceRows) Next(ctx context.Context) (Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	r := s.rows[s.pos]
	s.pos++
	return r, nil
}

func (s *sliceRows) Close() error { return nil }

// Drain : reads it to the end, mostly useful in tests and small lookups
func Drain(ctx context.Context, it RowIterator) ([]Row, error) {
	defer it.Close()
	var res []Row
	for {
		r, err := it.Next(ctx)
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return res, err
		}
		res = append(res, r)
	}
}
