package source

import (
	"context"
	"io"

	"github.com/baderkha/blazing-transfer/pkg/migrate/table"
)

// Limited : caps every row sequence of src at count rows
func Limited(src Source, count int) Source {
	return &limitedSource{Source: src, count: count}
}

type limitedSource struct {
	Source
	count int
}

func (l *limitedSource) Rows(ctx context.Context, tableName string, pageSize int) (RowIterator, error) {
	if l.count < pageSize {
		pageSize = l.count
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	it, err := l.Source.Rows(ctx, tableName, pageSize)
	if err != nil {
		return nil, err
	}
	return &limitedRows{RowIterator: it, left: l.count}, nil
}

type limitedRows struct {
	RowIterator
	left int
}

func (l *limitedRows) Next(ctx context.Context) (Row, error) {
	if l.left <= 0 {
		return nil, io.EOF
	}
	r, err := l.RowIterator.Next(ctx)
	if err != nil {
		return nil, err
	}
	l.left--
	return r, nil
}

// Filtered : removes the named columns from both the column list and every row of src
func Filtered(src Source, columns []string) Source {
	drop := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		drop[c] = struct{}{}
	}
	return &filteredSource{Source: src, drop: drop}
}

type filteredSource struct {
	Source
	drop map[string]struct{}
}

func (f *filteredSource) Columns(ctx context.Context, tableName string) ([]*table.Column, error) {
	cols, err := f.Source.Columns(ctx, tableName)
	if err != nil {
		return nil, err
	}
	kept := make([]*table.Column, 0, len(cols))
	for _, c := range cols {
		if _, ok := f.drop[c.ColumnName]; !ok {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

func (f *filteredSource) Rows(ctx context.Context, tableName string, pageSize int) (RowIterator, error) {
	cols, err := f.Source.Columns(ctx, tableName)
	if err != nil {
		return nil, err
	}
	keep := make([]int, 0, len(cols))
	for i, c := range cols {
		if _, ok := f.drop[c.ColumnName]; !ok {
			keep = append(keep, i)
		}
	}
	it, err := f.Source.Rows(ctx, tableName, pageSize)
	if err != nil {
		return nil, err
	}
	return &filteredRows{RowIterator: it, keep: keep}, nil
}

type filteredRows struct {
	RowIterator
	keep []int
}

func (f *filteredRows) Next(ctx context.Context) (Row, error) {
	r, err := f.RowIterator.Next(ctx)
	if err != nil {
		return nil, err
	}
	out := make(Row, 0, len(f.keep))
	for _, i := range f.keep {
		if i < len(r) {
			out = append(out, r[i])
		}
	}
	return out, nil
}
