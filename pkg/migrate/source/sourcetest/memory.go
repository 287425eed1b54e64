package sourcetest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/baderkha/blazing-transfer/pkg/migrate/source"
	"github.com/baderkha/blazing-transfer/pkg/migrate/table"
)

// Table : one in-memory table
type Table struct {
	Columns []*table.Column
	Rows    []source.Row
	// Err : returned by Next once the rows are exhausted, instead of io.EOF
	Err error
}

// Memory : Source backed by a map of tables
type Memory struct {
	Data map[string]*Table
	// Hold : each iterator sleeps this long before its first row
	Hold time.Duration

	mu        sync.Mutex
	active    int
	maxActive int
	pages     map[string][]int
}

func New(tables map[string]*Table) *Memory {
	return &Memory{Data: tables, pages: map[string][]int{}}
}

func (m *Memory) Tables(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(m.Data))
	for n := range m.Data {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Columns(ctx context.Context, tableName string) ([]*table.Column, error) {
	t, ok := m.Data[tableName]
	if !ok {
		return nil, fmt.Errorf("no such table %s", tableName)
	}
	return t.Columns, nil
}

func (m *Memory) Rows(ctx context.Context, tableName string, pageSize int) (source.RowIterator, error) {
	t, ok := m.Data[tableName]
	if !ok {
		return nil, fmt.Errorf("no such table %s", tableName)
	}
	m.mu.Lock()
	m.active++
	if m.active > m.maxActive {
		m.maxActive = m.active
	}
	m.pages[tableName] = append(m.pages[tableName], pageSize)
	m.mu.Unlock()
	return &rows{mem: m, RowIterator: source.FromSlice(t.Rows), err: t.Err, hold: m.Hold}, nil
}

// MaxActive : highest number of row iterators open at once
func (m *Memory) MaxActive() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxActive
}

// PageSizes : page sizes requested for a table, one entry per Rows call
func (m *Memory) PageSizes(tableName string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.pages[tableName]...)
}

type rows struct {
	source.RowIterator
	mem    *Memory
	err    error
	hold   time.Duration
	held   bool
	closed bool
}

func (r *rows) Next(ctx context.Context) (source.Row, error) {
	if !r.held && r.hold > 0 {
		r.held = true
		select {
		case <-time.After(r.hold):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	row, err := r.RowIterator.Next(ctx)
	if err == io.EOF && r.err != nil {
		return nil, r.err
	}
	return row, err
}

func (r *rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.mem.mu.Lock()
	r.mem.active--
	r.mem.mu.Unlock()
	return nil
}
