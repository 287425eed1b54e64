package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/baderkha/blazing-transfer/pkg/migrate/errs"
	"github.com/baderkha/blazing-transfer/pkg/migrate/table"
	"github.com/rs/zerolog"
)

const DefaultTimeout = 5 * time.Minute

// SQL : Source over a database/sql handle, dialect specifics live in the InfoFetcher
type SQL struct {
	db      *sql.DB
	info    table.InfoFetcher
	timeout time.Duration
	log     zerolog.Logger
}

type Option func(*SQL)

// WithTimeout : bound on every introspection query and every page fetch
func WithTimeout(d time.Duration) Option {
	return func(s *SQL) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *SQL) { s.log = log }
}

func NewSQL(db *sql.DB, info table.InfoFetcher, opts ...Option) *SQL {
	s := &SQL{
		db:      db,
		info:    info,
		timeout: DefaultTimeout,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *SQL) Tables(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	tables, err := s.info.Tables(ctx)
	if err != nil {
		return nil, &errs.SourceError{Op: "list tables", Err: err}
	}
	s.log.Debug().Int("count", len(tables)).Str("schema", s.info.Schema()).Msg("retrieved tables")
	return tables, nil
}

func (s *SQL) Columns(ctx context.Context, tableName string) ([]*table.Column, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	cols, err := s.info.Columns(ctx, tableName)
	if err != nil {
		return nil, &errs.SourceError{Table: tableName, Op: "list columns", Err: err}
	}
	if len(cols) == 0 {
		return nil, &errs.SourceError{Table: tableName, Op: "list columns", Err: fmt.Errorf("table has no columns or does not exist")}
	}
	s.log.Debug().Str("table", tableName).Int("count", len(cols)).Msg("retrieved columns")
	return cols, nil
}

func (s *SQL) Rows(ctx context.Context, tableName string, pageSize int) (RowIterator, error) {
	if pageSize <= 0 {
		return nil, &errs.SourceError{Table: tableName, Op: "stream rows", Err: fmt.Errorf("page size must be positive, got %d", pageSize)}
	}
	cols, err := s.Columns(ctx, tableName)
	if err != nil {
		return nil, err
	}
	ictx, cancel := context.WithTimeout(ctx, s.timeout)
	idx, err := s.info.Indexes(ictx, tableName)
	cancel()
	if err != nil {
		return nil, &errs.SourceError{Table: tableName, Op: "list indexes", Err: err}
	}
	info := table.Info{TableName: tableName, DatabaseName: s.info.Schema(), Schema: cols, Indexes: idx}
	return &pagedRows{
		src:      s,
		table:    tableName,
		query:    s.selectQuery(&info),
		pageSize: pageSize,
		width:    len(cols),
	}, nil
}

func (s *SQL) selectQuery(info *table.Info) string {
	quoted := func(names []string) string {
		q := make([]string, len(names))
		for i, n := range names {
			q[i] = s.info.Quote(n)
		}
		return strings.Join(q, ",")
	}
	query := fmt.Sprintf("SELECT %s FROM %s.%s", quoted(info.ColumnNames()), s.info.Quote(info.DatabaseName), s.info.Quote(info.TableName))
	// LIMIT / OFFSET pages only line up under a total order, without a
	// primary key every column is used
	order := info.PrimaryKey()
	if len(order) == 0 {
		order = info.ColumnNames()
	}
	return query + " ORDER BY " + quoted(order)
}

type pagedRows struct {
	src      *SQL
	table    string
	query    string
	pageSize int
	width    int
	offset   int
	buf      []Row
	pos      int
	done     bool
	closed   bool
}

func (p *pagedRows) Next(ctx context.Context) (Row, error) {
	if p.closed {
		return nil, io.EOF
	}
	if p.pos >= len(p.buf) {
		if p.done {
			return nil, io.EOF
		}
		if err := p.fetch(ctx); err != nil {
			return nil, &errs.SourceError{Table: p.table, Op: "stream rows", Err: err}
		}
		if len(p.buf) == 0 {
			return nil, io.EOF
		}
	}
	r := p.buf[p.pos]
	p.pos++
	return r, nil
}

func (p *pagedRows) fetch(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.src.timeout)
	defer cancel()

	query := fmt.Sprintf("%s LIMIT %d OFFSET %d", p.query, p.pageSize, p.offset)
	rows, err := p.src.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	p.buf = p.buf[:0]
	p.pos = 0
	for rows.Next() {
		vals := make([]any, p.width)
		ptrs := make([]any, p.width)
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		p.buf = append(p.buf, Row(vals))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ctx.Err()
	}
	p.offset += len(p.buf)
	if len(p.buf) < p.pageSize {
		p.done = true
	}
	p.src.log.Debug().Str("table", p.table).Int("rows", len(p.buf)).Int("offset", p.offset).Msg("fetched page")
	return nil
}

func (p *pagedRows) Close() error {
	p.closed = true
	p.buf = nil
	return nil
}
