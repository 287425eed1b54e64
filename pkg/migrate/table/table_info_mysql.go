package table

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/baderkha/blazing-transfer/pkg/migrate/table/colmap"
)

func NewInfoFetcherMysql(db *sql.DB, schema string) InfoFetcher {
	return &InfoFetcherMYSQL{
		source: db,
		schema: schema,
	}
}

type InfoFetcherMYSQL struct {
	source *sql.DB
	schema string
}

func (m *InfoFetcherMYSQL) Schema() string { return m.schema }

func (m *InfoFetcherMYSQL) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (m *InfoFetcherMYSQL) Tables(ctx context.Context) ([]string, error) {
	rows, err := m.source.QueryContext(ctx, `
	select table_name
	from information_schema.tables
	where table_type = 'BASE TABLE'
		and table_schema = ?
	order by table_name`, m.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		res = append(res, name)
	}
	return res, rows.Err()
}

func (m *InfoFetcherMYSQL) Columns(ctx context.Context, table string) ([]*Column, error) {
	rows, err := m.source.QueryContext(ctx, `SELECT COLUMN_NAME AS col_name, DATA_TYPE AS col_type, CHARACTER_MAXIMUM_LENGTH AS col_length
	FROM information_schema.COLUMNS
	WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
	ORDER BY ORDINAL_POSITION`, m.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanColumns(rows, colmap.MysqlToBlazing, table)
}

func (m *InfoFetcherMYSQL) Indexes(ctx context.Context, table string) ([]*Index, error) {
	rows, err := m.source.QueryContext(ctx, `
	SELECT
		COLUMN_NAME as col_name,
		INDEX_NAME as index_name,
		(case WHEN lower(INDEX_NAME) = 'primary' then true ELSE false END) as is_primary
	FROM
		INFORMATION_SCHEMA.STATISTICS
	WHERE
		TABLE_SCHEMA = ?
		AND TABLE_NAME = ?
	ORDER BY INDEX_NAME, SEQ_IN_INDEX
`, m.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIndexes(rows)
}

func scanColumns(rows *sql.Rows, t colmap.Type, table string) ([]*Column, error) {
	var res []*Column
	for rows.Next() {
		var (
			col    Column
			length sql.NullInt64
		)
		if err := rows.Scan(&col.ColumnName, &col.Type, &length); err != nil {
			return nil, err
		}
		col.Length = int(length.Int64)
		target, err := colmap.Convert(t, col.Type, col.Length)
		if err != nil {
			return nil, fmt.Errorf("%s.%s : %w", table, col.ColumnName, err)
		}
		col.TargetType = target
		res = append(res, &col)
	}
	return res, rows.Err()
}

func scanIndexes(rows *sql.Rows) ([]*Index, error) {
	var res []*Index
	for rows.Next() {
		var ifo Index
		if err := rows.Scan(&ifo.ColumnName, &ifo.IndexName, &ifo.IsPrimaryKey); err != nil {
			return nil, err
		}
		res = append(res, &ifo)
	}
	return res, rows.Err()
}
