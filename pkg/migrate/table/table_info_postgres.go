package table

import (
	"context"
	"database/sql"
	"strings"

	"github.com/baderkha/blazing-transfer/pkg/migrate/table/colmap"
)

func NewInfoFetcherPostgres(db *sql.DB, schema string) InfoFetcher {
	return &InfoFetcherPostgres{
		source: db,
		schema: schema,
	}
}

type InfoFetcherPostgres struct {
	source *sql.DB
	schema string
}

func (p *InfoFetcherPostgres) Schema() string { return p.schema }

func (p *InfoFetcherPostgres) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (p *InfoFetcherPostgres) Tables(ctx context.Context) ([]string, error) {
	rows, err := p.source.QueryContext(ctx, `
	SELECT DISTINCT table_name
	FROM information_schema.tables
	WHERE table_schema = $1 AND table_type = 'BASE TABLE'
	ORDER BY table_name`, p.schema)
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

func (p *InfoFetcherPostgres) Columns(ctx context.Context, table string) ([]*Column, error) {
	rows, err := p.source.QueryContext(ctx, `
	SELECT column_name, data_type, character_maximum_length
	FROM information_schema.columns
	WHERE table_schema = $1 AND table_name = $2
	ORDER BY ordinal_position`, p.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanColumns(rows, colmap.PostgresToBlazing, table)
}

func (p *InfoFetcherPostgres) Indexes(ctx context.Context, table string) ([]*Index, error) {
	rows, err := p.source.QueryContext(ctx, `
	SELECT kcu.column_name, tc.constraint_name, tc.constraint_type = 'PRIMARY KEY'
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
	WHERE tc.table_schema = $1 AND tc.table_name = $2
		AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
	ORDER BY tc.constraint_name, kcu.ordinal_position`, p.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIndexes(rows)
}
