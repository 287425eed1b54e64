package table

import "context"

// Column : column descriptor, only used to generate destination ddl
type Column struct {
	ColumnName string `db:"col_name"`
	Type       string `db:"col_type"`
	Length     int    `db:"col_length"`
	TargetType string `db:"target_type"`
}

type Index struct {
	ColumnName   string `db:"col_name"`
	IndexName    string `db:"index_name"`
	IsPrimaryKey bool   `db:"is_primary_key"`
}

// Info : table descriptor, immutable once fetched
type Info struct {
	TableName    string `db:"table_name"`
	DatabaseName string `db:"db_name"`
	Schema       []*Column
	Indexes      []*Index
}

// ColumnNames : column names in declared order
func (i *Info) ColumnNames() []string {
	names := make([]string, 0, len(i.Schema))
	for _, c := range i.Schema {
		names = append(names, c.ColumnName)
	}
	return names
}

// PrimaryKey : primary key columns in index order, empty when there is none
func (i *Info) PrimaryKey() []string {
	var pk []string
	for _, idx := range i.Indexes {
		if idx.IsPrimaryKey {
			pk = append(pk, idx.ColumnName)
		}
	}
	return pk
}

// InfoFetcher : schema introspection of a source database
type InfoFetcher interface {
	// Tables : base tables of the schema sorted by name
	Tables(ctx context.Context) ([]string, error)
	// Columns : columns with their destination type already resolved
	Columns(ctx context.Context, table string) ([]*Column, error)
	Indexes(ctx context.Context, table string) ([]*Index, error)
	// Quote : quotes an identifier for this dialect
	Quote(ident string) string
	// Schema : schema (database) tables are read from
	Schema() string
}
