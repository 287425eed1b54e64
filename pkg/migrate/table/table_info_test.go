package table

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoHelpers(t *testing.T) {
	info := Info{
		TableName: "orders",
		Schema:    []*Column{{ColumnName: "id"}, {ColumnName: "total"}},
		Indexes: []*Index{
			{ColumnName: "id", IndexName: "PRIMARY", IsPrimaryKey: true},
			{ColumnName: "total", IndexName: "idx_total"},
		},
	}
	assert.Equal(t, []string{"id", "total"}, info.ColumnNames())
	assert.Equal(t, []string{"id"}, info.PrimaryKey())
}

func TestMysqlFetcher(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	f := NewInfoFetcherMysql(db, "shop")

	mock.ExpectQuery("from information_schema.tables").
		WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("customers").AddRow("orders"))
	tables, err := f.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders"}, tables)

	mock.ExpectQuery("FROM information_schema.COLUMNS").
		WithArgs("shop", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"col_name", "col_type", "col_length"}).
			AddRow("id", "bigint", nil).
			AddRow("note", "varchar", 40))
	cols, err := f.Columns(context.Background(), "orders")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, Column{ColumnName: "id", Type: "bigint", TargetType: "long"}, *cols[0])
	assert.Equal(t, Column{ColumnName: "note", Type: "varchar", Length: 40, TargetType: "string(40)"}, *cols[1])

	mock.ExpectQuery("FROM information_schema.COLUMNS").
		WithArgs("shop", "shapes").
		WillReturnRows(sqlmock.NewRows([]string{"col_name", "col_type", "col_length"}).AddRow("area", "polygon", nil))
	_, err = f.Columns(context.Background(), "shapes")
	assert.ErrorContains(t, err, "shapes.area")

	assert.Equal(t, "`we``ird`", f.Quote("we`ird"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFetcher(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	f := NewInfoFetcherPostgres(db, "public")

	mock.ExpectQuery("FROM information_schema.table_constraints").
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "constraint_name", "is_pk"}).
			AddRow("id", "orders_pkey", true))
	idx, err := f.Indexes(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, []*Index{{ColumnName: "id", IndexName: "orders_pkey", IsPrimaryKey: true}}, idx)

	assert.Equal(t, `"Order""s"`, f.Quote(`Order"s`))
	assert.Equal(t, "public", f.Schema())
	require.NoError(t, mock.ExpectationsWereMet())
}
