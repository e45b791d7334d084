package main

import (
	"context"
	"database/sql"
	"net/url"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jmoiron/sqlx"
)

// DuckDBAdapter implements DBAdapter for DuckDB database files.
type DuckDBAdapter struct{}

func (a *DuckDBAdapter) Dialect() string    { return "duckdb" }
func (a *DuckDBAdapter) DriverName() string { return "duckdb" }
func (a *DuckDBAdapter) BindType() int      { return sqlx.DOLLAR }

// DSN maps "duckdb:///path.db?threads=4" to "path.db?threads=4". An empty
// path opens an in-memory database.
func (a *DuckDBAdapter) DSN(u *url.URL) (string, error) {
	dsn := fileDatabasePath(u)
	if u.RawQuery != "" {
		dsn += "?" + u.RawQuery
	}
	return dsn, nil
}

func (a *DuckDBAdapter) VersionQuery() string { return "SELECT version()" }

func (a *DuckDBAdapter) ListTablesQuery() string {
	return `SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		ORDER BY table_name`
}

// duckdbColumn is a row of information_schema.columns.
type duckdbColumn struct {
	Name     string         `db:"column_name"`
	Type     string         `db:"data_type"`
	Nullable string         `db:"is_nullable"`
	Default  sql.NullString `db:"column_default"`
}

func (a *DuckDBAdapter) Columns(ctx context.Context, q sqlx.QueryerContext, table string) ([]ColumnDescriptor, error) {
	var rows []duckdbColumn
	err := sqlx.SelectContext(ctx, q, &rows, `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}

	columns := make([]ColumnDescriptor, 0, len(rows))
	for _, r := range rows {
		col := ColumnDescriptor{
			Name:     r.Name,
			Type:     strings.ToUpper(r.Type),
			Nullable: r.Nullable == "YES",
		}
		switch {
		case r.Default.Valid && strings.HasPrefix(r.Default.String, "nextval("):
			col.Autoincrement = true
		case r.Default.Valid:
			col.Default = r.Default.String
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func (a *DuckDBAdapter) PrimaryKey(ctx context.Context, q sqlx.QueryerContext, table string) ([]string, error) {
	return informationSchemaPrimaryKey(ctx, q, table)
}

func (a *DuckDBAdapter) ForeignKeys(ctx context.Context, q sqlx.QueryerContext, table string) ([]ForeignKeyDescriptor, error) {
	return informationSchemaForeignKeys(ctx, q, table)
}
