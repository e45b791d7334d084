package main

import (
	"context"
	"database/sql"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresAdapter implements DBAdapter for PostgreSQL databases.
type PostgresAdapter struct{}

func (a *PostgresAdapter) Dialect() string    { return "postgresql" }
func (a *PostgresAdapter) DriverName() string { return "postgres" }
func (a *PostgresAdapter) BindType() int      { return sqlx.DOLLAR }

// DSN rewrites the scheme so lib/pq accepts the URL as-is; user info,
// host, database and query parameters (sslmode etc.) pass through.
func (a *PostgresAdapter) DSN(u *url.URL) (string, error) {
	dsn := *u
	dsn.Scheme = "postgres"
	return dsn.String(), nil
}

func (a *PostgresAdapter) VersionQuery() string { return "SHOW server_version" }

func (a *PostgresAdapter) ListTablesQuery() string {
	return `SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		ORDER BY table_name`
}

// postgresColumn is a column as read from pg_catalog.
type postgresColumn struct {
	Name       string         `db:"name"`
	Type       string         `db:"type"`
	Nullable   bool           `db:"nullable"`
	Default    sql.NullString `db:"column_default"`
	IsIdentity bool           `db:"is_identity"`
	Comment    sql.NullString `db:"comment"`
}

func (a *PostgresAdapter) Columns(ctx context.Context, q sqlx.QueryerContext, table string) ([]ColumnDescriptor, error) {
	var rows []postgresColumn
	err := sqlx.SelectContext(ctx, q, &rows, `
		SELECT a.attname AS name,
		       format_type(a.atttypid, a.atttypmod) AS type,
		       NOT a.attnotnull AS nullable,
		       pg_get_expr(d.adbin, d.adrelid) AS column_default,
		       a.attidentity <> '' AS is_identity,
		       col_description(c.oid, a.attnum) AS comment
		FROM pg_catalog.pg_attribute a
		JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_catalog.pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
		WHERE c.relname = $1 AND n.nspname = current_schema()
		  AND a.attnum > 0 AND NOT a.attisdropped
		ORDER BY a.attnum`, table)
	if err != nil {
		return nil, err
	}

	columns := make([]ColumnDescriptor, 0, len(rows))
	for _, r := range rows {
		col := ColumnDescriptor{
			Name:     r.Name,
			Type:     strings.ToUpper(r.Type),
			Nullable: r.Nullable,
			Comment:  r.Comment.String,
		}
		// Serial columns carry a nextval() default; report them as autoincrement instead.
		switch {
		case r.IsIdentity:
			col.Autoincrement = true
		case r.Default.Valid && strings.HasPrefix(r.Default.String, "nextval("):
			col.Autoincrement = true
		case r.Default.Valid:
			col.Default = r.Default.String
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func (a *PostgresAdapter) PrimaryKey(ctx context.Context, q sqlx.QueryerContext, table string) ([]string, error) {
	return informationSchemaPrimaryKey(ctx, q, table)
}

func (a *PostgresAdapter) ForeignKeys(ctx context.Context, q sqlx.QueryerContext, table string) ([]ForeignKeyDescriptor, error) {
	return informationSchemaForeignKeys(ctx, q, table)
}

// informationSchemaPrimaryKey reads primary-key columns of a table in the
// current schema. Both PostgreSQL and DuckDB accept $1 placeholders.
func informationSchemaPrimaryKey(ctx context.Context, q sqlx.QueryerContext, table string) ([]string, error) {
	var keys []string
	err := sqlx.SelectContext(ctx, q, &keys, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_name = tc.constraint_name
		 AND kcu.table_schema = tc.table_schema
		 AND kcu.table_name = tc.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = current_schema()
		  AND tc.table_name = $1
		ORDER BY kcu.ordinal_position`, table)
	return keys, err
}

// informationSchemaForeignKeys reads foreign keys of a table in the
// current schema, pairing local and referenced columns by position.
func informationSchemaForeignKeys(ctx context.Context, q sqlx.QueryerContext, table string) ([]ForeignKeyDescriptor, error) {
	var rows []foreignKeyRow
	err := sqlx.SelectContext(ctx, q, &rows, `
		SELECT kcu.constraint_name AS constraint_name,
		       kcu.column_name AS column_name,
		       ref.table_name AS referred_table,
		       ref.column_name AS referred_column
		FROM information_schema.referential_constraints rc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_name = rc.constraint_name
		 AND kcu.constraint_schema = rc.constraint_schema
		JOIN information_schema.key_column_usage ref
		  ON ref.constraint_name = rc.unique_constraint_name
		 AND ref.constraint_schema = rc.unique_constraint_schema
		 AND ref.ordinal_position = kcu.position_in_unique_constraint
		WHERE kcu.table_schema = current_schema() AND kcu.table_name = $1
		ORDER BY kcu.constraint_name, kcu.ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	return groupForeignKeys(rows), nil
}
