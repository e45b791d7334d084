package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"
)

// DBAdapter defines the contract for database-specific behavior.
// Each supported database (SQLite, PostgreSQL, MySQL, DuckDB) implements this interface.
type DBAdapter interface {
	// Dialect returns the dialect name shown to clients (e.g., "postgresql").
	Dialect() string

	// DriverName returns the database/sql driver name (e.g., "mysql", "postgres", "sqlite").
	DriverName() string

	// BindType returns the sqlx placeholder style named parameters are bound to.
	BindType() int

	// DSN translates a parsed database URL into a driver connection string.
	DSN(u *url.URL) (string, error)

	// VersionQuery returns a query whose single column is the server version.
	VersionQuery() string

	// ListTablesQuery returns a query whose single column lists table names.
	ListTablesQuery() string

	// Columns returns the catalog's column descriptions for a table,
	// in declaration order. An unknown table yields no columns.
	Columns(ctx context.Context, q sqlx.QueryerContext, table string) ([]ColumnDescriptor, error)

	// PrimaryKey returns the primary-key column names of a table.
	PrimaryKey(ctx context.Context, q sqlx.QueryerContext, table string) ([]string, error)

	// ForeignKeys returns the foreign keys declared on a table.
	ForeignKeys(ctx context.Context, q sqlx.QueryerContext, table string) ([]ForeignKeyDescriptor, error)
}

// adapterFor resolves the adapter for a URL scheme. A "+driver" suffix,
// as in "postgresql+psycopg2", is ignored.
func adapterFor(scheme string) (DBAdapter, error) {
	dialect, _, _ := strings.Cut(strings.ToLower(scheme), "+")
	switch dialect {
	case "sqlite", "sqlite3":
		return &SQLiteAdapter{}, nil
	case "postgresql", "postgres", "pgsql":
		return &PostgresAdapter{}, nil
	case "mysql", "mariadb":
		return &MySQLAdapter{}, nil
	case "duckdb":
		return &DuckDBAdapter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, scheme)
	}
}

// parseDatabaseURL parses a SQLAlchemy-style URL and returns the
// matching adapter and driver DSN.
func parseDatabaseURL(rawURL string) (*url.URL, DBAdapter, string, error) {
	if rawURL == "" {
		return nil, nil, "", ErrNoDatabaseURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, "", fmt.Errorf("parsing database url: %w", err)
	}
	if u.Scheme == "" {
		return nil, nil, "", fmt.Errorf("database url %q has no scheme", redactURL(u))
	}
	adapter, err := adapterFor(u.Scheme)
	if err != nil {
		return nil, nil, "", err
	}
	dsn, err := adapter.DSN(u)
	if err != nil {
		return nil, nil, "", fmt.Errorf("building %s dsn: %w", adapter.Dialect(), err)
	}
	return u, adapter, dsn, nil
}

// fileDatabasePath extracts the file path of a file-backed database URL:
// "x:///rel.db" is relative, "x:////abs.db" is absolute and an empty path
// or ":memory:" selects an in-memory database (returned as "").
func fileDatabasePath(u *url.URL) string {
	path := u.Path
	if u.Host != "" {
		// "sqlite://data.db" puts the file name in the host part.
		path = u.Host + path
	} else {
		path = strings.TrimPrefix(path, "/")
	}
	if path == ":memory:" {
		return ""
	}
	return path
}

// redactURL hides the password for logging and error messages.
func redactURL(u *url.URL) string {
	return u.Redacted()
}

// redactRawURL is redactURL for an unparsed URL.
func redactRawURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	return redactURL(u)
}

// databaseName returns the database component of a URL for display.
func databaseName(u *url.URL, adapter DBAdapter) string {
	switch adapter.(type) {
	case *SQLiteAdapter, *DuckDBAdapter:
		return fileDatabasePath(u)
	default:
		return strings.TrimPrefix(u.Path, "/")
	}
}

// groupForeignKeys folds per-column catalog rows, ordered by constraint,
// into one descriptor per constraint.
func groupForeignKeys(rows []foreignKeyRow) []ForeignKeyDescriptor {
	var fks []ForeignKeyDescriptor
	var current string
	for i, row := range rows {
		if i == 0 || row.Constraint != current {
			fks = append(fks, ForeignKeyDescriptor{ReferredTable: row.ReferredTable})
			current = row.Constraint
		}
		fk := &fks[len(fks)-1]
		fk.ConstrainedColumns = append(fk.ConstrainedColumns, row.Column)
		fk.ReferredColumns = append(fk.ReferredColumns, row.ReferredColumn)
	}
	return fks
}

// foreignKeyRow is one column of a foreign key as reported by a catalog.
type foreignKeyRow struct {
	Constraint     string `db:"constraint_name"`
	Column         string `db:"column_name"`
	ReferredTable  string `db:"referred_table"`
	ReferredColumn string `db:"referred_column"`
}
