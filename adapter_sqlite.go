package main

import (
	"context"
	"database/sql"
	"net/url"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteAdapter implements DBAdapter for SQLite databases.
type SQLiteAdapter struct{}

func (a *SQLiteAdapter) Dialect() string    { return "sqlite" }
func (a *SQLiteAdapter) DriverName() string { return "sqlite" }
func (a *SQLiteAdapter) BindType() int      { return sqlx.QUESTION }

// DSN maps "sqlite:///rel.db?x=y" to "rel.db?x=y". In-memory URLs map to
// ":memory:"; each pooled connection then sees its own empty database.
func (a *SQLiteAdapter) DSN(u *url.URL) (string, error) {
	path := fileDatabasePath(u)
	if path == "" {
		path = ":memory:"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path, nil
}

func (a *SQLiteAdapter) VersionQuery() string { return "SELECT sqlite_version()" }

func (a *SQLiteAdapter) ListTablesQuery() string {
	// SQLite has no information_schema. Use sqlite_master.
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
}

// sqliteColumn is a row of pragma_table_info.
type sqliteColumn struct {
	CID       int            `db:"cid"`
	Name      string         `db:"name"`
	Type      string         `db:"type"`
	NotNull   int            `db:"notnull"`
	Default   sql.NullString `db:"dflt_value"`
	PKOrdinal int            `db:"pk"`
}

func (a *SQLiteAdapter) tableInfo(ctx context.Context, q sqlx.QueryerContext, table string) ([]sqliteColumn, error) {
	var rows []sqliteColumn
	err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`, table)
	return rows, err
}

func (a *SQLiteAdapter) Columns(ctx context.Context, q sqlx.QueryerContext, table string) ([]ColumnDescriptor, error) {
	info, err := a.tableInfo(ctx, q, table)
	if err != nil {
		return nil, err
	}
	columns := make([]ColumnDescriptor, 0, len(info))
	for _, c := range info {
		col := ColumnDescriptor{
			Name:     c.Name,
			Type:     strings.ToUpper(c.Type),
			Nullable: c.NotNull == 0,
		}
		if c.Default.Valid {
			col.Default = c.Default.String
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func (a *SQLiteAdapter) PrimaryKey(ctx context.Context, q sqlx.QueryerContext, table string) ([]string, error) {
	info, err := a.tableInfo(ctx, q, table)
	if err != nil {
		return nil, err
	}
	// pk holds the 1-based position within the key, 0 for non-key columns.
	var keys []string
	for position := 1; ; position++ {
		found := false
		for _, c := range info {
			if c.PKOrdinal == position {
				keys = append(keys, c.Name)
				found = true
			}
		}
		if !found {
			return keys, nil
		}
	}
}

// sqliteForeignKey is a row of pragma_foreign_key_list.
type sqliteForeignKey struct {
	ID    int            `db:"id"`
	Seq   int            `db:"seq"`
	Table string         `db:"table"`
	From  string         `db:"from"`
	To    sql.NullString `db:"to"`
}

func (a *SQLiteAdapter) ForeignKeys(ctx context.Context, q sqlx.QueryerContext, table string) ([]ForeignKeyDescriptor, error) {
	var list []sqliteForeignKey
	err := sqlx.SelectContext(ctx, q, &list,
		`SELECT id, seq, "table", "from", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`, table)
	if err != nil {
		return nil, err
	}

	rows := make([]foreignKeyRow, 0, len(list))
	referredKeys := map[string][]string{}
	for _, fk := range list {
		referred := fk.To.String
		if !fk.To.Valid {
			// "REFERENCES parent" without columns targets the parent's primary key.
			keys, ok := referredKeys[fk.Table]
			if !ok {
				if keys, err = a.PrimaryKey(ctx, q, fk.Table); err != nil {
					return nil, err
				}
				referredKeys[fk.Table] = keys
			}
			if fk.Seq < len(keys) {
				referred = keys[fk.Seq]
			}
		}
		rows = append(rows, foreignKeyRow{
			Constraint:     strconv.Itoa(fk.ID),
			Column:         fk.From,
			ReferredTable:  fk.Table,
			ReferredColumn: referred,
		})
	}
	return groupForeignKeys(rows), nil
}
