package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
)

// IsolationAutocommit runs every statement outside an explicit transaction.
const IsolationAutocommit = "AUTOCOMMIT"

// isolationLevels maps the accepted isolation_level option values.
var isolationLevels = map[string]sql.IsolationLevel{
	IsolationAutocommit: sql.LevelDefault,
	"READ UNCOMMITTED":  sql.LevelReadUncommitted,
	"READ COMMITTED":    sql.LevelReadCommitted,
	"REPEATABLE READ":   sql.LevelRepeatableRead,
	"SERIALIZABLE":      sql.LevelSerializable,
}

// Engine is a connection pool bound to one database URL and option set.
//
// Thread Safety:
//   - Engine is safe for concurrent use. Connections it hands out are not.
type Engine struct {
	db       *sqlx.DB
	adapter  DBAdapter
	url      *url.URL
	options  EngineOptions
	disposed atomic.Bool
}

// NewEngine parses rawURL, opens a pool with the matching driver and
// applies options. It does not connect; the first Connect does.
//
// Every failure is a *ConfigurationError.
func NewEngine(rawURL string, options EngineOptions) (*Engine, error) {
	if err := options.Validate(); err != nil {
		return nil, &ConfigurationError{Field: "engine options", Err: err}
	}
	u, adapter, dsn, err := parseDatabaseURL(rawURL)
	if err != nil {
		return nil, &ConfigurationError{Field: "database url", Err: err}
	}
	db, err := sqlx.Open(adapter.DriverName(), dsn)
	if err != nil {
		return nil, &ConfigurationError{Field: "database url", Err: fmt.Errorf("opening %s database: %w", adapter.Dialect(), err)}
	}
	return newEngine(db, adapter, u, options), nil
}

// newEngine wraps an already opened pool and applies the pool options.
func newEngine(db *sqlx.DB, adapter DBAdapter, u *url.URL, options EngineOptions) *Engine {
	maxOpen := options.PoolSize + options.MaxOverflow
	if options.PoolSize == 0 || options.MaxOverflow < 0 {
		maxOpen = 0
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(options.PoolSize)
	if options.PoolRecycle > 0 {
		db.SetConnMaxLifetime(time.Duration(options.PoolRecycle) * time.Second)
	}

	return &Engine{
		db:      db,
		adapter: adapter,
		url:     u,
		options: options,
	}
}

// Adapter returns the dialect adapter of the engine.
func (e *Engine) Adapter() DBAdapter { return e.adapter }

// Options returns the pool options the engine was built with.
func (e *Engine) Options() EngineOptions { return e.options }

// Isolation reports the transaction isolation level statements should
// run under. ok is false in autocommit mode.
func (e *Engine) Isolation() (level sql.IsolationLevel, ok bool) {
	name := strings.ToUpper(e.options.IsolationLevel)
	if name == IsolationAutocommit {
		return sql.LevelDefault, false
	}
	return isolationLevels[name], true
}

// Connect borrows a connection from the pool, waiting at most
// PoolTimeout for one to become free. With PoolPrePing the connection is
// pinged before it is returned.
func (e *Engine) Connect(ctx context.Context) (*sqlx.Conn, error) {
	if e.disposed.Load() {
		return nil, fmt.Errorf("engine for %s is disposed", e.url.Redacted())
	}

	waitCtx := ctx
	if e.options.PoolTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, time.Duration(e.options.PoolTimeout)*time.Second)
		defer cancel()
	}

	conn, err := e.db.Connx(waitCtx)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", e.adapter.Dialect(), err)
	}
	if e.options.PoolPrePing {
		if err := conn.PingContext(waitCtx); err != nil {
			conn.Close() //nolint:errcheck // the ping error is the one worth reporting
			return nil, fmt.Errorf("pinging %s: %w", e.adapter.Dialect(), err)
		}
	}
	return conn, nil
}

// Dispose closes the pool. Later Connect calls fail.
func (e *Engine) Dispose() error {
	if !e.disposed.CompareAndSwap(false, true) {
		return nil
	}
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("closing %s pool: %w", e.adapter.Dialect(), err)
	}
	return nil
}

// Disposed reports whether Dispose has been called.
func (e *Engine) Disposed() bool { return e.disposed.Load() }

// Stats returns connection pool statistics.
func (e *Engine) Stats() sql.DBStats {
	return e.db.Stats()
}

// describe renders the one-line database summary shown in tool
// descriptions, e.g. "Connected to postgresql version 16.2 database app
// on db.internal as user reader."
func (e *Engine) describe(version string) string {
	parts := []string{"Connected to " + e.adapter.Dialect()}
	if version != "" {
		parts = append(parts, "version "+version)
	}
	if name := databaseName(e.url, e.adapter); name != "" {
		parts = append(parts, "database "+name)
	}
	if host := e.url.Hostname(); host != "" {
		parts = append(parts, "on "+host)
	}
	if user := e.url.User.Username(); user != "" {
		parts = append(parts, "as user "+user)
	}
	return strings.Join(parts, " ") + "."
}
