package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// readOnlyRejection is returned instead of running a write while read-only mode is on.
const readOnlyRejection = "Error: READ-ONLY MODE is enabled. Only SELECT queries are allowed. CUD operations (CREATE, UPDATE, DELETE) are blocked."

// ExecutorOptions configures a QueryExecutor.
type ExecutorOptions struct {
	// ReadOnly rejects statements classified as StatementWriteOrDDL
	// before a connection is acquired. It is a best-effort guard against
	// accidental writes, not a security boundary: use a read-only
	// database account for that.
	ReadOnly bool

	// MaxChars caps the rendered size of a result report.
	MaxChars int

	// Timeout bounds a single statement. Zero disables it.
	Timeout time.Duration
}

// ExecResult is the typed outcome of running a statement. Text renders it.
type ExecResult struct {
	Rejected     bool
	ReturnsRows  bool
	RowsAffected int64

	// Rows is the number of rows read from the result, including the
	// row that overflowed the size cap when Truncated is set.
	Rows      int
	Emitted   int
	Truncated bool
	Lines     []string
}

// Text renders the result the way execute_query reports it.
func (r *ExecResult) Text() string {
	switch {
	case r.Rejected:
		return readOnlyRejection
	case !r.ReturnsRows:
		return fmt.Sprintf("Success: %d rows affected", r.RowsAffected)
	case r.Rows == 0:
		return "No rows returned"
	}

	lines := append([]string{}, r.Lines...)
	if r.Truncated {
		lines = append(lines, fmt.Sprintf("Result: showing first %d rows (output truncated)", r.Emitted))
	} else {
		lines = append(lines, fmt.Sprintf("Result: %d rows", r.Rows))
	}
	return strings.Join(lines, "\n")
}

// QueryExecutor runs parameterized statements and renders their results
// as a vertical, size-capped text report.
type QueryExecutor struct {
	conns   Acquirer
	options ExecutorOptions
	logger  *slog.Logger
}

// NewQueryExecutor creates an executor that borrows connections from conns.
func NewQueryExecutor(conns Acquirer, options ExecutorOptions, logger *slog.Logger) *QueryExecutor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &QueryExecutor{conns: conns, options: options, logger: logger.With("component", "query")}
}

// Execute runs query and always returns text: failures are rendered as
// "Error: <message>".
func (x *QueryExecutor) Execute(ctx context.Context, query string, params map[string]any) (text string) {
	defer func() {
		if r := recover(); r != nil {
			x.logger.Error("panic recovered in query execution", "error", r)
			text = fmt.Sprintf("Error: %v", r)
		}
	}()

	result, err := x.Run(ctx, query, params)
	if err != nil {
		x.logger.Warn("query failed", "error", err)
		return "Error: " + err.Error()
	}
	return result.Text()
}

// Run applies the read-only gate, binds params by name and executes
// query on a freshly acquired connection.
func (x *QueryExecutor) Run(ctx context.Context, query string, params map[string]any) (*ExecResult, error) {
	kind := Classify(query)
	if x.options.ReadOnly && kind == StatementWriteOrDDL {
		x.logger.Info("write rejected in read-only mode")
		return &ExecResult{Rejected: true}, nil
	}

	args, err := normalizeParams(params)
	if err != nil {
		return nil, err
	}

	if x.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.options.Timeout)
		defer cancel()
	}

	conn, err := x.conns.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	engine := conn.Engine()
	statement, bound, err := bindNamed(engine.Adapter(), query, args)
	if err != nil {
		return nil, err
	}

	level, inTx := engine.Isolation()
	if !inTx {
		return x.run(ctx, conn.Conn, kind, statement, bound)
	}

	tx, err := conn.BeginTxx(ctx, &sql.TxOptions{Isolation: level})
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	result, err := x.run(ctx, tx, kind, statement, bound)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return result, nil
}

// statementRunner is satisfied by both *sqlx.Conn and *sqlx.Tx.
type statementRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// run executes writes without a RETURNING clause through Exec so the
// affected-row count is reported. Everything else goes through Query and
// its rows are rendered.
func (x *QueryExecutor) run(ctx context.Context, runner statementRunner, kind StatementKind, statement string, args []any) (*ExecResult, error) {
	if kind == StatementWriteOrDDL && !hasReturning(statement) {
		res, err := runner.ExecContext(ctx, statement, args...)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			affected = -1
		}
		return &ExecResult{RowsAffected: affected}, nil
	}

	rows, err := runner.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return formatRows(rows, x.options.MaxChars)
}

// formatRows renders rows as numbered blocks until the running size
// (each line's length plus one for its terminator) would exceed
// maxChars. The row that overflows is not emitted and no further rows
// are read.
func formatRows(rows *sql.Rows, maxChars int) (*ExecResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	if len(columns) == 0 {
		// Statement ran without producing a row set, e.g. a write behind
		// a CTE. Query does not report an affected-row count.
		return &ExecResult{RowsAffected: -1}, nil
	}

	databaseTypes := make([]string, len(columns))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, t := range types {
			databaseTypes[i] = t.DatabaseTypeName()
		}
	}

	result := &ExecResult{ReturnsRows: true}
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	size := 0
	for rows.Next() {
		result.Rows++
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scanning row %d: %w", result.Rows, err)
		}

		block := make([]string, 0, len(columns)+2)
		block = append(block, fmt.Sprintf("%d. row", result.Rows))
		for i, col := range columns {
			block = append(block, col+": "+formatColumnValue(values[i], databaseTypes[i]))
		}
		block = append(block, "")

		for _, line := range block {
			size += utf8.RuneCountInString(line) + 1
		}
		if size > maxChars {
			result.Truncated = true
			break
		}
		result.Lines = append(result.Lines, block...)
		result.Emitted++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return result, nil
}

// normalizeParams accepts only scalar values. JSON numbers decoded with
// UseNumber become int64 when integral and float64 otherwise.
func normalizeParams(params map[string]any) (map[string]any, error) {
	if len(params) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(params))
	for name, value := range params {
		switch v := value.(type) {
		case json.Number:
			if i, err := v.Int64(); err == nil {
				out[name] = i
			} else if f, err := v.Float64(); err == nil {
				out[name] = f
			} else {
				return nil, fmt.Errorf("%w: parameter %q: %v", ErrInvalidParams, name, err)
			}
		case nil, string, bool, float64, float32, int, int32, int64, uint, uint32, uint64, time.Time, []byte:
			out[name] = v
		default:
			return nil, fmt.Errorf("%w: parameter %q has unsupported type %T", ErrInvalidParams, name, value)
		}
	}
	return out, nil
}
