package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// bindNamed rewrites :name parameters into the driver's placeholder
// style and returns the arguments in placeholder order. A colon starts a
// parameter only when it is not preceded by a word character, a colon or
// a backslash and the name is not followed by another colon, so casts
// such as "x::int" and literals such as '12:30' are left alone. String
// literals, quoted identifiers and comments are copied untouched, as is
// any "?" the statement already contains.
//
// Without params the statement is passed through untouched.
func bindNamed(adapter DBAdapter, query string, params map[string]any) (string, []any, error) {
	if len(params) == 0 {
		return query, nil, nil
	}

	bindType := adapter.BindType()
	var b strings.Builder
	b.Grow(len(query))
	var args []any

	for i := 0; i < len(query); {
		if j := skipNonCode(query, i); j > i {
			b.WriteString(query[i:j])
			i = j
			continue
		}
		if query[i] != ':' || !startsParameter(query, i) {
			b.WriteByte(query[i])
			i++
			continue
		}

		j := i + 1
		for j < len(query) && isWordByte(query[j]) {
			j++
		}
		if j == i+1 || (j < len(query) && query[j] == ':') {
			b.WriteByte(query[i])
			i++
			continue
		}

		name := query[i+1 : j]
		value, ok := params[name]
		if !ok {
			return "", nil, fmt.Errorf("%w: missing value for parameter %q", ErrInvalidParams, name)
		}
		args = append(args, value)
		b.WriteString(placeholder(bindType, len(args)))
		i = j
	}
	return b.String(), args, nil
}

func startsParameter(query string, i int) bool {
	if i == 0 {
		return true
	}
	prev := query[i-1]
	return prev != ':' && prev != '\\' && !isWordByte(prev)
}

// placeholder renders the n-th (1-based) positional placeholder in the
// style sqlx uses for bindType.
func placeholder(bindType, n int) string {
	switch bindType {
	case sqlx.DOLLAR:
		return "$" + strconv.Itoa(n)
	case sqlx.NAMED:
		return ":arg" + strconv.Itoa(n)
	case sqlx.AT:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// hasReturning reports whether the statement carries a RETURNING clause
// outside literals and comments.
func hasReturning(query string) bool {
	for i := 0; i < len(query); {
		if j := skipNonCode(query, i); j > i {
			i = j
			continue
		}
		if !isWordByte(query[i]) {
			i++
			continue
		}
		j := i
		for j < len(query) && isWordByte(query[j]) {
			j++
		}
		if strings.EqualFold(query[i:j], "RETURNING") {
			return true
		}
		i = j
	}
	return false
}

// skipNonCode returns the index just past the string literal, quoted
// identifier or comment that starts at i, or i when none starts there.
// An unterminated one runs to the end of the statement.
func skipNonCode(query string, i int) int {
	switch c := query[i]; {
	case c == '\'' || c == '"' || c == '`':
		for j := i + 1; j < len(query); j++ {
			if query[j] != c {
				continue
			}
			// A doubled quote is an escaped quote.
			if j+1 < len(query) && query[j+1] == c {
				j++
				continue
			}
			return j + 1
		}
		return len(query)
	case strings.HasPrefix(query[i:], "--"):
		if n := strings.IndexByte(query[i:], '\n'); n >= 0 {
			return i + n + 1
		}
		return len(query)
	case strings.HasPrefix(query[i:], "/*"):
		if n := strings.Index(query[i+2:], "*/"); n >= 0 {
			return i + 2 + n + 2
		}
		return len(query)
	}
	return i
}

// isWordByte matches letters, digits, underscore and any byte of a
// multi-byte UTF-8 sequence.
func isWordByte(c byte) bool {
	return c == '_' || c >= 0x80 ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
