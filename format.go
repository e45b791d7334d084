package main

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// FormatValue renders a scanned column value for display. NULL becomes
// "NULL", timestamps become ISO-8601 text, everything else uses its
// default string form.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// formatColumnValue is FormatValue with a hint from the column's
// declared type, so DATE columns render without a time component.
func formatColumnValue(value any, databaseType string) string {
	if t, ok := value.(time.Time); ok && strings.EqualFold(databaseType, "DATE") {
		return t.Format(dateLayout)
	}
	return FormatValue(value)
}
