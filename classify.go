package main

import "strings"

// StatementKind is the coarse class of a SQL statement used by the
// read-only gate.
type StatementKind int

const (
	StatementRead StatementKind = iota
	StatementWriteOrDDL
)

func (k StatementKind) String() string {
	if k == StatementWriteOrDDL {
		return "WRITE_OR_DDL"
	}
	return "READ"
}

// cudKeywords are the leading keywords of create/update/delete and DDL statements.
var cudKeywords = map[string]struct{}{
	"INSERT":   {},
	"UPDATE":   {},
	"DELETE":   {},
	"CREATE":   {},
	"DROP":     {},
	"ALTER":    {},
	"TRUNCATE": {},
	"REPLACE":  {},
	"MERGE":    {},
	"UPSERT":   {},
}

// Classify inspects only the first whitespace-separated token of sql.
//
// It is a syntactic heuristic: writes behind a leading comment, a CTE
// (WITH ... INSERT), a procedure call or a multi-statement batch are
// classified as StatementRead. Callers must not treat the result as a
// security boundary.
func Classify(sql string) StatementKind {
	words := strings.Fields(sql)
	if len(words) == 0 {
		return StatementRead
	}
	if _, ok := cudKeywords[strings.ToUpper(words[0])]; ok {
		return StatementWriteOrDDL
	}
	return StatementRead
}
