package main

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		sql  string
		want StatementKind
	}{
		{"SELECT * FROM users", StatementRead},
		{"select 1", StatementRead},
		{"SHOW TABLES", StatementRead},
		{"EXPLAIN SELECT 1", StatementRead},
		{"WITH x AS (SELECT 1) SELECT * FROM x", StatementRead},
		{"", StatementRead},
		{"   \n\t", StatementRead},
		{"INSERT INTO t VALUES (1)", StatementWriteOrDDL},
		{"insert into t values (1)", StatementWriteOrDDL},
		{"\n  UpDaTe t SET a = 1", StatementWriteOrDDL},
		{"DELETE FROM t", StatementWriteOrDDL},
		{"CREATE INDEX i ON t (a)", StatementWriteOrDDL},
		{"DROP TABLE t", StatementWriteOrDDL},
		{"ALTER TABLE t ADD b INT", StatementWriteOrDDL},
		{"TRUNCATE t", StatementWriteOrDDL},
		{"REPLACE INTO t VALUES (1)", StatementWriteOrDDL},
		{"MERGE INTO t USING s ON 1=1", StatementWriteOrDDL},
		{"UPSERT INTO t VALUES (1)", StatementWriteOrDDL},

		// Only the first token counts.
		{"SELECT 1; DROP TABLE t", StatementRead},
		{"-- note\nDELETE FROM t", StatementRead},
		{"WITH d AS (DELETE FROM t RETURNING *) SELECT * FROM d", StatementRead},
		{"GRANT ALL ON t TO u", StatementRead},
		{"INSERT(", StatementRead},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			if got := Classify(tt.sql); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.sql, got, tt.want)
			}
		})
	}
}

func TestStatementKindString(t *testing.T) {
	if StatementRead.String() != "READ" || StatementWriteOrDDL.String() != "WRITE_OR_DDL" {
		t.Errorf("String() = %q, %q", StatementRead, StatementWriteOrDDL)
	}
}
