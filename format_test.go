package main

import (
	"testing"
	"time"
)

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"null", nil, "NULL"},
		{"int", int64(42), "42"},
		{"float", 2.5, "2.5"},
		{"bool", true, "true"},
		{"string", "hi", "hi"},
		{"empty string is not null", "", ""},
		{"bytes", []byte("raw"), "raw"},
		{"timestamp", ts, "2024-03-09T14:05:06Z"},
		{"timestamp with fraction", ts.Add(500 * time.Millisecond), "2024-03-09T14:05:06.5Z"},
		{"timestamp with offset", ts.In(time.FixedZone("", 2*3600)), "2024-03-09T16:05:06+02:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.value); got != tt.want {
				t.Errorf("FormatValue(%#v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatValue_TimestampRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
	tests := []time.Time{
		ts,
		ts.Add(500 * time.Millisecond),
		ts.Add(123456789 * time.Nanosecond),
		ts.In(time.FixedZone("", 2*3600)),
		ts.In(time.FixedZone("", -(5*3600 + 30*60))),
	}

	for _, want := range tests {
		text := FormatValue(want)
		t.Run(text, func(t *testing.T) {
			got, err := time.Parse(time.RFC3339Nano, text)
			if err != nil {
				t.Fatalf("time.Parse(%q) error = %v", text, err)
			}
			if !got.Equal(want) {
				t.Errorf("parsed %v, want %v", got, want)
			}
		})
	}
}

func TestFormatColumnValue_Date(t *testing.T) {
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	if got := formatColumnValue(day, "DATE"); got != "2024-03-09" {
		t.Errorf("formatColumnValue(DATE) = %q, want 2024-03-09", got)
	}
	if got := formatColumnValue(day, "TIMESTAMP"); got != "2024-03-09T00:00:00Z" {
		t.Errorf("formatColumnValue(TIMESTAMP) = %q", got)
	}
	if got := formatColumnValue(nil, "DATE"); got != "NULL" {
		t.Errorf("formatColumnValue(nil) = %q, want NULL", got)
	}
}
