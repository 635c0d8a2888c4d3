package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		out = append(out, rec)
	}
	return out
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn, "rangebet", nil)
	ctx := context.Background()

	log.Debug(ctx, "debug message")
	log.Info(ctx, "info message")
	log.Warn(ctx, "warn message")
	log.Error(ctx, "error message")

	recs := decodeLines(t, &buf)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0]["message"] != "warn message" || recs[0]["level"] != "warn" {
		t.Errorf("first record = %v, want warn message", recs[0])
	}
	if recs[1]["service"] != "rangebet" {
		t.Errorf("service = %v, want rangebet", recs[1]["service"])
	}
}

func TestLogger_FieldsAndTraceID(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelDebug, "rangebet", func(ctx context.Context) string { return "trace-1" })

	log.Info(context.Background(), "quote priced",
		"market", "m1",
		"cost", uint64(42),
		"error", errors.New("nope"),
		"dangling",
	)

	recs := decodeLines(t, &buf)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec["market"] != "m1" {
		t.Errorf("market = %v, want m1", rec["market"])
	}
	if rec["cost"] != float64(42) {
		t.Errorf("cost = %v, want 42", rec["cost"])
	}
	if rec["trace_id"] != "trace-1" {
		t.Errorf("trace_id = %v, want trace-1", rec["trace_id"])
	}
	if rec["dangling"] != "!MISSING" {
		t.Errorf("dangling = %v, want !MISSING", rec["dangling"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"WARN", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
