package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("%q: expected %v, got %v", in, want, got)
		}
	}
}

func TestNewAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentRecurring, Format: "json", Output: &buf})
	logger.InfoContext(context.Background(), "sweep done", FieldEntriesCreated, 3)

	out := buf.String()
	if !strings.Contains(out, `"component":"recurring"`) || !strings.Contains(out, `"entries_created":3`) {
		t.Fatalf("unexpected log line: %s", out)
	}
	if logger.Component() != ComponentRecurring {
		t.Fatalf("component: got %q", logger.Component())
	}
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	root := New(Config{Level: slog.LevelInfo, Format: "text", Output: &buf})
	worker := root.With("request_id", "req_1").WithComponent(ComponentWorker).WithComponent(ComponentWorker)
	worker.Info("tick")
	root.WithComponent(ComponentRecurring).Info("sweep")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	for _, line := range lines {
		if n := strings.Count(line, "component="); n != 1 {
			t.Errorf("expected one component attribute, got %d in %q", n, line)
		}
	}
	if !strings.Contains(lines[0], "component=worker") || !strings.Contains(lines[0], "request_id=req_1") {
		t.Errorf("unexpected worker line: %s", lines[0])
	}
	if !strings.Contains(lines[1], "component=recurring") || strings.Contains(lines[1], "component=app") {
		t.Errorf("unexpected recurring line: %s", lines[1])
	}
	if worker.Component() != ComponentWorker {
		t.Errorf("component: got %q", worker.Component())
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Output: &buf}).With(FieldRequestID, "req-1")
	ctx := WithContext(context.Background(), logger)

	FromContext(ctx).Info("hello")
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("expected request id in %q", buf.String())
	}
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected a fallback logger")
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithRule("r1", "u1", "daily").
		WithOperation(OpSweep).
		WithError(errors.New("boom"))
	if len(f.ToSlice()) != 10 {
		t.Fatalf("expected 5 pairs, got %v", f.ToSlice())
	}
	if f[FieldError] != "boom" {
		t.Fatalf("error field: %v", f[FieldError])
	}
}
