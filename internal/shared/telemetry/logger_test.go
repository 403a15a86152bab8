package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestInfoWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "info", "json")
	t.Cleanup(func() { Init("info", "json") })

	Info("index.write", map[string]any{
		"written": 490,
		"skipped": 10,
		"error":   errors.New("bad record"),
	})

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if payload["msg"] != "index.write" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["level"] != "info" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if payload["written"] != float64(490) {
		t.Fatalf("unexpected written: %v", payload["written"])
	}
	if payload["error"] != "bad record" {
		t.Fatalf("expected error string, got %v", payload["error"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("missing ts field")
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "warn", "json")
	t.Cleanup(func() { Init("info", "json") })

	Debug("hidden", nil)
	Info("hidden", nil)
	Warn("shown", nil)

	out := strings.TrimSpace(buf.String())
	if strings.Count(out, "\n") != 0 || !strings.Contains(out, `"shown"`) {
		t.Fatalf("expected only the warn line, got %q", out)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	detached := Detached(cctx)
	if detached.Err() != nil {
		t.Fatalf("expected detached context to ignore parent cancellation")
	}
	if RequestIDFromContext(detached) != "req-1" {
		t.Fatalf("expected detached context to keep the request id")
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Fatalf("expected empty id on bare context")
	}
}
