package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: "debug", Format: "json", Output: &buf, ServiceName: "artmatch-test"})

	ctx := l.WithContext(context.Background())
	ctx = SetRunID(ctx, "run-1")
	ctx = SetStrategy(ctx, "direct subject match")

	With(Fields{FieldCount: 3}).WithDuration(12).Info(ctx, "ranked %d candidates", 3)

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}
	if line[FieldRunID] != "run-1" {
		t.Errorf("run_id = %v, want run-1", line[FieldRunID])
	}
	if line[FieldStrategy] != "direct subject match" {
		t.Errorf("strategy = %v", line[FieldStrategy])
	}
	if line[FieldCount] != float64(3) || line[FieldDurationMs] != float64(12) {
		t.Errorf("metric fields missing: %v", line)
	}
	if line["message"] != "ranked 3 candidates" {
		t.Errorf("message = %v", line["message"])
	}
	if line["service"] != "artmatch-test" {
		t.Errorf("service = %v", line["service"])
	}
	if GetRunID(ctx) != "run-1" {
		t.Errorf("GetRunID = %q", GetRunID(ctx))
	}
}

func TestTextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: "warn", Format: "text", Output: &buf, ServiceName: "artmatch"})
	ctx := l.WithContext(context.Background())

	CtxInfo(ctx, "dropped")
	CtxWarn(ctx, "kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info line written at warn level: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn line missing: %s", out)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != GetDefault() {
		t.Error("expected default logger")
	}
}
