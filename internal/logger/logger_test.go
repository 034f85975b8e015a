package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"loud":    zapcore.InfoLevel,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Errorf("ParseLevel(%q) = %v want %v", raw, got, want)
		}
	}
}

func TestWrapLogsObjectUnderKey(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := Wrap(zap.New(core))

	log.DebugObj("api request sent", "api_request", map[string]string{"method": "GET"})
	log.ErrorObj("sink failed", "error", "boom")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "api request sent" || entries[0].Level != zapcore.DebugLevel {
		t.Fatalf("unexpected first entry %+v", entries[0].Entry)
	}
	fields := entries[0].ContextMap()
	if _, ok := fields["api_request"]; !ok {
		t.Fatalf("expected api_request field, got %v", fields)
	}
	if entries[1].ContextMap()["error"] != "boom" {
		t.Fatalf("unexpected error field %v", entries[1].ContextMap())
	}
}

func TestGlobalHelpersAreSafeBeforeInit(t *testing.T) {
	prev := S
	S = nil
	t.Cleanup(func() { S = prev })

	Default().InfoObj("ignored", "k", 1)
	if err := Close(); err != nil {
		t.Fatalf("Close before Init: %v", err)
	}
	Wrap(nil).WarnObj("ignored", "k", 1)
}
