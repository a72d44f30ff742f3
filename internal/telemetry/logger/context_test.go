package logger

import (
	"bytes"
	"context"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithLogger(context.Background(), l)

	retrieved := FromContext(ctx)
	if retrieved == nil {
		t.Fatal("FromContext returned nil")
	}
	retrieved.Info("test message")

	if buf.Len() == 0 {
		t.Error("Logger from context should produce output")
	}
}

func TestFromContext_Default(t *testing.T) {
	if l := FromContext(context.Background()); l == nil {
		t.Error("FromContext should return default logger, got nil")
	}
}

func TestWithSessionID(t *testing.T) {
	ctx := WithSessionID(context.Background(), "01JSESSION")

	if got := SessionIDFromContext(ctx); got != "01JSESSION" {
		t.Errorf("SessionIDFromContext() = %q, want %q", got, "01JSESSION")
	}
	if got := SessionIDFromContext(context.Background()); got != "" {
		t.Errorf("SessionIDFromContext() on empty context = %q, want empty", got)
	}
}

func TestL(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithLogger(context.Background(), l)
	ctx = WithSessionID(ctx, "01JSESSION")
	L(ctx).Info("hello")

	entry := decodeLine(t, buf.Bytes())
	if entry["session"] != "01JSESSION" {
		t.Errorf("session = %v, want %q", entry["session"], "01JSESSION")
	}
}
