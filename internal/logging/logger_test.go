package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetBeforeInitializeIsNoop(t *testing.T) {
	SetLogger(nil)
	l := Get(CategoryLocate)
	if l == nil {
		t.Fatal("Get returned nil")
	}
	// Must not panic.
	l.Info("nothing %d", 1)
	LocateDebug("nothing")
}

func TestCategoryLoggersAreNamedAndCached(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	if Get(CategoryRewrite) != Get(CategoryRewrite) {
		t.Error("expected cached logger per category")
	}

	Rewrite("converted %s", "GET")
	SinkError("write %s failed", "route.ts")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].LoggerName != "rewrite" || entries[0].Message != "converted GET" {
		t.Errorf("unexpected first entry: %s %q", entries[0].LoggerName, entries[0].Message)
	}
	if entries[1].LoggerName != "sink" || entries[1].Level != zapcore.ErrorLevel {
		t.Errorf("unexpected second entry: %s %v", entries[1].LoggerName, entries[1].Level)
	}
}

func TestWithAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Get(CategoryBoot).With("run_id", "abc").Info("started")

	entries := logs.FilterField(zap.String("run_id", "abc")).All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry with run_id, got %d", len(entries))
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		"WARNING": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestInitializeRejectsUnknownEncoding(t *testing.T) {
	if _, err := Initialize(Options{Encoding: "xml"}); err == nil {
		t.Error("expected error for unknown encoding")
	}
}
