package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWithoutFileIsNop(t *testing.T) {
	logger, flush, err := New(Config{Level: "debug"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer flush()
	if logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatal("expected a no-op logger")
	}
}

func TestNewWritesNamedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "runreport.log")
	logger, flush, err := New(Config{Level: "info", File: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Named("spy").Info("active anchor changed", zap.String("id", "udp-stream"))
	logger.Debug("filtered out")
	flush()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	for _, want := range []string{`"logger":"spy"`, `"id":"udp-stream"`, `"level":"info"`} {
		if !strings.Contains(text, want) {
			t.Fatalf("log missing %s:\n%s", want, text)
		}
	}
	if strings.Contains(text, "filtered out") {
		t.Fatalf("debug entry should be filtered at info level")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"DEBUG":   zapcore.DebugLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}
