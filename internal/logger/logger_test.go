package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(false, &buf)
	l.Debug("hidden")
	l.Info("shown", zap.String("language", "gu"))
	_ = l.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level:\n%s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "gu") {
		t.Errorf("info line missing fields:\n%s", out)
	}

	buf.Reset()
	l = New(true, &buf)
	l.Debug("visible")
	_ = l.Sync()
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug line missing with debug enabled:\n%s", buf.String())
	}
}

func TestNewFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l, closeFn, err := NewFile(dir, "debug.log")
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	l.Debug("stream finished", zap.Int("fragments", 3))
	closeFn()

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "stream finished") {
		t.Errorf("log file missing entry:\n%s", data)
	}
}
