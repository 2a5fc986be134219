package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mapdirect/internal/platform/logging"
)

func TestNewFiltersByLevel(t *testing.T) {
	t.Parallel()
	buf := &bytes.Buffer{}
	logger := logging.New("test", "warn", buf)
	logger.Info("hidden")
	logger.Warn("shown", "session_id", 3)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "session_id=3") {
		t.Fatalf("warn line missing: %s", out)
	}
}

func TestOpenFileAppends(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, closer, err := logging.OpenFile("test", "bogus", path)
	if err != nil {
		t.Fatalf("open file logger: %v", err)
	}
	logger.Info("written")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "written") {
		t.Fatalf("expected log line in file, got %q", string(b))
	}
}
