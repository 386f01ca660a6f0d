package debug

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogDisabled(t *testing.T) {
	Disable()
	Log("test", "dropped %d", 1)
	if Enabled() {
		t.Fatal("enabled after Disable")
	}
}

func TestLogWriter(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	Log("engine", "tick %d", 7)
	line := buf.String()
	if !strings.Contains(line, "engine") || !strings.Contains(line, "tick 7") {
		t.Errorf("unexpected line %q", line)
	}
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	for i := 0; i < 10; i++ {
		LogEvery(4, "frame", "render")
	}
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("%d lines, expected 2", n)
	}
}

func TestEnableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "debug.log")
	if err := EnableFile(path); err != nil {
		t.Fatal(err)
	}
	Log("state", "saved")
	Disable()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "saved") {
		t.Errorf("log file missing message: %q", data)
	}
}
