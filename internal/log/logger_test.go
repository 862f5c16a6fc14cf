// SPDX-License-Identifier: MIT
package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"Error", LevelError, true},
		{"fatal", LevelFatal, true},
		{"verbose", LevelInfo, false},
		{"", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	orig := GetLevel()
	defer SetLevel(orig)

	SetLevel(LevelWarn)
	Infof("hidden %d", 1)
	Debug("hidden too")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn level, got %q", buf.String())
	}

	Warnf("visible %d", 2)
	Error("also visible")
	out := buf.String()
	if !strings.Contains(out, "visible 2") {
		t.Errorf("missing warn message in %q", out)
	}
	if !strings.Contains(out, "also visible") {
		t.Errorf("missing error message in %q", out)
	}
}

func TestSetOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "specviz.log")
	if err := SetOutputFile(path); err != nil {
		t.Fatalf("SetOutputFile: %v", err)
	}
	defer CloseLogFile()

	orig := GetLevel()
	defer SetLevel(orig)
	SetLevel(LevelInfo)

	Infof("written to %s", "file")
	CloseLogFile()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file content = %q", string(data))
	}
}

func TestLogLevelString(t *testing.T) {
	if LevelWarn.String() != "WARN" {
		t.Errorf("LevelWarn.String() = %q", LevelWarn.String())
	}
	if LogLevel(42).String() != "UNKNOWN" {
		t.Errorf("unknown level string = %q", LogLevel(42).String())
	}
}
