// SPDX-License-Identifier: MIT
package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	prev := GetLevel()
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(prev)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		level LogLevel
		ok    bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"Error", LevelError, true},
		{"fatal", LevelFatal, true},
		{"loud", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			level, ok := ParseLevel(tt.in)
			if level != tt.level || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, level, ok, tt.level, tt.ok)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t)
	SetLevel(LevelWarn)

	Debugf("hidden debug %d", 1)
	Infof("hidden info %d", 2)
	Warnf("shown warn %d", 3)
	Error("shown error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below the level were written: %q", out)
	}
	if !strings.Contains(out, "shown warn 3") || !strings.Contains(out, "shown error") {
		t.Errorf("expected warn and error messages, got %q", out)
	}
}

func TestSetLevelRoundTrip(t *testing.T) {
	prev := GetLevel()
	defer SetLevel(prev)

	for _, level := range []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal} {
		SetLevel(level)
		if got := GetLevel(); got != level {
			t.Errorf("GetLevel() = %v, want %v", got, level)
		}
	}
}

func TestLevelString(t *testing.T) {
	if LevelWarn.String() != "WARN" {
		t.Errorf("LevelWarn.String() = %q", LevelWarn.String())
	}
	if LogLevel(42).String() != "UNKNOWN" {
		t.Errorf("unknown level String() = %q", LogLevel(42).String())
	}
}
