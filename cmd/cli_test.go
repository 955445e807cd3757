// SPDX-License-Identifier: MIT
package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ledvu/internal/config"
	"ledvu/pkg/build"
)

func TestParseArgsDefaults(t *testing.T) {
	cfg, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("ParseArgs error: %v", err)
	}
	if cfg.Command != CommandRun {
		t.Errorf("Command = %q, want run", cfg.Command)
	}
	if cfg.Audio.InputDevice != config.DefaultDeviceID {
		t.Errorf("InputDevice = %d, want %d", cfg.Audio.InputDevice, config.DefaultDeviceID)
	}
	if cfg.Display.Sink != config.DefaultSink {
		t.Errorf("Sink = %q, want %q", cfg.Display.Sink, config.DefaultSink)
	}
	if cfg.Recording.Enabled {
		t.Error("recording enabled by default")
	}
}

func TestParseArgsFlags(t *testing.T) {
	cfg, err := ParseArgs([]string{
		"-d", "3", "-s", "48000", "-b", "128", "-l",
		"--sink", "udp", "--udp-target", "10.0.0.9:21324",
		"-p", "--ws", ":9001", "-v",
	})
	if err != nil {
		t.Fatalf("ParseArgs error: %v", err)
	}
	if cfg.Audio.InputDevice != 3 || cfg.Audio.SampleRate != 48000 ||
		cfg.Audio.FramesPerBuffer != 128 || !cfg.Audio.LowLatency {
		t.Errorf("audio flags not applied: %+v", cfg.Audio)
	}
	if cfg.Display.Sink != config.SinkUDP || cfg.Display.UDPTarget != "10.0.0.9:21324" {
		t.Errorf("display flags not applied: %+v", cfg.Display)
	}
	if !cfg.Diagnostics.Plotter || cfg.Diagnostics.WebSocketAddr != ":9001" {
		t.Errorf("diagnostics flags not applied: %+v", cfg.Diagnostics)
	}
	if !cfg.Debug || cfg.LogLevel != "debug" {
		t.Errorf("verbose not applied: debug=%v level=%q", cfg.Debug, cfg.LogLevel)
	}
}

func TestParseArgsFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledvu.yaml")
	content := "audio:\n  input_device: 5\n  sample_rate: 96000\ndisplay:\n  sink: none\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := ParseArgs([]string{"--config", path, "-d", "1"})
	if err != nil {
		t.Fatalf("ParseArgs error: %v", err)
	}
	if cfg.Audio.InputDevice != 1 {
		t.Errorf("InputDevice = %d, want 1 (flag beats file)", cfg.Audio.InputDevice)
	}
	if cfg.Audio.SampleRate != 96000 {
		t.Errorf("SampleRate = %.0f, want 96000 from file", cfg.Audio.SampleRate)
	}
	if cfg.Display.Sink != config.SinkNone {
		t.Errorf("Sink = %q, want none from file", cfg.Display.Sink)
	}
}

func TestParseArgsRecording(t *testing.T) {
	cfg, err := ParseArgs([]string{"-r"})
	if err != nil {
		t.Fatalf("ParseArgs error: %v", err)
	}
	if !cfg.Recording.Enabled {
		t.Fatal("recording not enabled")
	}
	if !strings.HasPrefix(cfg.Recording.OutputFile, "ledvu-") || !strings.HasSuffix(cfg.Recording.OutputFile, ".wav") {
		t.Errorf("OutputFile = %q, want generated name", cfg.Recording.OutputFile)
	}

	cfg, err = ParseArgs([]string{"-r", "-o", "take.wav"})
	if err != nil {
		t.Fatalf("ParseArgs error: %v", err)
	}
	if cfg.Recording.OutputFile != "take.wav" {
		t.Errorf("OutputFile = %q, want take.wav", cfg.Recording.OutputFile)
	}
}

func TestParseArgsCommands(t *testing.T) {
	tests := []struct {
		args    []string
		command string
	}{
		{[]string{"list"}, CommandList},
		{[]string{"devices"}, CommandDevices},
		{[]string{"list", "-v"}, CommandList},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			cfg, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("ParseArgs error: %v", err)
			}
			if cfg.Command != tt.command {
				t.Errorf("Command = %q, want %q", cfg.Command, tt.command)
			}
		})
	}
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		substr string
	}{
		{"Unknown flag", []string{"--bogus"}, "unknown flag"},
		{"Bad sink", []string{"--sink", "hdmi"}, "unknown display.sink"},
		{"Frames not power of two", []string{"-b", "100"}, "power of 2"},
		{"Record file input", []string{"-r", "-i", "in.wav"}, "live input"},
		{"Missing config", []string{"--config", "missing.yaml"}, "failed to read config file"},
		{"Positional argument", []string{"extra"}, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("ParseArgs(%v) = %v, want error containing %q", tt.args, err, tt.substr)
			}
		})
	}
}

func TestParseArgsHelp(t *testing.T) {
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatal(err)
	}
	defer devNull.Close()
	stdout := os.Stdout
	os.Stdout = devNull
	defer func() { os.Stdout = stdout }()

	for _, args := range [][]string{{"--help"}, {"--version"}} {
		cfg, err := ParseArgs(args)
		if err != nil {
			t.Errorf("ParseArgs(%v) error: %v", args, err)
		}
		if cfg != nil {
			t.Errorf("ParseArgs(%v) = %+v, want nil config", args, cfg)
		}
	}
}

func TestParseArgsVersionOutput(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	cfg, err := ParseArgs([]string{"--version"})
	w.Close()
	os.Stdout = stdout
	if err != nil || cfg != nil {
		t.Fatalf("ParseArgs(--version) = %+v, %v; want nil, nil", cfg, err)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	want := build.GetBuildFlags().String() + "\n"
	if string(out) != want {
		t.Errorf("--version printed %q, want %q", out, want)
	}
}

func TestParseArgsKeepsUDPInterval(t *testing.T) {
	cfg, err := ParseArgs([]string{"--sink", "udp"})
	if err != nil {
		t.Fatalf("ParseArgs error: %v", err)
	}
	if cfg.Display.UDPInterval != config.DefaultUDPInterval {
		t.Errorf("UDPInterval = %s, want %s", cfg.Display.UDPInterval, config.DefaultUDPInterval)
	}
}
