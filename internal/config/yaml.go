// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"ledvu/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// Config represents the runtime configuration of the I/O shell around the
// metering pipeline, loaded from YAML and overridden by flags.
type Config struct {
	Debug       bool              `yaml:"debug"`             // Enable debug mode.
	LogLevel    string            `yaml:"log_level"`         // Logging level ("debug", "info", "warn", "error").
	Command     string            `yaml:"command,omitempty"` // One-off command to execute instead of running the meter.
	Audio       AudioConfig       `yaml:"audio"`
	Display     DisplayConfig     `yaml:"display"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Recording   RecordingConfig   `yaml:"recording"`
}

// AudioConfig holds settings related to audio input.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default).
	InputFile       string  `yaml:"input_file"`        // WAV file to replay instead of a live device.
	Realtime        bool    `yaml:"realtime"`          // Pace WAV replay at the file's sample rate.
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Samples per capture block.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from PortAudio.
}

// DisplayConfig selects where LED frames go.
type DisplayConfig struct {
	Sink        string        `yaml:"sink"`         // One of "none", "terminal", "tui", "udp".
	UDPTarget   string        `yaml:"udp_target"`   // WLED host:port for the udp sink.
	UDPInterval time.Duration `yaml:"udp_interval"` // Packet interval for the udp sink.
}

// DiagnosticsConfig controls the best-effort diagnostics stream.
type DiagnosticsConfig struct {
	Plotter       bool   `yaml:"plotter"`        // Print serial-plotter lines to stdout.
	WebSocketAddr string `yaml:"websocket_addr"` // Listen address for JSON records, empty disables.
}

// RecordingConfig holds settings for recording the raw input.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputFile string `yaml:"output_file"` // Empty means an auto-generated name.
	Format     string `yaml:"format"`      // Only "wav".
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: FramesPerBuffer,
			LowLatency:      DefaultLowLatency,
		},
		Display: DisplayConfig{
			Sink:        DefaultSink,
			UDPTarget:   DefaultUDPTarget,
			UDPInterval: DefaultUDPInterval,
		},
		Diagnostics: DiagnosticsConfig{
			WebSocketAddr: DefaultWebSocketAddr,
		},
		Recording: RecordingConfig{
			Format: DefaultRecordingFormat,
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{
			"config.yaml",
			"ledvu.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the I/O settings. Pipeline constants are not validated here.
func (c *Config) Validate() error {
	if c.Audio.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, c.Audio.InputDevice)
	}
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate must be within %d-%d Hz, got %.0f",
			MinSampleRate, MaxSampleRate, c.Audio.SampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer must be within 1-%d, got %d",
			MaxBufferFrames, c.Audio.FramesPerBuffer)
	}
	if !bitint.IsPowerOfTwo(c.Audio.FramesPerBuffer) {
		return fmt.Errorf("audio.frames_per_buffer must be a power of 2, got %d (try %d)",
			c.Audio.FramesPerBuffer, bitint.NextPowerOfTwo(c.Audio.FramesPerBuffer))
	}

	switch c.Display.Sink {
	case SinkNone, SinkTerminal, SinkTUI:
	case SinkUDP:
		if _, _, err := net.SplitHostPort(c.Display.UDPTarget); err != nil {
			return fmt.Errorf("display.udp_target '%s' is invalid: %w", c.Display.UDPTarget, err)
		}
		if c.Display.UDPInterval <= 0 {
			return fmt.Errorf("display.udp_interval must be positive when the udp sink is used")
		}
	default:
		return fmt.Errorf("unknown display.sink '%s'", c.Display.Sink)
	}

	if c.Recording.Enabled && c.Recording.Format != DefaultRecordingFormat {
		return fmt.Errorf("recording.format '%s' is not supported", c.Recording.Format)
	}
	if c.Recording.Enabled && c.Audio.InputFile != "" {
		return fmt.Errorf("recording is only available for live input")
	}

	return nil
}

// applyEnvOverrides applies ENV_* variables on top of file or default values.
func (cfg *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}

	// ENV_INPUT_DEVICE
	if val, ok := os.LookupEnv("ENV_INPUT_DEVICE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Audio.InputDevice = iVal
		}
	}

	// ENV_DISPLAY_SINK
	if val, ok := os.LookupEnv("ENV_DISPLAY_SINK"); ok {
		cfg.Display.Sink = val
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Display.UDPTarget = val
	}

	// ENV_WEBSOCKET_ADDRESS
	if val, ok := os.LookupEnv("ENV_WEBSOCKET_ADDRESS"); ok {
		cfg.Diagnostics.WebSocketAddr = val
	}
}
