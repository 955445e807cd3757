// SPDX-License-Identifier: MIT
package config

import "time"

// Pipeline constants. These are fixed at build time and are deliberately not
// part of the YAML configuration.
const (
	// Capture
	SampleShift     = 14 // Discard the unused low bits of each 32-bit sample
	SampleCeiling   = 100000
	FramesPerBuffer = 64

	// Baseline calibration
	CalibrationCeiling = 50000                 // Looser spike filter while measuring silence
	CalibrationFrames  = 100                   // Frames averaged at startup
	CalibrationDelay   = 30 * time.Millisecond // Settle time between calibration reads
	DefaultBaseline    = 15000                 // Noise floor kept when calibration gets no data

	// Gate and scaling
	GateThreshold   = 100  // Residual level forced to zero after baseline subtraction
	MaxVolumeTarget = 3000 // Full-scale display volume
	DefaultGain     = 2.0  // Initial adaptive gain

	// Smoothing chain
	FilterSize      = 5
	SlewTrigger     = 0.3  // Fraction of MaxVolumeTarget that triggers slew limiting
	SlewStep        = 0.05 // Fraction of MaxVolumeTarget allowed per tick while limiting
	SmoothingFactor = 0.8

	// Auto-gain
	CalibrationWindow = 5 * time.Second
	VolumeSamples     = 500 // Rolling history length
	PeakHistorySize   = 10
	PeakFactor        = 2.0 // Peaks must exceed PeakFactor × baseline to count
	GainBlend         = 0.2 // Weight of the newly derived gain

	// LED strip
	LEDCount       = 60
	Brightness     = 100 // 0-255
	MinVolume      = 1500
	FullScale      = 0.95 // Fraction of MaxVolumeTarget that lights the whole strip
	CurveExponent  = 0.7
	UpdateInterval = 5 * time.Millisecond

	// Diagnostics plotter bounds
	PlotMinRange = -1000
	PlotMaxRange = 5000
)

// Defaults for the I/O shell.
const (
	DefaultDeviceID        = MinDeviceID // System default input device
	DefaultSampleRate      = 44100
	DefaultLowLatency      = false
	DefaultSink            = SinkTerminal
	DefaultUDPTarget       = "127.0.0.1:21324" // WLED realtime UDP port
	DefaultUDPInterval     = 16 * time.Millisecond
	DefaultWebSocketAddr   = "" // Disabled
	DefaultRecordingFormat = "wav"
	DefaultLogLevel        = "info"

	// Hardware and processing limits
	MinDeviceID     = -1 // -1 represents system default device
	MinSampleRate   = 8000
	MaxSampleRate   = 192000
	MaxBufferFrames = 8192
)

// Display sink names accepted by Config.Display.Sink.
const (
	SinkNone     = "none"
	SinkTerminal = "terminal"
	SinkTUI      = "tui"
	SinkUDP      = "udp"
)
