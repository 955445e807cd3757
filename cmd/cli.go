// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"time"

	"ledvu/internal/audio"
	"ledvu/internal/config"
	"ledvu/pkg/build"

	"github.com/spf13/cobra"
)

// Commands set in Config.Command.
const (
	CommandRun     = ""
	CommandList    = "list"
	CommandDevices = "devices"
)

// flagValues holds raw flag values; only flags the user set are applied on
// top of the loaded configuration.
type flagValues struct {
	configPath      string
	device          int
	input           string
	realtime        bool
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool
	record          bool
	output          string
	sink            string
	udpTarget       string
	plot            bool
	ws              string
	verbose         bool
	logLevel        string
}

// ParseArgs builds the runtime configuration from the config file and the
// command line. It returns a nil Config when nothing should run, e.g. after
// --help or --version.
func ParseArgs(args []string) (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	var (
		flags   flagValues
		options *config.Config
	)

	// load resolves the file configuration, then applies changed flags.
	load := func(cmd *cobra.Command, command string) error {
		cfg, err := config.LoadConfig(flags.configPath)
		if err != nil {
			return err
		}
		flags.apply(cmd, cfg)
		cfg.Command = command
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if cfg.Recording.Enabled && cfg.Recording.OutputFile == "" {
			cfg.Recording.OutputFile = audio.DefaultRecordingName(time.Now())
		}
		options = cfg
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         build.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, CommandRun)
		},
	}
	rootCmd.SetVersionTemplate(buildInfo.String() + "\n")

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, CommandList)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "devices",
		Short: "Pick an input device interactively, then run the meter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, CommandDevices)
		},
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "C", "",
		"Path to a YAML config file (default: ./config.yaml or ./ledvu.yaml if present)")

	// Audio Device Configuration
	pf.IntVarP(&flags.device, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	pf.StringVarP(&flags.input, "input", "i", "",
		"Replay a WAV file instead of capturing from a device")
	pf.BoolVar(&flags.realtime, "realtime", false,
		"Pace WAV replay at the file's sample rate")
	pf.Float64VarP(&flags.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&flags.framesPerBuffer, "frames-per-buffer", "b", config.FramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	pf.BoolVarP(&flags.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")

	// Recording Configuration
	pf.BoolVarP(&flags.record, "record", "r", false,
		"Record the raw input to a WAV file")
	pf.StringVarP(&flags.output, "output", "o", "",
		"Recording file name. Default is ledvu-YYYYMMDD-HHMMSS.wav")

	// Display and Diagnostics
	pf.StringVar(&flags.sink, "sink", config.DefaultSink,
		"LED output: none, terminal, tui or udp")
	pf.StringVar(&flags.udpTarget, "udp-target", config.DefaultUDPTarget,
		"WLED controller address for the udp sink")
	pf.BoolVarP(&flags.plot, "plot", "p", false,
		"Print serial-plotter lines to stdout")
	pf.StringVar(&flags.ws, "ws", config.DefaultWebSocketAddr,
		"Serve JSON diagnostics over WebSocket on this address, e.g. :8080")

	// Debug Configuration
	pf.BoolVarP(&flags.verbose, "verbose", "v", false,
		"Show verbose output")
	pf.StringVar(&flags.logLevel, "log-level", config.DefaultLogLevel,
		"Logging level: debug, info, warn or error")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return options, nil
}

func (f *flagValues) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("device") {
		cfg.Audio.InputDevice = f.device
	}
	if changed("input") {
		cfg.Audio.InputFile = f.input
	}
	if changed("realtime") {
		cfg.Audio.Realtime = f.realtime
	}
	if changed("sample-rate") {
		cfg.Audio.SampleRate = f.sampleRate
	}
	if changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = f.framesPerBuffer
	}
	if changed("low-latency") {
		cfg.Audio.LowLatency = f.lowLatency
	}
	if changed("record") {
		cfg.Recording.Enabled = f.record
	}
	if changed("output") {
		cfg.Recording.OutputFile = f.output
	}
	if changed("sink") {
		cfg.Display.Sink = f.sink
	}
	if changed("udp-target") {
		cfg.Display.UDPTarget = f.udpTarget
	}
	if changed("plot") {
		cfg.Diagnostics.Plotter = f.plot
	}
	if changed("ws") {
		cfg.Diagnostics.WebSocketAddr = f.ws
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("verbose") && f.verbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
}
