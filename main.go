// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"ledvu/cmd"
	"ledvu/internal/audio"
	"ledvu/internal/config"
	"ledvu/internal/engine"
	"ledvu/internal/led"
	applog "ledvu/internal/log"
	"ledvu/internal/meter"
	"ledvu/internal/sched"
	"ledvu/internal/transport"
	"ledvu/internal/transport/udp"
	"ledvu/internal/tui"
	"ledvu/pkg/build"
)

// main is the entry point for the level meter.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and the config file
//   - Initialize PortAudio when live input is needed
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Open the frame source, sink and diagnostics transports
//   - Calibrate the noise floor
//   - Run the control loop until interrupted or the input ends
//
// 3. Shutdown Phase (Cold Path):
//   - Stop publishers and transports
//   - Finalize the recording if active
//   - Clean up PortAudio
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Development builds have no ldflags; keep the fallback build info.
	buildErr := build.Initialize()

	// Limit OS threads:
	// - One thread for the control loop (blocking reads)
	// - One thread for sinks, transports and the UI
	runtime.GOMAXPROCS(2)

	cfg, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if cfg == nil {
		return
	}
	configureLogging(cfg)
	if buildErr != nil {
		applog.Debugf("Build: %v, using development build info", buildErr)
	}

	if err := run(cfg); err != nil {
		applog.Fatalf("%v", err)
	}
}

func configureLogging(cfg *config.Config) {
	level, ok := applog.ParseLevel(cfg.LogLevel)
	if !ok {
		applog.Warnf("Unknown log level '%s', using %s", cfg.LogLevel, level)
	}
	if cfg.Debug {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)
}

func run(cfg *config.Config) error {
	live := cfg.Audio.InputFile == ""
	if live || cfg.Command != cmd.CommandRun {
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer func() {
			if err := audio.Terminate(); err != nil {
				applog.Errorf("Error terminating PortAudio: %v", err)
			}
		}()
	}

	// Handle one-off commands
	switch cfg.Command {
	case cmd.CommandList:
		return audio.ListDevices(os.Stdout)
	case cmd.CommandDevices:
		sel, err := tui.PickDevice()
		if err != nil {
			return err
		}
		if sel.Cancelled {
			return nil
		}
		cfg.Audio.InputDevice = sel.DeviceID
		cfg.Audio.SampleRate = sel.SampleRate
		cfg.Audio.InputFile = ""
		applog.Infof("Selected '%s' at %.0f Hz", sel.DeviceName, sel.SampleRate)
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		// ==================== SHUTDOWN PHASE (Cold Path) ====================
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				applog.Errorf("Error during shutdown: %v", err)
			}
		}
	}()

	source, err := openSource(cfg, &closers)
	if err != nil {
		return err
	}

	m, err := meter.New(meter.DefaultParams())
	if err != nil {
		return err
	}

	var view *tui.LiveView
	sink, err := openSink(cfg, &closers, &view)
	if err != nil {
		return err
	}

	transports, err := openTransports(cfg, &closers)
	if err != nil {
		return err
	}
	if view != nil {
		transports = append(transports, view)
	}

	eng, err := engine.New(engine.Options{
		Meter:      m,
		Mapper:     led.DefaultMapper(),
		Source:     source,
		Sink:       sink,
		Transports: transports,
	})
	if err != nil {
		return err
	}

	if view == nil {
		err = eng.Run(ctx)
		logStats(eng)
		return err
	}

	// The live view owns the terminal; logs would corrupt it.
	if !cfg.Debug {
		applog.SetOutput(io.Discard)
	}
	engineErr := make(chan error, 1)
	go func() {
		engineErr <- eng.Run(ctx)
	}()
	viewErr := view.Run(ctx, stop)
	err = errors.Join(<-engineErr, viewErr)
	applog.SetOutput(os.Stderr)
	logStats(eng)
	return err
}

// openSource returns a file replay or a live stream, optionally recorded.
func openSource(cfg *config.Config, closers *[]io.Closer) (meter.FrameSource, error) {
	if cfg.Audio.InputFile != "" {
		var clock sched.Clock
		if cfg.Audio.Realtime {
			clock = sched.SystemClock{}
		}
		fs, err := audio.OpenFileSource(cfg.Audio.InputFile, cfg.Audio.FramesPerBuffer, clock)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, fs)
		applog.Infof("Replaying '%s' at %d Hz", cfg.Audio.InputFile, fs.SampleRate())
		return fs, nil
	}

	stream, err := audio.OpenStreamSource(audio.StreamOptions{
		DeviceID:        cfg.Audio.InputDevice,
		SampleRate:      cfg.Audio.SampleRate,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
		LowLatency:      cfg.Audio.LowLatency,
	})
	if err != nil {
		return nil, err
	}
	*closers = append(*closers, stream)

	if !cfg.Recording.Enabled {
		return stream, nil
	}
	rec, err := audio.NewRecorder(cfg.Recording.OutputFile, int(cfg.Audio.SampleRate), cfg.Audio.FramesPerBuffer)
	if err != nil {
		return nil, err
	}
	// Closed before the stream so the header is finalized.
	*closers = append(*closers, closerFunc(func() error {
		if err := rec.Close(); err != nil {
			return err
		}
		applog.Infof("Recording saved to: %s (%d frames)", cfg.Recording.OutputFile, rec.Frames())
		return nil
	}))
	return audio.NewTeeSource(stream, rec), nil
}

// openSink builds the LED sink named by the config. The tui sink also
// returns the view so it can receive diagnostics.
func openSink(cfg *config.Config, closers *[]io.Closer, view **tui.LiveView) (led.Sink, error) {
	switch cfg.Display.Sink {
	case config.SinkNone:
		return led.NullSink{}, nil
	case config.SinkTerminal:
		// Plotter lines own stdout when enabled.
		var out io.Writer = os.Stdout
		if cfg.Diagnostics.Plotter {
			out = os.Stderr
		}
		return led.NewTerminalSink(out, config.LEDCount, config.Brightness), nil
	case config.SinkTUI:
		v := tui.NewLiveView(config.LEDCount, config.Brightness)
		*view = v
		return v.Sink(), nil
	case config.SinkUDP:
		sender, err := udp.NewUDPSender(cfg.Display.UDPTarget)
		if err != nil {
			return nil, err
		}
		slot := &led.Slot{}
		pub, err := udp.NewPublisher(cfg.Display.UDPInterval, sender, slot, config.LEDCount, config.Brightness)
		if err != nil {
			sender.Close()
			return nil, err
		}
		pub.Start()
		*closers = append(*closers, sender, pub)
		applog.Infof("Publishing %d LEDs to %s every %s", config.LEDCount, cfg.Display.UDPTarget, cfg.Display.UDPInterval)
		return slot, nil
	default:
		return nil, fmt.Errorf("unknown display sink '%s'", cfg.Display.Sink)
	}
}

func openTransports(cfg *config.Config, closers *[]io.Closer) ([]transport.Transport, error) {
	var transports []transport.Transport
	if cfg.Diagnostics.Plotter {
		pt := transport.NewPlotterTransport(os.Stdout, 64)
		transports = append(transports, pt)
		*closers = append(*closers, pt)
	}
	if cfg.Diagnostics.WebSocketAddr != "" {
		ws, err := transport.NewWebSocketTransport(cfg.Diagnostics.WebSocketAddr)
		if err != nil {
			return nil, err
		}
		transports = append(transports, ws)
		*closers = append(*closers, ws)
		applog.Infof("Serving diagnostics on ws://%s/ws", ws.Addr())
	}
	return transports, nil
}

func logStats(eng *engine.Engine) {
	s := eng.Stats()
	cal := eng.Meter().Calibration()
	applog.Infof("Processed %d frames (%d unavailable, %d read errors), gain %.3f, baseline %.1f",
		s.Frames, s.Unavailable, s.ReadErrors, cal.Gain, cal.BaselineNoise)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
