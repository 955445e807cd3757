// SPDX-License-Identifier: MIT
/*
Package engine runs the control loop: read a frame, run it through the
meter, and on polled intervals refresh the strip and recalibrate the gain.

Everything happens on the goroutine that calls Run. The only blocking call is
FrameSource.ReadFrame; sinks and transports that do I/O hand off to their own
goroutines.
*/
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ledvu/internal/config"
	"ledvu/internal/led"
	applog "ledvu/internal/log"
	"ledvu/internal/meter"
	"ledvu/internal/sched"
	"ledvu/internal/transport"
)

// Options wires an Engine. Meter, Mapper and Source are required.
type Options struct {
	Meter      *meter.Meter
	Mapper     *led.Mapper
	Source     meter.FrameSource
	Sink       led.Sink              // nil means led.NullSink
	Transports []transport.Transport // Diagnostics receivers
	Clock      sched.Clock           // nil means sched.SystemClock

	UpdateInterval    time.Duration // 0 means config.UpdateInterval
	CalibrationWindow time.Duration // 0 means config.CalibrationWindow
	SkipCalibration   bool          // Keep the default baseline
}

// Stats counts what the loop has done.
type Stats struct {
	Frames         int // Frames processed
	Unavailable    int // Frames without valid samples
	ReadErrors     int // Failed reads
	Refreshes      int // LED refreshes
	Recalibrations int // Gain updates attempted
}

// Engine owns the pipeline state and drives it.
type Engine struct {
	meter      *meter.Meter
	mapper     *led.Mapper
	source     meter.FrameSource
	sink       led.Sink
	transports []transport.Transport
	clock      sched.Clock

	updateInterval    time.Duration
	calibrationWindow time.Duration
	skipCalibration   bool

	stats Stats
}

// New validates opts and builds an Engine.
func New(opts Options) (*Engine, error) {
	if opts.Meter == nil || opts.Mapper == nil || opts.Source == nil {
		return nil, fmt.Errorf("engine requires a meter, a mapper and a frame source")
	}
	e := &Engine{
		meter:             opts.Meter,
		mapper:            opts.Mapper,
		source:            opts.Source,
		sink:              opts.Sink,
		transports:        opts.Transports,
		clock:             opts.Clock,
		updateInterval:    opts.UpdateInterval,
		calibrationWindow: opts.CalibrationWindow,
		skipCalibration:   opts.SkipCalibration,
	}
	if e.sink == nil {
		e.sink = led.NullSink{}
	}
	if e.clock == nil {
		e.clock = sched.SystemClock{}
	}
	if e.updateInterval <= 0 {
		e.updateInterval = config.UpdateInterval
	}
	if e.calibrationWindow <= 0 {
		e.calibrationWindow = config.CalibrationWindow
	}
	return e, nil
}

// Run calibrates the noise floor and then loops until ctx is done or the
// source is exhausted. Both end the run cleanly and return nil.
func (e *Engine) Run(ctx context.Context) error {
	if !e.skipCalibration {
		if err := e.calibrate(ctx); err != nil {
			return err
		}
	}
	if ctx.Err() != nil {
		return nil
	}

	start := e.clock.Now()
	ledTick := sched.NewPeriodic(e.updateInterval, start)
	gainTick := sched.NewPeriodic(e.calibrationWindow, start)
	applog.Infof("Engine: Monitoring (refresh %s, recalibration %s)", e.updateInterval, e.calibrationWindow)

	for ctx.Err() == nil {
		frame, err := e.source.ReadFrame()
		switch {
		case errors.Is(err, io.EOF):
			applog.Infof("Engine: Input exhausted after %d frames", e.stats.Frames)
			return nil
		case err != nil:
			e.stats.ReadErrors++
			applog.Debugf("Engine: Skipping tick: %v", err)
		default:
			if _, err := e.meter.Process(frame); err != nil {
				e.stats.Unavailable++
			} else {
				e.stats.Frames++
			}
		}

		now := e.clock.Now()
		if ledTick.Due(now) {
			e.refresh(gainTick.Due(now))
		}
	}

	applog.Debugf("Engine: Stopped: %+v", e.stats)
	return nil
}

func (e *Engine) calibrate(ctx context.Context) error {
	applog.Infof("Engine: Calibrating baseline noise, keep quiet...")
	baseline, err := e.meter.Calibrate(ctx, e.source, e.clock)
	switch {
	case err == nil:
		applog.Infof("Engine: Baseline noise level %.2f", baseline)
	case errors.Is(err, meter.ErrInsufficientCalibrationData):
		applog.Warnf("Engine: No valid calibration frames, using default baseline %.2f", baseline)
	case ctx.Err() != nil:
		return nil
	default:
		return fmt.Errorf("calibration failed: %w", err)
	}
	return nil
}

// refresh updates the strip, optionally recalibrates the gain, and emits one
// diagnostics record.
func (e *Engine) refresh(recalibrate bool) {
	e.stats.Refreshes++

	frame := e.mapper.Map(e.meter.Smoothed())
	if err := e.sink.Clear(); err != nil {
		applog.Debugf("Engine: Sink clear error: %v", err)
	}
	if err := e.sink.Show(frame); err != nil {
		applog.Debugf("Engine: Sink show error: %v", err)
	}

	if recalibrate {
		e.stats.Recalibrations++
		u := e.meter.Recalibrate()
		applog.Debugf("Engine: Recalibrated (peak %.1f accepted=%v avg %.1f gain %.3f)",
			u.WindowPeak, u.Accepted, u.AveragePeak, u.Gain)
	}

	if len(e.transports) == 0 {
		return
	}
	cal := e.meter.Calibration()
	d := Diagnostics{
		MinRange:     config.PlotMinRange,
		Volume:       e.meter.Last().Volume,
		SmoothVolume: e.meter.Smoothed(),
		MaxVolume:    e.meter.PeakReference(),
		MaxRange:     config.PlotMaxRange,
		Gain:         cal.Gain,
		Baseline:     cal.BaselineNoise,
		Lit:          len(frame),
	}
	for _, t := range e.transports {
		if err := t.Send(d); err != nil {
			applog.Debugf("Engine: Transport error: %v", err)
		}
	}
}

// Stats returns the loop counters. Only call it after Run returns.
func (e *Engine) Stats() Stats { return e.stats }

// Meter returns the pipeline state.
func (e *Engine) Meter() *meter.Meter { return e.meter }
