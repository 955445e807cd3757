// SPDX-License-Identifier: MIT
package engine

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"ledvu/internal/led"
	"ledvu/internal/meter"
	"ledvu/internal/sched"
	"ledvu/internal/transport"
	"ledvu/pkg/utils"
)

var epoch = time.Date(2025, 4, 13, 12, 0, 0, 0, time.UTC)

// clockedSource advances the clock by step after every successful read, as
// a real device blocking for one buffer period would.
type clockedSource struct {
	src   meter.FrameSource
	clock *sched.ManualClock
	step  time.Duration
	after func(reads int)
	reads int
}

func (c *clockedSource) ReadFrame() ([]int32, error) {
	frame, err := c.src.ReadFrame()
	if !errors.Is(err, io.EOF) {
		c.clock.Advance(c.step)
	}
	c.reads++
	if c.after != nil {
		c.after(c.reads)
	}
	return frame, err
}

type recordingSink struct {
	clears, shows    int
	showWithoutClear bool
	cleared          bool
	last             led.Frame
}

func (s *recordingSink) Clear() error {
	s.clears++
	s.cleared = true
	return nil
}

func (s *recordingSink) Show(f led.Frame) error {
	if !s.cleared {
		s.showWithoutClear = true
	}
	s.cleared = false
	s.shows++
	s.last = append(s.last[:0], f...)
	return nil
}

func frame(level int32) []int32 { return utils.ConstantFrame(level, 64, 14) }

type fixture struct {
	engine *Engine
	sink   *recordingSink
	mt     *utils.MockTransport
	clock  *sched.ManualClock
}

func newFixture(t *testing.T, src meter.FrameSource, mutate func(o *Options)) *fixture {
	t.Helper()
	m, err := meter.New(meter.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		sink:  &recordingSink{},
		mt:    &utils.MockTransport{},
		clock: sched.NewManualClock(epoch),
	}
	opts := Options{
		Meter:          m,
		Mapper:         led.DefaultMapper(),
		Source:         &clockedSource{src: src, clock: f.clock, step: time.Millisecond},
		Sink:           f.sink,
		Transports:     []transport.Transport{f.mt},
		Clock:          f.clock,
		UpdateInterval: 5 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&opts)
	}
	f.engine, err = New(opts)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestNewRequiresParts(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected error for empty options")
	}
}

func TestRunRefreshesOnInterval(t *testing.T) {
	src := meter.NewScript(meter.Repeat(frame(50000), 1000)...)
	f := newFixture(t, src, func(o *Options) {
		o.SkipCalibration = true
		o.CalibrationWindow = 100 * time.Millisecond
	})

	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	stats := f.engine.Stats()
	want := Stats{Frames: 1000, Refreshes: 200, Recalibrations: 10}
	if stats != want {
		t.Errorf("Stats() = %+v, want %+v", stats, want)
	}
	if f.sink.clears != 200 || f.sink.shows != 200 || f.sink.showWithoutClear {
		t.Errorf("sink saw %d clears, %d shows (show without clear: %v)",
			f.sink.clears, f.sink.shows, f.sink.showWithoutClear)
	}
	if len(f.sink.last) != 60 {
		t.Errorf("last frame lit %d LEDs, want 60", len(f.sink.last))
	}

	records := f.mt.Records()
	if len(records) != 200 {
		t.Fatalf("transport got %d records, want 200", len(records))
	}
	d, ok := records[len(records)-1].(Diagnostics)
	if !ok {
		t.Fatalf("record type %T", records[len(records)-1])
	}
	if d.MinRange != -1000 || d.MaxRange != 5000 || d.Lit != 60 {
		t.Errorf("unexpected record %+v", d)
	}
	if d.Gain >= 2 {
		t.Errorf("gain %f should have dropped for a loud input", d.Gain)
	}
}

func TestRunSilenceStaysDark(t *testing.T) {
	src := meter.NewScript(meter.Repeat(frame(0), 500)...)
	f := newFixture(t, src, func(o *Options) { o.SkipCalibration = true })

	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(f.sink.last) != 0 || f.engine.Meter().Smoothed() != 0 {
		t.Errorf("silence lit %d LEDs", len(f.sink.last))
	}
}

func TestRunCalibratesFirst(t *testing.T) {
	steps := append(meter.Repeat(frame(1000), 100), meter.Repeat(frame(1000), 10)...)
	f := newFixture(t, meter.NewScript(steps...), nil)

	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.engine.Meter().Calibration().BaselineNoise; got != 1000 {
		t.Errorf("baseline = %f, want 1000", got)
	}
	if f.engine.Stats().Frames != 10 {
		t.Errorf("Frames = %d, want 10 after calibration", f.engine.Stats().Frames)
	}
}

func TestRunInsufficientCalibration(t *testing.T) {
	steps := meter.Repeat(utils.SpikeFrame(64), 100)
	f := newFixture(t, meter.NewScript(steps...), nil)

	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got := f.engine.Meter().Calibration().BaselineNoise; got != 15000 {
		t.Errorf("baseline = %f, want default 15000", got)
	}
}

func TestRunSkipsBadTicks(t *testing.T) {
	src := meter.NewScript(
		meter.ScriptStep{Frame: frame(20000)},
		meter.ScriptStep{Err: errors.New("overflow")},
		meter.ScriptStep{Frame: utils.SpikeFrame(64)},
		meter.ScriptStep{Frame: frame(20000)},
	)
	f := newFixture(t, src, func(o *Options) { o.SkipCalibration = true })

	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := Stats{Frames: 2, Unavailable: 1, ReadErrors: 1}
	if got := f.engine.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := meter.NewScript(meter.ScriptStep{Frame: frame(0)})
	src.Loop = true
	f := newFixture(t, src, func(o *Options) { o.SkipCalibration = true })
	f.engine.source.(*clockedSource).after = func(reads int) {
		if reads == 50 {
			cancel()
		}
	}

	if err := f.engine.Run(ctx); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got := f.engine.Stats().Frames; got != 50 {
		t.Errorf("Frames = %d, want 50", got)
	}
}

func TestRunCancelDuringCalibration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newFixture(t, meter.NewScript(meter.Repeat(frame(1000), 200)...), nil)
	if err := f.engine.Run(ctx); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if f.engine.Stats().Frames != 0 {
		t.Error("loop ran after cancellation")
	}
}

func TestDiagnosticsPlotterLine(t *testing.T) {
	d := Diagnostics{MinRange: -1000, Volume: 600, SmoothVolume: 480.126, MaxVolume: 3000, MaxRange: 5000}
	want := "MinRange:-1000,Volume:600.00,SmoothVolume:480.13,MaxVolume:3000.00,MaxRange:5000"
	if got := d.PlotterLine(); got != want {
		t.Errorf("PlotterLine() = %q, want %q", got, want)
	}
}
