// SPDX-License-Identifier: MIT
/*
Package meter turns raw sample frames into a stabilized loudness value.

Per frame:
- RMS with spike rejection
- Noise floor subtraction, noise gate, adaptive gain, clamp
- Moving average, slew limiting, exponential smoothing

Side channel:
- Post-gate levels feed a rolling history
- Recalibrate folds the history peak into a peak history and re-derives gain

All state lives in one Meter owned by the control loop. Meter is not safe for
concurrent use.
*/
package meter

import (
	"context"
	"fmt"
	"time"

	"ledvu/internal/config"
	"ledvu/internal/sched"
)

// Params are the pipeline tuning constants.
type Params struct {
	SampleShift   uint
	SampleCeiling int32

	CalibrationCeiling int32
	CalibrationFrames  int
	CalibrationDelay   time.Duration
	DefaultBaseline    float64

	GateThreshold float64
	TargetMax     float64
	DefaultGain   float64

	FilterSize      int
	SlewTrigger     float64 // fraction of TargetMax
	SlewStep        float64 // fraction of TargetMax
	SmoothingFactor float64

	VolumeSamples   int
	PeakHistorySize int
	PeakFactor      float64
	GainBlend       float64
}

// DefaultParams returns the build-time constants from the config package.
func DefaultParams() Params {
	return Params{
		SampleShift:        config.SampleShift,
		SampleCeiling:      config.SampleCeiling,
		CalibrationCeiling: config.CalibrationCeiling,
		CalibrationFrames:  config.CalibrationFrames,
		CalibrationDelay:   config.CalibrationDelay,
		DefaultBaseline:    config.DefaultBaseline,
		GateThreshold:      config.GateThreshold,
		TargetMax:          config.MaxVolumeTarget,
		DefaultGain:        config.DefaultGain,
		FilterSize:         config.FilterSize,
		SlewTrigger:        config.SlewTrigger,
		SlewStep:           config.SlewStep,
		SmoothingFactor:    config.SmoothingFactor,
		VolumeSamples:      config.VolumeSamples,
		PeakHistorySize:    config.PeakHistorySize,
		PeakFactor:         config.PeakFactor,
		GainBlend:          config.GainBlend,
	}
}

// Validate rejects parameter sets that would break the pipeline invariants.
func (p *Params) Validate() error {
	switch {
	case p.SampleCeiling <= 0 || p.CalibrationCeiling <= 0:
		return fmt.Errorf("sample ceilings must be positive")
	case p.TargetMax <= 0:
		return fmt.Errorf("target max must be positive, got %f", p.TargetMax)
	case p.DefaultGain <= 0:
		return fmt.Errorf("default gain must be positive, got %f", p.DefaultGain)
	case p.DefaultBaseline < 0:
		return fmt.Errorf("default baseline must not be negative, got %f", p.DefaultBaseline)
	case p.FilterSize < 1 || p.VolumeSamples < 1 || p.PeakHistorySize < 1:
		return fmt.Errorf("buffer sizes must be at least 1")
	case p.SmoothingFactor <= 0 || p.SmoothingFactor > 1:
		return fmt.Errorf("smoothing factor must be within (0, 1], got %f", p.SmoothingFactor)
	case p.GainBlend <= 0 || p.GainBlend > 1:
		return fmt.Errorf("gain blend must be within (0, 1], got %f", p.GainBlend)
	case p.SlewTrigger < 0 || p.SlewStep < 0:
		return fmt.Errorf("slew fractions must not be negative")
	}
	return nil
}

// Reading is the output of one successful tick.
type Reading struct {
	RMS      float64 // Frame energy after spike rejection
	Gated    float64 // Post-gate, pre-gain level (recorded for auto-gain)
	Sample   float64 // Gated × gain, clamped to [0, TargetMax]
	Filtered float64 // Moving average output
	Volume   float64 // Slew-limited volume
	Smoothed float64 // Exponentially smoothed volume shown on the strip
}

// Meter owns every piece of pipeline state.
type Meter struct {
	params Params
	cal    Calibration

	average *MovingAverage
	slew    *SlewLimiter
	smooth  *Smoother
	agc     *AutoGain

	peakReference float64 // averagePeak × gain, TargetMax until the first update
	last          Reading
}

// New builds a Meter with the default noise floor and gain.
func New(p Params) (*Meter, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid meter parameters: %w", err)
	}
	return &Meter{
		params: p,
		cal: Calibration{
			BaselineNoise: p.DefaultBaseline,
			Gain:          p.DefaultGain,
		},
		average:       NewMovingAverage(p.FilterSize),
		slew:          NewSlewLimiter(p.SlewTrigger*p.TargetMax, p.SlewStep*p.TargetMax),
		smooth:        NewSmoother(p.SmoothingFactor),
		agc:           NewAutoGain(&p),
		peakReference: p.TargetMax,
	}, nil
}

// Calibrate runs the startup baseline measurement. When no valid frame was
// read the default noise floor is kept and ErrInsufficientCalibrationData is
// returned; callers treat that as a warning.
func (m *Meter) Calibrate(ctx context.Context, src FrameSource, clock sched.Clock) (float64, error) {
	baseline, err := CalibrateBaseline(ctx, src, &m.params, clock)
	if err != nil {
		return m.cal.BaselineNoise, err
	}
	m.cal.BaselineNoise = baseline
	return baseline, nil
}

// Process runs one frame through the pipeline. A frame with no valid samples
// returns ErrFrameUnavailable and leaves every piece of state untouched.
//
// Hot path: no allocations.
func (m *Meter) Process(frame []int32) (Reading, error) {
	rms, ok := RMS(frame, m.params.SampleShift, m.params.SampleCeiling)
	if !ok {
		return m.last, ErrFrameUnavailable
	}

	r := Reading{RMS: rms}
	r.Gated, r.Sample = m.cal.Gate(rms, &m.params)
	r.Filtered = m.average.Update(r.Sample)
	r.Volume = m.slew.Update(r.Filtered)
	r.Smoothed = m.smooth.Update(r.Volume)

	m.agc.Record(r.Gated)
	m.last = r
	return r, nil
}

// Recalibrate runs one auto-gain update. The control loop calls it once per
// calibration window.
func (m *Meter) Recalibrate() GainUpdate {
	u := m.agc.Update(&m.cal)
	if u.Changed {
		m.peakReference = u.AveragePeak * m.cal.Gain
	}
	return u
}

// Calibration returns a copy of the current calibration state.
func (m *Meter) Calibration() Calibration { return m.cal }

// SetBaseline overrides the noise floor. Negative values are clamped to 0.
func (m *Meter) SetBaseline(baseline float64) {
	m.cal.BaselineNoise = max(0, baseline)
}

// Last returns the most recent successful reading.
func (m *Meter) Last() Reading { return m.last }

// Smoothed returns the current display volume.
func (m *Meter) Smoothed() float64 { return m.smooth.Value() }

// PeakReference returns the gain-adjusted peak used as the plotter's upper
// reference line.
func (m *Meter) PeakReference() float64 { return m.peakReference }

// PeakCount returns the number of peaks currently averaged for the gain.
func (m *Meter) PeakCount() int { return m.agc.PeakCount() }

// Params returns the parameters the meter was built with.
func (m *Meter) Params() Params { return m.params }
