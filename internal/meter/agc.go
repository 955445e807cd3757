// SPDX-License-Identifier: MIT
package meter

import "math"

// AutoGain keeps the display range matched to the input. Every tick records
// the post-gate level into a rolling history; once per calibration window the
// history peak is folded into a short peak history, and the gain is blended
// toward TargetMax / averagePeak.
type AutoGain struct {
	history *Ring // rolling window of post-gate, pre-gain levels
	peaks   *Ring // recent accepted window peaks

	targetMax  float64
	peakFactor float64
	blend      float64
}

// GainUpdate describes one recalibration.
type GainUpdate struct {
	WindowPeak  float64 // Max of the rolling history
	Accepted    bool    // WindowPeak was pushed into the peak history
	AveragePeak float64 // Mean of the peak history, 0 when empty
	Gain        float64 // Gain after the update
	Changed     bool    // Gain was recomputed
}

// NewAutoGain sizes the histories from p.
func NewAutoGain(p *Params) *AutoGain {
	return &AutoGain{
		history:    NewRing(p.VolumeSamples),
		peaks:      NewRing(p.PeakHistorySize),
		targetMax:  p.TargetMax,
		peakFactor: p.PeakFactor,
		blend:      p.GainBlend,
	}
}

// Record stores one post-gate level.
func (a *AutoGain) Record(gated float64) {
	a.history.Push(gated)
}

// Update runs one recalibration against cal, mutating cal.Gain. Peaks at or
// below peakFactor × baseline are ignored, so silence never drags the gain
// up. A desired gain that is not finite and positive leaves the gain alone.
func (a *AutoGain) Update(cal *Calibration) GainUpdate {
	u := GainUpdate{Gain: cal.Gain}

	u.WindowPeak = a.history.Max()
	if u.WindowPeak > cal.BaselineNoise*a.peakFactor {
		a.peaks.Push(u.WindowPeak)
		u.Accepted = true
	}

	u.AveragePeak = a.peaks.Mean()
	if u.AveragePeak <= 0 {
		return u
	}

	desired := a.targetMax / u.AveragePeak
	if math.IsNaN(desired) || math.IsInf(desired, 0) || desired <= 0 {
		return u
	}

	next := cal.Gain*(1-a.blend) + desired*a.blend
	if next > 0 {
		cal.Gain = next
		u.Gain = next
		u.Changed = true
	}
	return u
}

// PeakCount returns the number of valid entries in the peak history.
func (a *AutoGain) PeakCount() int { return a.peaks.Len() }
