// SPDX-License-Identifier: MIT
package meter

// Calibration is the adaptive state shared by the gate and the auto-gain
// controller. Gain is always strictly positive.
type Calibration struct {
	BaselineNoise float64 // RMS of the ambient noise floor
	Gain          float64 // Adaptive scale factor
}

// Gate subtracts the noise floor from rms, forces small residuals to zero and
// applies the gain. gated is the post-gate, pre-gain level; sample is the
// scaled value clamped to [0, TargetMax].
func (c Calibration) Gate(rms float64, p *Params) (gated, sample float64) {
	gated = max(0, rms-c.BaselineNoise)
	if gated < p.GateThreshold {
		gated = 0
	}
	sample = min(max(gated*c.Gain, 0), p.TargetMax)
	return gated, sample
}
