// SPDX-License-Identifier: MIT
package meter

import (
	"context"
	"fmt"

	"ledvu/internal/sched"
)

// CalibrateBaseline measures the ambient noise floor, assuming silence. It
// reads p.CalibrationFrames frames, waiting p.CalibrationDelay between reads,
// and averages the RMS of every frame with at least one valid sample under
// p.CalibrationCeiling. Failed reads count as invalid frames.
//
// It returns ErrInsufficientCalibrationData when no frame was valid, and the
// context error if ctx is cancelled while waiting.
func CalibrateBaseline(ctx context.Context, src FrameSource, p *Params, clock sched.Clock) (float64, error) {
	var total float64
	valid := 0

	for range p.CalibrationFrames {
		frame, err := src.ReadFrame()
		if err == nil {
			if rms, ok := RMS(frame, p.SampleShift, p.CalibrationCeiling); ok {
				total += rms
				valid++
			}
		}
		if err := clock.Sleep(ctx, p.CalibrationDelay); err != nil {
			return 0, fmt.Errorf("baseline calibration interrupted: %w", err)
		}
	}

	if valid == 0 {
		return 0, ErrInsufficientCalibrationData
	}
	return total / float64(valid), nil
}
