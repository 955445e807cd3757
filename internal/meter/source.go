// SPDX-License-Identifier: MIT
package meter

import (
	"errors"
	"io"
)

var (
	// ErrFrameUnavailable reports a tick without usable samples. The tick is
	// skipped and no state changes.
	ErrFrameUnavailable = errors.New("meter: frame unavailable")

	// ErrInsufficientCalibrationData reports a startup calibration that got no
	// valid frames. The default noise floor stays in place.
	ErrInsufficientCalibrationData = errors.New("meter: insufficient calibration data")
)

// FrameSource delivers fixed-size blocks of signed samples. ReadFrame may
// block until data is available. The returned slice is only valid until the
// next call. A non-nil error means no frame this call; io.EOF means the
// source is exhausted for good.
type FrameSource interface {
	ReadFrame() ([]int32, error)
}

// ScriptStep is one scripted ReadFrame result.
type ScriptStep struct {
	Frame []int32
	Err   error
}

// Script replays a fixed sequence of frames and failures. It returns io.EOF
// once exhausted unless Loop is set.
type Script struct {
	Steps []ScriptStep
	Loop  bool
	pos   int
}

// NewScript returns a script over steps.
func NewScript(steps ...ScriptStep) *Script {
	return &Script{Steps: steps}
}

// Frames is a convenience constructor for a script of successful reads.
func Frames(frames ...[]int32) *Script {
	steps := make([]ScriptStep, len(frames))
	for i, f := range frames {
		steps[i] = ScriptStep{Frame: f}
	}
	return NewScript(steps...)
}

// Repeat returns n steps each delivering frame.
func Repeat(frame []int32, n int) []ScriptStep {
	steps := make([]ScriptStep, n)
	for i := range steps {
		steps[i] = ScriptStep{Frame: frame}
	}
	return steps
}

func (s *Script) ReadFrame() ([]int32, error) {
	if s.pos >= len(s.Steps) {
		if !s.Loop || len(s.Steps) == 0 {
			return nil, io.EOF
		}
		s.pos = 0
	}
	step := s.Steps[s.pos]
	s.pos++
	return step.Frame, step.Err
}
