// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"sync"
	"time"

	applog "ledvu/internal/log"
	"ledvu/internal/meter"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const recordingBitDepth = 32

// Recorder writes mono 32-bit PCM frames to a WAV file.
type Recorder struct {
	mu         sync.Mutex
	outputFile *os.File
	wavEncoder *wav.Encoder
	sampleBuf  *audio.IntBuffer // Reusable buffer for format conversion
	frames     int
}

// DefaultRecordingName returns a timestamped file name for a new recording.
func DefaultRecordingName(now time.Time) string {
	return "ledvu-" + now.Format("20060102-150405") + ".wav"
}

// NewRecorder creates filename and prepares a mono encoder.
func NewRecorder(filename string, sampleRate, framesPerBuffer int) (*Recorder, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording '%s': %w", filename, err)
	}

	r := &Recorder{
		outputFile: file,
		wavEncoder: wav.NewEncoder(file, sampleRate, recordingBitDepth, 1, 1),
		sampleBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: 1,
				SampleRate:  sampleRate,
			},
			Data:           make([]int, framesPerBuffer),
			SourceBitDepth: recordingBitDepth,
		},
	}
	applog.Infof("Recorder: Writing %s", filename)
	return r, nil
}

// Write appends one frame.
func (r *Recorder) Write(frame []int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wavEncoder == nil {
		return fmt.Errorf("recorder is closed")
	}

	if cap(r.sampleBuf.Data) < len(frame) {
		r.sampleBuf.Data = make([]int, len(frame))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(frame)]
	for i, sample := range frame {
		r.sampleBuf.Data[i] = int(sample)
	}
	if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
		return fmt.Errorf("failed to write WAV frame: %w", err)
	}
	r.frames++
	return nil
}

// Frames returns how many frames were written.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Close finalizes the WAV header and closes the file. Safe to call twice.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.wavEncoder != nil {
		if err := r.wavEncoder.Close(); err != nil {
			return fmt.Errorf("failed to finalize recording: %w", err)
		}
		r.wavEncoder = nil
	}
	if r.outputFile != nil {
		if err := r.outputFile.Close(); err != nil {
			return fmt.Errorf("failed to close recording: %w", err)
		}
		r.outputFile = nil
		applog.Infof("Recorder: Wrote %d frames", r.frames)
	}
	return nil
}

// TeeSource records every frame read from src.
type TeeSource struct {
	src meter.FrameSource
	rec *Recorder
}

// NewTeeSource wraps src so successful reads are also written to rec.
func NewTeeSource(src meter.FrameSource, rec *Recorder) *TeeSource {
	return &TeeSource{src: src, rec: rec}
}

func (t *TeeSource) ReadFrame() ([]int32, error) {
	frame, err := t.src.ReadFrame()
	if err != nil {
		return frame, err
	}
	if werr := t.rec.Write(frame); werr != nil {
		applog.Debugf("Recorder: %v", werr)
	}
	return frame, nil
}
