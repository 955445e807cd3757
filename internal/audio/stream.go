// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"time"

	applog "ledvu/internal/log"

	"github.com/gordonklaus/portaudio"
)

// paStream is the part of *portaudio.Stream the source uses.
type paStream interface {
	Start() error
	Read() error
	Stop() error
	Close() error
}

var openStreamFunc = func(p portaudio.StreamParameters, buf []int32) (paStream, error) {
	return portaudio.OpenStream(p, buf)
}

// StreamSource reads mono frames from a PortAudio input with the blocking
// API. ReadFrame blocks for one buffer period.
type StreamSource struct {
	device  *portaudio.DeviceInfo
	latency time.Duration
	stream  paStream
	buf     []int32
	started bool

	overflows int // Reads that reported dropped input before this buffer
}

// StreamOptions configures OpenStreamSource.
type StreamOptions struct {
	DeviceID        int
	SampleRate      float64
	FramesPerBuffer int
	LowLatency      bool
}

// OpenStreamSource opens and starts a mono capture stream. PortAudio must be
// initialized.
func OpenStreamSource(opts StreamOptions) (*StreamSource, error) {
	device, err := InputDevice(opts.DeviceID)
	if err != nil {
		return nil, err
	}

	s := &StreamSource{
		device: device,
		buf:    make([]int32, opts.FramesPerBuffer),
	}
	if opts.LowLatency {
		s.latency = device.DefaultLowInputLatency
	} else {
		s.latency = device.DefaultHighInputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  s.latency,
		},
		SampleRate:      opts.SampleRate,
		FramesPerBuffer: opts.FramesPerBuffer,
	}

	stream, err := openStreamFunc(params, s.buf)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream on '%s': %w", device.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start input stream on '%s': %w", device.Name, err)
	}
	s.stream = stream
	s.started = true

	applog.Infof("Audio: Capturing from '%s' at %.0f Hz, %d frames, latency %s",
		device.Name, opts.SampleRate, opts.FramesPerBuffer, s.latency)
	return s, nil
}

// ReadFrame blocks until the next buffer is captured. The returned slice is
// reused by the next call.
//
// An overflow means older input was lost before this read; the buffer itself
// is filled, so it is delivered and the overflow is only counted.
func (s *StreamSource) ReadFrame() ([]int32, error) {
	if err := s.stream.Read(); err != nil {
		if !errors.Is(err, portaudio.InputOverflowed) {
			return nil, fmt.Errorf("failed to read input stream: %w", err)
		}
		if s.overflows == 0 {
			applog.Debugf("Audio: Input overflowed on '%s', older samples were dropped", s.device.Name)
		}
		s.overflows++
	}
	return s.buf, nil
}

// DeviceName returns the name of the capture device.
func (s *StreamSource) DeviceName() string { return s.device.Name }

// Close stops and closes the stream.
func (s *StreamSource) Close() error {
	if s.stream == nil {
		return nil
	}
	if s.overflows > 0 {
		applog.Debugf("Audio: %d input overflows on '%s'", s.overflows, s.device.Name)
	}
	var errs []error
	if s.started {
		if err := s.stream.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop input stream: %w", err))
		}
		s.started = false
	}
	if err := s.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close input stream: %w", err))
	}
	s.stream = nil
	return errors.Join(errs...)
}
