// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	applog "ledvu/internal/log"
	"ledvu/internal/sched"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// FileSource replays a PCM WAV file as frames. Multi-channel files are
// reduced to their first channel. Samples are left-justified to 32 bits.
type FileSource struct {
	file     *os.File
	decoder  *wav.Decoder
	channels int
	bitDepth int

	pcm   *audio.IntBuffer
	frame []int32

	clock  sched.Clock // nil disables pacing
	period time.Duration
	next   time.Time
}

// OpenFileSource opens path for replay in frames of framesPerBuffer samples.
// A non-nil clock paces reads at the file's sample rate.
func OpenFileSource(path string, framesPerBuffer int, clock sched.Clock) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, fmt.Errorf("'%s' is not a valid WAV file", path)
	}
	format := decoder.Format()
	if f := decoder.WavAudioFormat; f != wavFormatPCM && f != wavFormatExtensible {
		file.Close()
		return nil, fmt.Errorf("'%s' is not PCM (format %d)", path, decoder.WavAudioFormat)
	}

	bitDepth := int(decoder.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		file.Close()
		return nil, fmt.Errorf("unsupported bit depth %d in '%s'", bitDepth, path)
	}

	fs := &FileSource{
		file:     file,
		decoder:  decoder,
		channels: max(format.NumChannels, 1),
		bitDepth: bitDepth,
		frame:    make([]int32, framesPerBuffer),
		clock:    clock,
	}
	fs.pcm = &audio.IntBuffer{
		Format: format,
		Data:   make([]int, framesPerBuffer*fs.channels),
	}
	if format.SampleRate > 0 {
		fs.period = time.Duration(framesPerBuffer) * time.Second / time.Duration(format.SampleRate)
	}

	applog.Infof("Audio: Replaying '%s' (%d Hz, %d-bit, %d channel(s))",
		path, format.SampleRate, bitDepth, fs.channels)
	return fs, nil
}

// SampleRate returns the file's sample rate.
func (fs *FileSource) SampleRate() int { return fs.pcm.Format.SampleRate }

// ReadFrame returns the next frame, or io.EOF at the end of the file. The
// last frame may be short.
func (fs *FileSource) ReadFrame() ([]int32, error) {
	fs.pace()

	n, err := fs.decoder.PCMBuffer(fs.pcm)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to decode input file: %w", err)
	}
	samples := n / fs.channels
	if samples == 0 {
		return nil, io.EOF
	}

	shift := uint(32 - fs.bitDepth)
	for i := range samples {
		v := fs.pcm.Data[i*fs.channels]
		if fs.bitDepth == 8 {
			v -= 128 // 8-bit WAV is unsigned
		}
		fs.frame[i] = int32(v) << shift
	}
	return fs.frame[:samples], nil
}

func (fs *FileSource) pace() {
	if fs.clock == nil || fs.period <= 0 {
		return
	}
	now := fs.clock.Now()
	if fs.next.IsZero() {
		fs.next = now
	}
	if d := fs.next.Sub(now); d > 0 {
		_ = fs.clock.Sleep(context.Background(), d)
	}
	fs.next = fs.next.Add(fs.period)
}

// Close closes the file.
func (fs *FileSource) Close() error {
	if fs.file == nil {
		return nil
	}
	err := fs.file.Close()
	fs.file = nil
	return err
}
