// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	applog "tuner/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVInfo describes the PCM format of a WAV file.
type WAVInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// ProbeWAV reads the header of the WAV file at path.
func ProbeWAV(path string) (WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return WAVInfo{}, fmt.Errorf("invalid WAV file: %s", path)
	}
	return wavInfo(decoder), nil
}

func wavInfo(decoder *wav.Decoder) WAVInfo {
	format := decoder.Format()
	return WAVInfo{
		SampleRate: format.SampleRate,
		Channels:   format.NumChannels,
		BitDepth:   int(decoder.BitDepth),
	}
}

// WAVSource analyses a WAV file block by block. Multi-channel files are
// down-mixed to mono by averaging, and a trailing partial block is padded
// with silence. Read returns io.EOF once the file is exhausted.
type WAVSource struct {
	path       string
	sampleRate float64

	file    *os.File
	decoder *wav.Decoder
	info    WAVInfo
	pcm     *audio.IntBuffer // Interleaved samples for one block.
	scale   float32          // Converts integer PCM to [-1, 1).
	done    bool

	closeOnce sync.Once
	closeErr  error
}

// NewWAVSource prepares a source for path. The file's sample rate must equal
// sampleRate, since the lookup tables are built for it.
func NewWAVSource(path string, sampleRate float64) *WAVSource {
	return &WAVSource{path: path, sampleRate: sampleRate}
}

// Name returns the file path.
func (s *WAVSource) Name() string {
	return s.path
}

// Start opens the file and validates its format.
func (s *WAVSource) Start() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return fmt.Errorf("invalid WAV file: %s", s.path)
	}

	info := wavInfo(decoder)
	if float64(info.SampleRate) != s.sampleRate {
		f.Close()
		return fmt.Errorf("WAV sample rate %d Hz does not match configured %.0f Hz", info.SampleRate, s.sampleRate)
	}
	if info.Channels < 1 || info.BitDepth < 8 {
		f.Close()
		return fmt.Errorf("unsupported WAV format: %d channels, %d bits", info.Channels, info.BitDepth)
	}

	s.file = f
	s.decoder = decoder
	s.info = info
	s.scale = 1 / float32(int64(1)<<(info.BitDepth-1))
	applog.Infof("Audio: Reading %s (%d Hz, %d channels, %d-bit)", s.path, info.SampleRate, info.Channels, info.BitDepth)
	return nil
}

// Read fills block with the next len(block) frames.
func (s *WAVSource) Read(block []float32) error {
	if s.decoder == nil {
		return errors.New("WAV source not started")
	}
	if s.done {
		return io.EOF
	}

	channels := s.info.Channels
	want := len(block) * channels
	if s.pcm == nil || cap(s.pcm.Data) < want {
		s.pcm = &audio.IntBuffer{Data: make([]int, want)}
	}

	// The decoder may return short reads, keep going until the block is full.
	filled := 0
	for filled < want {
		s.pcm.Data = s.pcm.Data[:want-filled]
		n, err := s.decoder.PCMBuffer(s.pcm)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read audio data: %w", err)
		}
		if n == 0 {
			break
		}
		s.mix(block, filled, s.pcm.Data[:n])
		filled += n
	}

	if filled == 0 {
		s.done = true
		return io.EOF
	}

	// Whole frames only; a dangling partial frame counts as silence.
	for i := filled / channels; i < len(block); i++ {
		block[i] = 0
	}
	if filled < want {
		s.done = true
	}
	return nil
}

// mix down-mixes interleaved samples starting at sample offset into block.
func (s *WAVSource) mix(block []float32, offset int, samples []int) {
	channels := s.info.Channels
	gain := s.scale / float32(channels)
	for i, v := range samples {
		pos := offset + i
		frame, ch := pos/channels, pos%channels
		if ch == 0 {
			block[frame] = 0
		}
		block[frame] += float32(v) * gain
	}
}

// Close closes the file once.
func (s *WAVSource) Close() error {
	s.closeOnce.Do(func() {
		if s.file != nil {
			s.closeErr = s.file.Close()
			s.file = nil
		}
	})
	return s.closeErr
}

var _ Source = (*WAVSource)(nil)
