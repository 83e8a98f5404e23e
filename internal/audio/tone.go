// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"time"

	"tuner/pkg/utils"
)

// ToneSource synthesizes a continuous sine, for running the tuner without
// audio hardware.
type ToneSource struct {
	SampleRate float64
	Frequency  float64
	Amplitude  float64

	// Paced makes Read wait for the block's duration so the output arrives
	// at the rate a device would deliver it.
	Paced bool

	// Blocks limits the number of blocks produced before io.EOF. Zero means
	// unlimited.
	Blocks int

	phase   float64
	count   int
	started bool
	next    time.Time
}

// NewToneSource returns an unpaced, unlimited tone at half amplitude.
func NewToneSource(sampleRate, frequency float64) *ToneSource {
	return &ToneSource{
		SampleRate: sampleRate,
		Frequency:  frequency,
		Amplitude:  0.5,
	}
}

// Name describes the tone.
func (s *ToneSource) Name() string {
	return fmt.Sprintf("sine %.2f Hz", s.Frequency)
}

func (s *ToneSource) Start() error {
	if s.SampleRate <= 0 {
		return fmt.Errorf("tone sample rate must be positive, got %f", s.SampleRate)
	}
	if s.Frequency <= 0 || s.Frequency >= s.SampleRate/2 {
		return fmt.Errorf("tone frequency %.2f Hz must be within (0, %.0f)", s.Frequency, s.SampleRate/2)
	}
	s.started = true
	s.next = time.Now()
	return nil
}

// Read writes the next len(block) samples of the tone, continuing the phase
// of the previous block.
func (s *ToneSource) Read(block []float32) error {
	if !s.started {
		return errors.New("tone source not started")
	}
	if s.Blocks > 0 && s.count >= s.Blocks {
		return io.EOF
	}

	if s.Paced {
		s.next = s.next.Add(time.Duration(float64(len(block)) / s.SampleRate * float64(time.Second)))
		if wait := time.Until(s.next); wait > 0 {
			time.Sleep(wait)
		}
	}

	s.phase = utils.FillSineWave(block, s.SampleRate, s.Frequency, s.Amplitude, s.phase)
	s.count++
	return nil
}

func (s *ToneSource) Close() error {
	s.started = false
	return nil
}

var _ Source = (*ToneSource)(nil)
