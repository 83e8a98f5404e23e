// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	applog "tuner/internal/log"

	"github.com/gordonklaus/portaudio"
)

// paStream is the subset of *portaudio.Stream used for blocking capture.
type paStream interface {
	Start() error
	Read() error
	Stop() error
	Close() error
}

// paLibOpenStream opens a blocking stream that reads into buf.
var paLibOpenStream = func(params portaudio.StreamParameters, buf []float32) (paStream, error) {
	return portaudio.OpenStream(params, buf)
}

// StreamSource captures mono float32 blocks from a PortAudio input device in
// blocking mode. PortAudio must be initialized for the lifetime of the source.
type StreamSource struct {
	device     *portaudio.DeviceInfo
	latency    time.Duration
	sampleRate float64

	buffer []float32 // Blocking read buffer registered with the stream.
	stream paStream

	closeOnce sync.Once
	closeErr  error
}

// NewStreamSource resolves the input device and prepares a stream of
// framesPerBuffer frames at sampleRate. deviceID -1 selects the default input.
func NewStreamSource(deviceID int, sampleRate float64, framesPerBuffer int, lowLatency bool) (*StreamSource, error) {
	if framesPerBuffer < 1 {
		return nil, fmt.Errorf("frames per buffer must be positive, got %d", framesPerBuffer)
	}

	device, err := InputDevice(deviceID)
	if err != nil {
		return nil, err
	}

	s := &StreamSource{
		device:     device,
		sampleRate: sampleRate,
		buffer:     make([]float32, framesPerBuffer),
	}
	if lowLatency {
		s.latency = device.DefaultLowInputLatency
	} else {
		s.latency = device.DefaultHighInputLatency
	}
	return s, nil
}

// Name returns the device name.
func (s *StreamSource) Name() string {
	return s.device.Name
}

// Start opens and starts the input stream.
func (s *StreamSource) Start() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 1,
			Device:   s.device,
			Latency:  s.latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: len(s.buffer),
		SampleRate:      s.sampleRate,
	}

	stream, err := paLibOpenStream(params, s.buffer)
	if err != nil {
		return fmt.Errorf("failed to open input stream on %s: %w", s.device.Name, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start input stream on %s: %w", s.device.Name, err)
	}
	s.stream = stream

	applog.Debugf("Audio: Stream started (Device: %s, Rate: %.0f Hz, Frames: %d, Latency: %s)",
		s.device.Name, s.sampleRate, len(s.buffer), s.latency)
	return nil
}

// Read blocks until a full buffer has been captured and copies it into block.
func (s *StreamSource) Read(block []float32) error {
	if s.stream == nil {
		return errors.New("input stream not started")
	}
	if len(block) != len(s.buffer) {
		return fmt.Errorf("block size %d does not match stream buffer %d", len(block), len(s.buffer))
	}

	if err := s.stream.Read(); err != nil {
		if errors.Is(err, portaudio.InputOverflowed) {
			copy(block, s.buffer)
			return ErrInputOverflowed
		}
		return fmt.Errorf("failed to read input stream: %w", err)
	}
	copy(block, s.buffer)
	return nil
}

// Close stops and closes the stream once.
func (s *StreamSource) Close() error {
	s.closeOnce.Do(func() {
		if s.stream == nil {
			return
		}
		if err := s.stream.Stop(); err != nil {
			s.closeErr = fmt.Errorf("failed to stop input stream: %w", err)
		}
		if err := s.stream.Close(); err != nil && s.closeErr == nil {
			s.closeErr = fmt.Errorf("failed to close input stream: %w", err)
		}
		s.stream = nil
		applog.Debugf("Audio: Stream closed (Device: %s)", s.device.Name)
	})
	return s.closeErr
}

var _ Source = (*StreamSource)(nil)
