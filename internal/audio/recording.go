// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	applog "tuner/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Recorder wraps a Source and writes every block it delivers to a mono PCM
// WAV file while recording is active.
type Recorder struct {
	src        Source
	sampleRate int
	bitDepth   int

	// Recording state and buffers.
	mu          sync.Mutex // Serializes Start/StopRecording against writes.
	isRecording int32      // Atomic flag for thread-safe state
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion
	maxValue    float32          // Full-scale integer value for bitDepth.
}

// NewRecorder wraps src. bitDepth must be 16, 24 or 32.
func NewRecorder(src Source, sampleRate float64, bitDepth int) (*Recorder, error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported recording bit depth: %d", bitDepth)
	}
	return &Recorder{
		src:        src,
		sampleRate: int(sampleRate),
		bitDepth:   bitDepth,
		maxValue:   float32(int64(1)<<(bitDepth-1) - 1),
	}, nil
}

// Name returns the wrapped source's name.
func (r *Recorder) Name() string {
	return SourceName(r.src)
}

func (r *Recorder) Start() error {
	return r.src.Start()
}

// Read reads from the wrapped source and records every block that carries
// samples, including blocks delivered after an input overflow.
func (r *Recorder) Read(block []float32) error {
	err := r.src.Read(block)
	if err != nil && !errors.Is(err, ErrInputOverflowed) {
		return err
	}
	if atomic.LoadInt32(&r.isRecording) == 1 {
		r.write(block)
	}
	return err
}

func (r *Recorder) write(block []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.wavEncoder == nil {
		return
	}
	if cap(r.sampleBuf.Data) < len(block) {
		r.sampleBuf.Data = make([]int, len(block))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(block)]

	for i, sample := range block {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}
		r.sampleBuf.Data[i] = int(sample * r.maxValue)
	}

	if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
		applog.Errorf("Recorder: Error writing to WAV file: %v", err)
	}
}

// StartRecording creates filename and begins writing blocks to it.
func (r *Recorder) StartRecording(filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if atomic.LoadInt32(&r.isRecording) == 1 {
		return fmt.Errorf("already recording")
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	r.outputFile = file

	r.wavEncoder = wav.NewEncoder(file, r.sampleRate, r.bitDepth, 1, 1)
	r.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  r.sampleRate,
		},
		SourceBitDepth: r.bitDepth,
	}

	atomic.StoreInt32(&r.isRecording, 1)
	applog.Infof("Recorder: Recording to %s (%d Hz, %d-bit)", filename, r.sampleRate, r.bitDepth)

	return nil
}

// StopRecording finalizes the WAV header and closes the file.
func (r *Recorder) StopRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if atomic.LoadInt32(&r.isRecording) == 0 {
		return nil
	}

	atomic.StoreInt32(&r.isRecording, 0)

	if r.wavEncoder != nil {
		if err := r.wavEncoder.Close(); err != nil {
			return err
		}
		r.wavEncoder = nil
	}

	if r.outputFile != nil {
		if err := r.outputFile.Close(); err != nil {
			return err
		}
		r.outputFile = nil
	}

	return nil
}

// IsRecording reports whether blocks are being written.
func (r *Recorder) IsRecording() bool {
	return atomic.LoadInt32(&r.isRecording) == 1
}

// Close stops recording and closes the wrapped source.
func (r *Recorder) Close() error {
	recErr := r.StopRecording()
	srcErr := r.src.Close()
	if recErr != nil {
		return recErr
	}
	return srcErr
}

var _ Source = (*Recorder)(nil)
