// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"sync"

	applog "tuner/internal/log"
	"tuner/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FourierTransform is the real-input forward FFT used by the spectral
// analyzer, backed by gonum's dsp/fourier. The float32 block is widened into
// a pre-allocated float64 buffer, so Forward does not allocate when dst has
// room for Size()/2+1 values.
type FourierTransform struct {
	fft     *fourier.FFT // Reusable FFT instance.
	size    int          // Number of points (power of 2).
	input   []float64    // Widened copy of the current block.
	closeMu sync.Mutex
	closed  bool
}

// Compile-time check for the interface implementation.
var _ Transform = (*FourierTransform)(nil)

// NewFourierTransform allocates the FFT context for size points.
func NewFourierTransform(size int) (*FourierTransform, error) {
	if size < 2 || !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", size)
	}

	applog.Debugf("Analysis: Initializing FFT (Size: %d, 2^%d)", size, bitint.Log2(size))

	return &FourierTransform{
		fft:   fourier.NewFFT(size),
		size:  size,
		input: make([]float64, size),
	}, nil
}

// Forward implements Transform. Blocks shorter than Size() are zero-padded.
func (t *FourierTransform) Forward(dst []complex128, block []float32) []complex128 {
	for i := range t.input {
		if i < len(block) {
			t.input[i] = float64(block[i])
		} else {
			t.input[i] = 0
		}
	}

	n := t.size/2 + 1
	if cap(dst) < n {
		dst = make([]complex128, n)
	}
	return t.fft.Coefficients(dst[:n], t.input)
}

// Size implements Transform.
func (t *FourierTransform) Size() int {
	return t.size
}

// SpectrumLen returns the number of values Forward produces.
func (t *FourierTransform) SpectrumLen() int {
	return t.size/2 + 1
}

// Close implements Transform. It drops the FFT work buffers.
func (t *FourierTransform) Close() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.fft = nil
	t.input = nil
	applog.Debugf("Analysis: Closed FFT (Size: %d)", t.size)
	return nil
}
