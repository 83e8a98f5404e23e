// SPDX-License-Identifier: MIT
package analysis

import "math"

// Biquad is one second-order low-pass section in direct form I. mem holds
// the two previous inputs followed by the two previous outputs.
type Biquad struct {
	a   [2]float32 // Feedback, normalized by a0.
	b   [3]float32 // Feedforward, normalized by a0.
	mem [4]float32
}

// LowPassCoefficients returns the cookbook biquad low-pass coefficients for
// Q = 1/√2 (Butterworth response), normalized by a0.
func LowPassCoefficients(sampleRate, cutoff float32) (a [2]float32, b [3]float32) {
	w0 := 2 * math.Pi * float64(cutoff) / float64(sampleRate)
	cosw0 := float32(math.Cos(w0))
	sinw0 := float32(math.Sin(w0))
	alpha := sinw0 / float32(math.Sqrt2) // sin(w0) / (2Q)

	a0 := 1 + alpha
	a[0] = (-2 * cosw0) / a0
	a[1] = (1 - alpha) / a0
	b[0] = (1 - cosw0) / (2 * a0)
	b[1] = (1 - cosw0) / a0
	b[2] = b[0]
	return a, b
}

// NewBiquad returns a section with zeroed memory.
func NewBiquad(a [2]float32, b [3]float32) *Biquad {
	return &Biquad{a: a, b: b}
}

// Process filters one sample and shifts the history.
func (f *Biquad) Process(x float32) float32 {
	m := &f.mem
	y := f.b[0]*x + f.b[1]*m[0] + f.b[2]*m[1] - f.a[0]*m[2] - f.a[1]*m[3]
	m[1] = m[0]
	m[0] = x
	m[3] = m[2]
	m[2] = y
	return y
}

// LowPass runs every sample through two biquad sections with the same
// coefficients and independent memory, for a fourth-order roll-off. The
// memory carries over between blocks and is never reset while running.
type LowPass struct {
	stages [2]Biquad
}

// NewLowPass designs the cascade for the given sample rate and cutoff.
func NewLowPass(sampleRate, cutoff float64) *LowPass {
	a, b := LowPassCoefficients(float32(sampleRate), float32(cutoff))
	lp := &LowPass{}
	for i := range lp.stages {
		lp.stages[i] = Biquad{a: a, b: b}
	}
	return lp
}

// ProcessSample filters one sample through both stages.
func (lp *LowPass) ProcessSample(x float32) float32 {
	x = lp.stages[0].Process(x)
	return lp.stages[1].Process(x)
}

// ProcessBlock filters block in place.
func (lp *LowPass) ProcessBlock(block []float32) {
	for i, x := range block {
		block[i] = lp.ProcessSample(x)
	}
}
