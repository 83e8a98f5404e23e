// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the window applied to each block before the FFT.
type WindowFunc int

// Enum for available window functions. Hann is the zero value and the
// tuner's default.
const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	BlackmanNuttall
	BartlettHann
	Lanczos
	Nuttall
	Rectangular
)

// String returns the lower-case name accepted by ParseWindowFunc.
func (w WindowFunc) String() string {
	switch w {
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Blackman:
		return "blackman"
	case BlackmanNuttall:
		return "blackmannuttall"
	case BartlettHann:
		return "bartletthann"
	case Lanczos:
		return "lanczos"
	case Nuttall:
		return "nuttall"
	case Rectangular:
		return "rectangular"
	default:
		return fmt.Sprintf("window(%d)", int(w))
	}
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc
// enum, returns a known default (Hann) and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hann", "hanning", "":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "bartletthann":
		return BartlettHann, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	case "rectangular", "none":
		return Rectangular, nil
	default:
		return Hann, fmt.Errorf("unknown window function name: '%s'", name)
	}
}

// WindowCoefficients returns n coefficients of the selected window.
//
// Hann is computed directly as w[i] = 0.5*(1-cos(2πi/(n-1))); the other
// windows come from gonum's dsp/window applied to a slice of ones.
func WindowCoefficients(n int, windowType WindowFunc) []float32 {
	coeffs := make([]float32, n)
	if n == 1 {
		coeffs[0] = 1
		return coeffs
	}

	if windowType == Hann {
		for i := range n {
			coeffs[i] = float32(0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1))))
		}
		return coeffs
	}

	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1.0
	}
	switch windowType {
	case Hamming:
		window.Hamming(ones)
	case Blackman:
		window.Blackman(ones)
	case BlackmanNuttall:
		window.BlackmanNuttall(ones)
	case BartlettHann:
		window.BartlettHann(ones)
	case Lanczos:
		window.Lanczos(ones)
	case Nuttall:
		window.Nuttall(ones)
	case Rectangular:
	}
	for i, v := range ones {
		coeffs[i] = float32(v)
	}
	return coeffs
}

// ApplyWindow multiplies block by coeffs element-wise, in place. Both slices
// have the window size as length.
func ApplyWindow(block, coeffs []float32) {
	for i := range block {
		block[i] *= coeffs[i]
	}
}
