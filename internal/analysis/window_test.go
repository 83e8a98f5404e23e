// SPDX-License-Identifier: MIT
package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		name    string
		want    WindowFunc
		wantErr bool
	}{
		{"hann", Hann, false},
		{"Hanning", Hann, false},
		{"", Hann, false},
		{"HAMMING", Hamming, false},
		{" blackman ", Blackman, false},
		{"blackmannuttall", BlackmanNuttall, false},
		{"bartletthann", BartlettHann, false},
		{"lanczos", Lanczos, false},
		{"nuttall", Nuttall, false},
		{"none", Rectangular, false},
		{"kaiser", Hann, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindowFunc(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowFuncStringRoundTrip(t *testing.T) {
	for w := Hann; w <= Rectangular; w++ {
		got, err := ParseWindowFunc(w.String())
		require.NoError(t, err, w.String())
		assert.Equal(t, w, got)
	}
	assert.Equal(t, "window(42)", WindowFunc(42).String())
}

func TestWindowCoefficientsShape(t *testing.T) {
	const n = 1025

	for w := Hann; w < Rectangular; w++ {
		t.Run(w.String(), func(t *testing.T) {
			coeffs := WindowCoefficients(n, w)
			require.Len(t, coeffs, n)

			center := coeffs[n/2]
			for i, c := range coeffs {
				assert.GreaterOrEqual(t, c, float32(-1e-6), "coefficient %d", i)
				assert.LessOrEqual(t, c, float32(1+1e-6), "coefficient %d", i)
			}
			assert.Less(t, coeffs[0], center)
			assert.Less(t, coeffs[n-1], center)
			assert.InDelta(t, coeffs[10], coeffs[n-11], 1e-5)
		})
	}
}

func TestWindowCoefficientsRectangular(t *testing.T) {
	for i, c := range WindowCoefficients(64, Rectangular) {
		assert.Equal(t, float32(1), c, "coefficient %d", i)
	}
}

func TestWindowCoefficientsSingle(t *testing.T) {
	assert.Equal(t, []float32{1}, WindowCoefficients(1, Hann))
}

func TestApplyWindow(t *testing.T) {
	coeffs := []float32{0, 0.5, 1, 0.5}
	block := []float32{2, 2, 2, 2}

	ApplyWindow(block, coeffs)
	assert.Equal(t, []float32{0, 1, 2, 1}, block)

	// Windowing is not idempotent; applying it twice attenuates again.
	ApplyWindow(block, coeffs)
	assert.Equal(t, []float32{0, 0.5, 2, 0.5}, block)
}
