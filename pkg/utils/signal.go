// SPDX-License-Identifier: MIT
package utils

import "math"

// GenerateSineWave returns size float32 samples of a sine at frequency Hz.
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, size)
	FillSineWave(buffer, sampleRate, frequency, amplitude, 0)
	return buffer
}

// FillSineWave writes a sine into dst starting at phase (radians) and returns
// the phase of the sample following the last one written, so consecutive
// calls produce a continuous tone.
func FillSineWave(dst []float32, sampleRate, frequency, amplitude, phase float64) float64 {
	step := 2 * math.Pi * frequency / sampleRate
	for i := range dst {
		dst[i] = float32(amplitude * math.Sin(phase))
		phase += step
	}
	return math.Mod(phase, 2*math.Pi)
}

// GenerateChord sums equal-amplitude sines, scaled so the peak stays within
// amplitude.
func GenerateChord(size int, sampleRate, amplitude float64, frequencies ...float64) []float32 {
	buffer := make([]float32, size)
	if len(frequencies) == 0 {
		return buffer
	}
	scale := amplitude / float64(len(frequencies))
	for i := range buffer {
		tm := float64(i) / sampleRate
		var sum float64
		for _, f := range frequencies {
			sum += math.Sin(2 * math.Pi * f * tm)
		}
		buffer[i] = float32(sum * scale)
	}
	return buffer
}

// PeakAmplitude returns the largest absolute sample value.
func PeakAmplitude(buffer []float32) float32 {
	var peak float32
	for _, v := range buffer {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}
