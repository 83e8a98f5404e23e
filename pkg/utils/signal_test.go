// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"testing"
)

const (
	testSize       = 1024
	testSampleRate = 8000
	testFrequency  = 440.0 // A4 note
)

func TestGenerateSineWave(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		sampleRate float64
		frequency  float64
	}{
		{"A4 Note", 1024, 44100, 440.0},
		{"Middle C", 1024, 44100, 261.63},
		{"High Sample Rate", 1024, 192000, 440.0},
		{"Tuner Sample Rate", 8192, 8000, 440.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GenerateSineWave(tt.size, tt.sampleRate, tt.frequency, 0.9)

			if len(result) != tt.size {
				t.Errorf("GenerateSineWave() buffer size = %d, want %d",
					len(result), tt.size)
			}

			samplesPerCycle := tt.sampleRate / tt.frequency

			crossCount := 0
			for i := 1; i < tt.size; i++ {
				if (result[i-1] < 0 && result[i] >= 0) ||
					(result[i-1] >= 0 && result[i] < 0) {
					crossCount++
				}
			}

			// Two crossings per cycle, 20% margin for phase alignment.
			expectedCrossings := float64(tt.size) / (samplesPerCycle / 2)
			tolerance := 0.2 * expectedCrossings

			if math.Abs(float64(crossCount)-expectedCrossings) > tolerance {
				t.Errorf("GenerateSineWave() zero crossings = %d, expected approximately %.1f±%.1f",
					crossCount, expectedCrossings, tolerance)
			}

			if peak := PeakAmplitude(result); peak > 0.9 || peak < 0.85 {
				t.Errorf("GenerateSineWave() peak = %f, want ~0.9", peak)
			}
		})
	}
}

func TestFillSineWaveIsContinuous(t *testing.T) {
	whole := GenerateSineWave(2*testSize, testSampleRate, testFrequency, 1)

	first := make([]float32, testSize)
	second := make([]float32, testSize)
	phase := FillSineWave(first, testSampleRate, testFrequency, 1, 0)
	FillSineWave(second, testSampleRate, testFrequency, 1, phase)

	for i := range testSize {
		if d := math.Abs(float64(whole[testSize+i] - second[i])); d > 1e-4 {
			t.Fatalf("sample %d differs by %g across block boundary", i, d)
		}
	}
}

func TestGenerateChord(t *testing.T) {
	tests := []struct {
		name        string
		frequencies []float64
		allZero     bool
	}{
		{"No tones", nil, true},
		{"Single tone", []float64{440}, false},
		{"Fifth", []float64{440, 660}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GenerateChord(testSize, testSampleRate, 1, tt.frequencies...)
			if len(result) != testSize {
				t.Fatalf("GenerateChord() size = %d, want %d", len(result), testSize)
			}
			peak := PeakAmplitude(result)
			if tt.allZero && peak != 0 {
				t.Errorf("GenerateChord() peak = %f, want 0", peak)
			}
			if !tt.allZero && (peak == 0 || peak > 1) {
				t.Errorf("GenerateChord() peak = %f, want (0, 1]", peak)
			}
		})
	}
}

func TestPeakAmplitude(t *testing.T) {
	if got := PeakAmplitude([]float32{0.1, -0.7, 0.5}); got != 0.7 {
		t.Errorf("PeakAmplitude() = %f, want 0.7", got)
	}
	if got := PeakAmplitude(nil); got != 0 {
		t.Errorf("PeakAmplitude(nil) = %f, want 0", got)
	}

	buffer := GenerateSineWave(testSize, testSampleRate, testFrequency, 1)
	allocs := testing.AllocsPerRun(100, func() {
		PeakAmplitude(buffer)
	})
	if allocs > 0 {
		t.Errorf("PeakAmplitude allocated memory: got %.1f allocs, want 0", allocs)
	}
}

func BenchmarkFillSineWave(b *testing.B) {
	buffer := make([]float32, 8192)
	b.ReportAllocs()
	for b.Loop() {
		FillSineWave(buffer, testSampleRate, testFrequency, 1, 0)
	}
}
