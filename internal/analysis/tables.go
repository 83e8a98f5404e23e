// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math"

	"tuner/pkg/bitint"
)

// Equal temperament reference.
const (
	ReferencePitch = 440.0 // A4 in Hz
	ReferenceMIDI  = 69    // MIDI number of A4
	MIDINotes      = 127   // MIDI numbers 0..126 are tabulated
	InTuneCents    = 0.01  // |cents| at or below this counts as in tune
)

// NoteNames are the pitch classes starting at C (MIDI 0 is a C).
var NoteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var (
	ErrWindowSize = errors.New("window size must be a power of 2 and at least 2")
	ErrSampleRate = errors.New("sample rate must be positive")
)

// NoteEntry is one slot of the note table. Empty slots have no Name.
type NoteEntry struct {
	Name  string
	Pitch float32
	MIDI  int
}

// Valid reports whether the slot holds a note.
func (e NoteEntry) Valid() bool {
	return e.Name != ""
}

// Tables holds the lookup tables computed once before the pipeline starts.
// They are read-only afterwards; Freq[i] and Notes[i] describe the same bin.
type Tables struct {
	SampleRate float64
	WindowSize int
	Freq       []float32   // Center frequency of bin i, len WindowSize/2.
	Window     []float32   // Window coefficients, len WindowSize.
	Notes      []NoteEntry // Note assigned to bin i, len WindowSize/2.
}

// BuildTables computes the frequency table, window coefficients and the
// bin→note table for the given sample rate and window size.
func BuildTables(sampleRate float64, windowSize int, windowType WindowFunc) (*Tables, error) {
	if windowSize < 2 || !bitint.IsPowerOfTwo(windowSize) {
		return nil, fmt.Errorf("%w, got %d", ErrWindowSize, windowSize)
	}
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w, got %f", ErrSampleRate, sampleRate)
	}

	bins := windowSize / 2
	t := &Tables{
		SampleRate: sampleRate,
		WindowSize: windowSize,
		Freq:       make([]float32, bins),
		Window:     WindowCoefficients(windowSize, windowType),
		Notes:      make([]NoteEntry, bins),
	}

	for i := range bins {
		t.Freq[i] = BinFrequency(i, sampleRate, windowSize)
	}

	nyquist := sampleRate / 2
	for n := range MIDINotes {
		pitch := NotePitch(n)
		if float64(pitch) > nyquist {
			break
		}

		// Linear scan, the first bin wins a tie.
		minDiff := float32(math.MaxFloat32)
		index := -1
		for j, f := range t.Freq {
			diff := abs32(f - pitch)
			if diff < minDiff {
				minDiff = diff
				index = j
			}
		}
		if index != -1 {
			t.Notes[index] = NoteEntry{Name: NoteNames[n%12], Pitch: pitch, MIDI: n}
		}
	}

	return t, nil
}

// BinFrequency returns the center frequency of bin i.
func BinFrequency(i int, sampleRate float64, windowSize int) float32 {
	return float32(float64(i) * sampleRate / float64(windowSize))
}

// NotePitch returns the equal-temperament pitch of MIDI note n.
func NotePitch(n int) float32 {
	return float32(ReferencePitch * math.Pow(2, float64(n-ReferenceMIDI)/12))
}

// Bins returns the number of non-redundant spectral bins.
func (t *Tables) Bins() int {
	return len(t.Freq)
}

// PopulatedNotes counts the slots that hold a note.
func (t *Tables) PopulatedNotes() int {
	count := 0
	for _, e := range t.Notes {
		if e.Valid() {
			count++
		}
	}
	return count
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
