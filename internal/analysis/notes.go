// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
)

// NearestNote returns the populated note slot whose bin frequency is closest
// to freq. The first slot wins a tie. ok is false only when the note table is
// empty.
func (t *Tables) NearestNote(freq float32) (index int, ok bool) {
	minDiff := float32(math.MaxFloat32)
	index = -1
	for i, e := range t.Notes {
		if !e.Valid() {
			continue
		}
		diff := abs32(t.Freq[i] - freq)
		if diff < minDiff {
			minDiff = diff
			index = i
		}
	}
	return index, index != -1
}

// Match resolves freq to its nearest tabulated note and the deviation from
// that note's exact pitch. A non-positive freq (the DC bin) has no pitch and
// never matches.
func (t *Tables) Match(freq float32) (note NoteEntry, cents float32, ok bool) {
	if freq <= 0 {
		return NoteEntry{}, 0, false
	}
	index, ok := t.NearestNote(freq)
	if !ok {
		return NoteEntry{}, 0, false
	}
	note = t.Notes[index]
	return note, Cents(freq, note.Pitch), true
}

// Cents returns the signed distance from pitch to freq in cents,
// 1200*log2(freq/pitch). Positive is sharp.
func Cents(freq, pitch float32) float32 {
	return float32(1200 * math.Log2(float64(freq)/float64(pitch)))
}

// Resolve builds the Detection for a peak at bin with the given magnitude.
func (t *Tables) Resolve(bin int, magnitude float32) Detection {
	d := Detection{Bin: bin, Magnitude: magnitude}
	if bin < 0 || bin >= len(t.Freq) {
		return d
	}
	d.Frequency = t.Freq[bin]

	note, cents, ok := t.Match(d.Frequency)
	if !ok {
		return d
	}
	d.Found = true
	d.Note = note.Name
	d.Pitch = note.Pitch
	d.Cents = cents
	return d
}
