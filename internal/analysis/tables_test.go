// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSampleRate = 8000.0
	testWindowSize = 8192
)

func newTestTables(t *testing.T) *Tables {
	t.Helper()
	tables, err := BuildTables(testSampleRate, testWindowSize, Hann)
	require.NoError(t, err)
	return tables
}

func TestBuildTablesFrequencyTable(t *testing.T) {
	tables := newTestTables(t)

	require.Len(t, tables.Freq, testWindowSize/2)
	assert.Equal(t, testWindowSize/2, tables.Bins())
	assert.Zero(t, tables.Freq[0])

	for i, f := range tables.Freq {
		want := float32(float64(i) * testSampleRate / testWindowSize)
		if f != want {
			t.Fatalf("Freq[%d] = %f, want %f", i, f, want)
		}
		if i > 0 && f <= tables.Freq[i-1] {
			t.Fatalf("Freq not increasing at %d: %f <= %f", i, f, tables.Freq[i-1])
		}
	}
	assert.InDelta(t, 0.9765625, tables.Freq[1], 1e-7)
}

func TestBuildTablesHannWindow(t *testing.T) {
	tables := newTestTables(t)
	n := testWindowSize

	require.Len(t, tables.Window, n)
	assert.InDelta(t, 0, tables.Window[0], 1e-7)
	assert.InDelta(t, 0, tables.Window[n-1], 1e-7)

	for _, i := range []int{1, 100, n / 4, n / 2, n - 2} {
		want := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		assert.InDelta(t, want, tables.Window[i], 1e-6, "coefficient %d", i)
	}
	for i := range n / 2 {
		assert.InDelta(t, tables.Window[i], tables.Window[n-1-i], 1e-6, "symmetry at %d", i)
	}
}

func TestBuildTablesNoteEntries(t *testing.T) {
	tables := newTestTables(t)
	resolution := testSampleRate / testWindowSize

	// A4 lands on the bin closest to 440 Hz.
	a4 := tables.Notes[451]
	assert.Equal(t, NoteEntry{Name: "A", Pitch: 440, MIDI: 69}, a4)

	seen := make(map[int]int)
	for i, e := range tables.Notes {
		if !e.Valid() {
			continue
		}
		assert.Equal(t, NoteNames[e.MIDI%12], e.Name, "bin %d", i)
		assert.Equal(t, NotePitch(e.MIDI), e.Pitch, "bin %d", i)
		assert.LessOrEqual(t, float64(e.Pitch), testSampleRate/2)
		assert.Equal(t, int(math.Round(float64(e.Pitch)/resolution)), i, "MIDI %d", e.MIDI)
		seen[e.MIDI] = i
	}

	// Low notes share bins at this resolution; from C1 upward every note has
	// its own slot.
	for n := 24; n <= 107; n++ {
		_, ok := seen[n]
		assert.True(t, ok, "MIDI %d missing", n)
	}
	_, ok := seen[108]
	assert.False(t, ok, "MIDI 108 is above Nyquist")

	distinct := make(map[int]struct{})
	for n := range MIDINotes {
		p := NotePitch(n)
		if float64(p) > testSampleRate/2 {
			break
		}
		distinct[int(math.Round(float64(p)/resolution))] = struct{}{}
	}
	assert.Equal(t, len(distinct), tables.PopulatedNotes())
}

func TestBuildTablesCollisionsLastWriteWins(t *testing.T) {
	tables := newTestTables(t)

	// MIDI 1 (8.66 Hz) and 2 (9.18 Hz) both round to bin 9 at 0.98 Hz/bin.
	assert.Equal(t, 2, tables.Notes[9].MIDI)
	assert.Equal(t, "D", tables.Notes[9].Name)
	assert.Equal(t, 0, tables.Notes[8].MIDI)
	assert.Equal(t, "C", tables.Notes[8].Name)
}

func TestBuildTablesFineResolution(t *testing.T) {
	tables, err := BuildTables(testSampleRate, 32768, Hann)
	require.NoError(t, err)

	below := 0
	for n := range MIDINotes {
		if float64(NotePitch(n)) <= testSampleRate/2 {
			below++
		}
	}
	assert.Equal(t, 108, below)
	assert.Equal(t, below, tables.PopulatedNotes())
}

func TestBuildTablesNyquistLimit(t *testing.T) {
	tables, err := BuildTables(1000, 1024, Hann)
	require.NoError(t, err)

	for i, e := range tables.Notes {
		if e.Valid() {
			assert.LessOrEqual(t, e.Pitch, float32(500), "bin %d", i)
		}
	}
	// B4 (493.9 Hz) is the last note below 500 Hz.
	idx, ok := tables.NearestNote(500)
	require.True(t, ok)
	assert.Equal(t, 71, tables.Notes[idx].MIDI)
}

func TestBuildTablesInvalid(t *testing.T) {
	tests := []struct {
		sampleRate float64
		windowSize int
		err        error
	}{
		{8000, 1000, ErrWindowSize},
		{8000, 0, ErrWindowSize},
		{8000, 1, ErrWindowSize},
		{0, 8192, ErrSampleRate},
		{-44100, 8192, ErrSampleRate},
		{math.NaN(), 8192, ErrSampleRate},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v/%d", tt.sampleRate, tt.windowSize), func(t *testing.T) {
			tables, err := BuildTables(tt.sampleRate, tt.windowSize, Hann)
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, tables)
		})
	}
}

func TestNotePitch(t *testing.T) {
	tests := []struct {
		midi int
		want float64
	}{
		{69, 440},
		{57, 220},
		{81, 880},
		{60, 261.6256},
		{0, 8.1758},
		{40, 82.4069},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.midi), func(t *testing.T) {
			assert.InDelta(t, tt.want, NotePitch(tt.midi), 1e-3)
		})
	}
}
