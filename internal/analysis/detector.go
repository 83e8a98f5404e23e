// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
)

// Detector runs the per-block chain: low-pass → window → FFT → peak → note.
// It owns the filter memory and the spectrum scratch buffer, so one Detector
// serves one stream from a single goroutine. Blocks are mutated in place.
type Detector struct {
	tables    *Tables
	filter    *LowPass
	transform Transform
	gate      Gate
	spectrum  []complex128
}

// NewDetector wires the chain. The transform must match the tables' window size.
func NewDetector(tables *Tables, filter *LowPass, transform Transform) (*Detector, error) {
	if tables == nil || filter == nil || transform == nil {
		return nil, fmt.Errorf("detector requires tables, filter and transform")
	}
	if transform.Size() != tables.WindowSize {
		return nil, fmt.Errorf("transform size %d does not match window size %d", transform.Size(), tables.WindowSize)
	}
	return &Detector{
		tables:    tables,
		filter:    filter,
		transform: transform,
		spectrum:  make([]complex128, tables.WindowSize/2+1),
	}, nil
}

// SetGate installs a noise-floor gate. The default gate is disabled.
func (d *Detector) SetGate(g Gate) {
	d.gate = g
}

// Tables returns the lookup tables the detector resolves against.
func (d *Detector) Tables() *Tables {
	return d.tables
}

// Detect filters and windows block in place, then analyses it.
func (d *Detector) Detect(block []float32) Detection {
	d.filter.ProcessBlock(block)
	ApplyWindow(block, d.tables.Window)
	return d.Analyze(block)
}

// Analyze runs the spectral analyzer and note resolver on a block that has
// already been filtered and windowed.
func (d *Detector) Analyze(block []float32) Detection {
	d.spectrum = d.transform.Forward(d.spectrum, block)
	bin, magnitude := PeakBin(d.spectrum, d.tables.Bins())
	return d.gate.Apply(d.tables.Resolve(bin, magnitude))
}
