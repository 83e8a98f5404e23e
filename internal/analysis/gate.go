// SPDX-License-Identifier: MIT
package analysis

// Gate suppresses detections whose peak magnitude falls below a noise floor.
// The zero value is disabled, which keeps every peak, including those of
// silence and broadband noise.
type Gate struct {
	enabled   bool
	threshold float32 // Peak magnitude squared, same units as Detection.Magnitude.
}

// NewGate returns a gate enabled when threshold is positive.
func NewGate(threshold float64) Gate {
	var g Gate
	g.SetThreshold(threshold)
	return g
}

func (g *Gate) Enable() {
	g.enabled = true
}

func (g *Gate) Disable() {
	g.enabled = false
}

// SetThreshold sets the noise floor. Negative values clamp to 0, and a
// threshold of 0 disables the gate.
func (g *Gate) SetThreshold(threshold float64) {
	if threshold < 0 {
		threshold = 0
	}
	g.threshold = float32(threshold)
	g.enabled = threshold > 0
}

// Threshold returns the current noise floor.
func (g *Gate) Threshold() float64 {
	return float64(g.threshold)
}

// Enabled reports whether the gate filters detections.
func (g *Gate) Enabled() bool {
	return g.enabled
}

// Apply marks d as gated and clears its note when the gate is enabled and the
// peak is below the threshold.
func (g *Gate) Apply(d Detection) Detection {
	if !g.enabled || d.Magnitude >= g.threshold {
		return d
	}
	d.Gated = true
	d.Found = false
	d.Note = ""
	d.Pitch = 0
	d.Cents = 0
	return d
}
