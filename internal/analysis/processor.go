// SPDX-License-Identifier: MIT
package analysis

// Transform is the frequency-domain transform the spectral analyzer runs on
// each block. It is created once at startup and closed once at shutdown.
type Transform interface {
	// Forward computes the spectrum of a real-valued block whose length is
	// Size(). The imaginary input is implicitly zero. dst is reused when it
	// has room for Size()/2+1 values, otherwise a new slice is returned.
	Forward(dst []complex128, block []float32) []complex128
	// Size returns the number of points of the transform (a power of 2).
	Size() int
	// Close releases the transform's resources. Calling it twice is a no-op.
	Close() error
}

// Detection is the result of analysing one block.
type Detection struct {
	Frequency float32 `json:"frequency"`       // Center frequency of the peak bin (Hz).
	Bin       int     `json:"bin"`             // Peak bin index.
	Magnitude float32 `json:"magnitude"`       // Peak magnitude squared (re²+im²).
	Note      string  `json:"note,omitempty"`  // Nearest note name, empty when none was found.
	Pitch     float32 `json:"pitch,omitempty"` // Exact equal-temperament pitch of the nearest note (Hz).
	Cents     float32 `json:"cents"`           // Signed deviation from Pitch; positive is sharp.
	Found     bool    `json:"found"`           // A nearest note was resolved.
	Gated     bool    `json:"gated,omitempty"` // Peak fell below the configured noise floor.
}

// InTune reports whether a resolved note is within InTuneCents of its pitch.
func (d Detection) InTune() bool {
	return d.Found && d.Cents <= InTuneCents && d.Cents >= -InTuneCents
}
