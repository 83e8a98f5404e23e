// SPDX-License-Identifier: MIT
package audio

import "errors"

// ErrInputOverflowed reports that samples were lost before Read was called.
// The block is still filled, with a gap before it, and the source remains
// usable.
var ErrInputOverflowed = errors.New("input overflowed")

// Source delivers fixed-size blocks of mono float32 samples. Read fills the
// whole block or returns an error; finite sources return io.EOF once
// exhausted. Close releases the source and is safe to call more than once.
type Source interface {
	Start() error
	Read(block []float32) error
	Close() error
}

// SourceName returns a human-readable description of src for the opening
// message, or an empty string when src does not provide one.
func SourceName(src Source) string {
	if n, ok := src.(interface{ Name() string }); ok {
		return n.Name()
	}
	return ""
}
