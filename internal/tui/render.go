// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"tuner/internal/analysis"
	"tuner/internal/transport"
)

// Header is the first line of every meter frame.
const Header = "Tuner listening. Control-C to exit."

// barChars is the width of each half of the tuning bar.
const barChars = 30

// RenderStatus returns the peak line, e.g. "440.429688 Hz, 451 : 1234.000000".
// The magnitude is scaled by 1000.
func RenderStatus(d analysis.Detection) string {
	return fmt.Sprintf("%f Hz, %d : %f", d.Frequency, d.Bin, d.Magnitude*1000)
}

// RenderCents describes the deviation: "x cents sharp.", "x cents flat." or
// "in tune!".
func RenderCents(cents float32) string {
	switch {
	case abs(cents) <= analysis.InTuneCents:
		return "in tune!"
	case cents > 0:
		return fmt.Sprintf("%f cents sharp.", cents)
	default:
		return fmt.Sprintf("%f cents flat.", -cents)
	}
}

// RenderBar draws the tuning indicator: flat deviation fills the left half
// with '=' toward the note name, sharp deviation fills the right half, one
// character per cent up to 30.
func RenderBar(note string, cents float32) string {
	var sb strings.Builder

	if abs(cents) < analysis.InTuneCents || cents >= 0 {
		sb.WriteString(strings.Repeat(" ", barChars))
	} else {
		pad := int(barChars + cents)
		if pad < 0 {
			pad = 0
		}
		sb.WriteString(strings.Repeat(" ", pad))
		sb.WriteString(strings.Repeat("=", barChars-pad))
	}

	fmt.Fprintf(&sb, " %2s ", note)

	if abs(cents) > analysis.InTuneCents && cents > 0 {
		sb.WriteString(strings.Repeat("=", min(barChars, int(cents))))
	}
	return sb.String()
}

// RenderBody returns the lines below the header for one detection.
func RenderBody(d analysis.Detection) string {
	var sb strings.Builder
	sb.WriteString(RenderStatus(d))
	sb.WriteString("\n")

	if !d.Found {
		sb.WriteString("No note detected.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Nearest Note: %s\n", d.Note)
	sb.WriteString(RenderCents(d.Cents))
	sb.WriteString("\n\n")
	sb.WriteString(RenderBar(d.Note, d.Cents))
	sb.WriteString("\n")
	return sb.String()
}

// RenderText returns a full meter frame as plain text.
func RenderText(d analysis.Detection) string {
	return Header + "\n" + RenderBody(d)
}

func abs(x float32) float32 {
	return float32(math.Abs(float64(x)))
}

// clearScreen moves the cursor home after clearing the terminal.
const clearScreen = "\033[2J\033[1;1H"

// PlainPrinter writes a meter frame to w for every detection, without taking
// over the terminal.
type PlainPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	clear bool
}

// NewPlainPrinter returns a printer writing to w. With clear set, each frame
// first clears the screen, redrawing in place on a terminal.
func NewPlainPrinter(w io.Writer, clear bool) *PlainPrinter {
	return &PlainPrinter{w: w, clear: clear}
}

func (p *PlainPrinter) Send(d analysis.Detection) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	frame := RenderText(d)
	if p.clear {
		frame = clearScreen + frame
	}
	_, err := io.WriteString(p.w, frame)
	return err
}

func (p *PlainPrinter) Close() error {
	return nil
}

var _ transport.Sink = (*PlainPrinter)(nil)
