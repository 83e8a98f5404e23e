// SPDX-License-Identifier: MIT
/*
Package audio implements the capture side of the tuner and the pipeline
loop that drives it:
- Blocking capture from PortAudio, WAV files or a synthetic tone
- Per-block pitch detection on a single goroutine
- WAV recording of the raw input with atomic state management

Thread Safety:
- Uses atomic operations for state management
- Pre-allocates the block buffer to avoid GC in the hot path
- Locks the OS thread while the capture loop runs
*/
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	"tuner/internal/analysis"
	applog "tuner/internal/log"
)

// State is the lifecycle of an Engine.
type State int32

const (
	Idle State = iota
	Running
	Stopping
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Engine reads blocks from a Source, runs each through the detector and
// hands the result to an emit callback. It owns the source and the
// transform and releases both exactly once, whichever way Run exits.
type Engine struct {
	source    Source
	transform analysis.Transform
	detector  *analysis.Detector
	block     []float32 // Reused for every read.

	state     atomic.Int32
	blocks    atomic.Uint64
	overflows atomic.Uint64

	releaseOnce sync.Once
}

// NewEngine builds the detector for the given tables, filter and transform.
// The engine takes ownership of src and transform; if construction fails
// both are closed before returning.
func NewEngine(src Source, tables *analysis.Tables, filter *analysis.LowPass, transform analysis.Transform) (*Engine, error) {
	if src == nil {
		if transform != nil {
			transform.Close()
		}
		return nil, errors.New("engine requires a source")
	}

	detector, err := analysis.NewDetector(tables, filter, transform)
	if err != nil {
		src.Close()
		if transform != nil {
			transform.Close()
		}
		return nil, fmt.Errorf("failed to build detector: %w", err)
	}

	return &Engine{
		source:    src,
		transform: transform,
		detector:  detector,
		block:     make([]float32, tables.WindowSize),
	}, nil
}

// SetGate installs a noise-floor gate. Call before Run.
func (e *Engine) SetGate(g analysis.Gate) {
	e.detector.SetGate(g)
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Blocks returns the number of blocks analysed so far.
func (e *Engine) Blocks() uint64 {
	return e.blocks.Load()
}

// Overflows returns the number of reads that reported lost input.
func (e *Engine) Overflows() uint64 {
	return e.overflows.Load()
}

// Run starts the source and processes blocks until ctx is cancelled, the
// source is exhausted (io.EOF), or a read or emit fails. Cancellation and
// exhaustion are normal stops and return nil. Cancellation is observed
// between blocks, so Run returns at most one block after ctx is done.
func (e *Engine) Run(ctx context.Context, emit func(analysis.Detection) error) error {
	if !e.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return fmt.Errorf("engine cannot run from state %s", e.State())
	}
	defer e.release()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := e.source.Start(); err != nil {
		return fmt.Errorf("failed to start source: %w", err)
	}
	applog.Debugf("Engine: Running (Window: %d)", len(e.block))

	for {
		if err := ctx.Err(); err != nil {
			applog.Debugf("Engine: Stop requested (%v)", err)
			return nil
		}

		err := e.source.Read(e.block)
		switch {
		case err == nil:
		case errors.Is(err, ErrInputOverflowed):
			// Samples were lost ahead of this block; analyse it anyway.
			n := e.overflows.Add(1)
			applog.Warnf("Engine: Input overflowed (%d so far)", n)
		case errors.Is(err, io.EOF):
			applog.Infof("Engine: Source exhausted after %d blocks", e.blocks.Load())
			return nil
		default:
			return fmt.Errorf("failed to read source: %w", err)
		}

		d := e.detector.Detect(e.block)
		e.blocks.Add(1)

		if emit != nil {
			if err := emit(d); err != nil {
				return fmt.Errorf("failed to emit detection: %w", err)
			}
		}
	}
}

// Close releases the source and transform if Run has not already done so.
func (e *Engine) Close() error {
	e.release()
	return nil
}

func (e *Engine) release() {
	e.releaseOnce.Do(func() {
		e.state.Store(int32(Stopping))
		if err := e.source.Close(); err != nil {
			applog.Warnf("Engine: Error closing source: %v", err)
		}
		if err := e.transform.Close(); err != nil {
			applog.Warnf("Engine: Error closing transform: %v", err)
		}
		e.state.Store(int32(Terminated))
		applog.Debugf("Engine: Terminated (Blocks: %d, Overflows: %d)", e.blocks.Load(), e.overflows.Load())
	})
}
