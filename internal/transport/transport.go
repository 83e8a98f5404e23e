// SPDX-License-Identifier: MIT
package transport

import (
	"errors"

	"tuner/internal/analysis"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport closed")

// Sink receives a copy of every detection the pipeline produces.
// Implementations should be thread-safe and must not block the pipeline for
// longer than it takes to hand the value off.
type Sink interface {
	Send(d analysis.Detection) error
	Close() error
}

// Multi fans a detection out to several sinks. A failing sink does not stop
// delivery to the others; all errors are returned joined.
type Multi []Sink

func (m Multi) Send(d analysis.Detection) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink, in reverse order of registration.
func (m Multi) Close() error {
	var errs []error
	for i := len(m) - 1; i >= 0; i-- {
		if err := m[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Sink = Multi(nil)
