// SPDX-License-Identifier: MIT
package transport

import (
	"sync"

	"tuner/internal/analysis"
	applog "tuner/internal/log"
)

// LoggingTransport logs each detection through the application logger.
type LoggingTransport struct {
	mu   sync.Mutex
	last string // Last note logged, to report changes at info level only.
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the detection. Note changes are logged at info level, repeats at
// debug level.
func (lt *LoggingTransport) Send(d analysis.Detection) error {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	switch {
	case d.Found && d.Note != lt.last:
		applog.Infof("Detection: %.2f Hz (bin %d) -> %s %+.2f cents", d.Frequency, d.Bin, d.Note, d.Cents)
	case d.Found && applog.Enabled(applog.LevelDebug):
		applog.Debugf("Detection: %.2f Hz (bin %d) -> %s %+.2f cents", d.Frequency, d.Bin, d.Note, d.Cents)
	case lt.last != "":
		applog.Infof("Detection: no note (peak %.2f Hz)", d.Frequency)
	}
	lt.last = d.Note
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("Transport: LoggingTransport closed")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Sink = (*LoggingTransport)(nil)
