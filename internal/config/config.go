// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the tuner. The analysis defaults reproduce the classic guitar tuner
// setup: 8 kHz mono capture, 8192-point window (~1 Hz bins), 330 Hz
// low-pass ahead of the FFT.
const (
	// Default values for the capture side
	DefaultSource        = SourceDevice // Live microphone
	DefaultDeviceID      = MinDeviceID  // System default input device
	DefaultSampleRate    = 8000         // Hz
	DefaultWindowSize    = 8192         // Samples per analysis block (power of 2)
	DefaultLowLatency    = false        // Use the device's high input latency
	DefaultToneFrequency = 440.0        // A4 for the synthetic source

	// Default values for the analysis chain
	DefaultCutoffHz   = 330.0  // Low-pass cutoff ahead of the FFT
	DefaultWindowFunc = "hann" // Window applied before the FFT
	DefaultNoiseFloor = 0.0    // Peak magnitude gate, 0 disables it

	// Presentation and logging
	DefaultDisplayMode     = DisplayTUI
	DefaultLogLevel        = "info"
	DefaultRecordBitDepth  = 16
	DefaultWebSocketAddr   = ":8080"
	DefaultUDPTarget       = "127.0.0.1:9090"
	DefaultUDPSendInterval = 100 * time.Millisecond

	// Hardware and processing limits
	MinDeviceID   = -1     // -1 represents system default device
	MinSampleRate = 4000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MinWindowSize = 2      // Smallest window the tables can describe
	MaxWindowSize = 65536  // Largest analysis window (power of 2)
)

// Capture sources.
const (
	SourceDevice = "device" // PortAudio input stream
	SourceWAV    = "wav"    // WAV file, analysed block by block
	SourceTone   = "tone"   // Synthetic sine, no audio hardware needed
)

// Display modes.
const (
	DisplayTUI   = "tui"   // Full-screen tuning meter
	DisplayPlain = "plain" // Meter text printed to stdout
	DisplayNone  = "none"  // Detections only reach the transports
)

// NewConfig creates a Config populated with default values. LoadConfig starts
// from this before applying the YAML file and environment overrides.
func NewConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			Source:        DefaultSource,
			InputDevice:   DefaultDeviceID,
			SampleRate:    DefaultSampleRate,
			WindowSize:    DefaultWindowSize,
			LowLatency:    DefaultLowLatency,
			ToneFrequency: DefaultToneFrequency,
		},
		Analysis: AnalysisConfig{
			CutoffHz:   DefaultCutoffHz,
			Window:     DefaultWindowFunc,
			NoiseFloor: DefaultNoiseFloor,
		},
		Recording: RecordingConfig{
			Enabled:  false,
			BitDepth: DefaultRecordBitDepth,
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddr:    DefaultWebSocketAddr,
			UDPEnabled:       false,
			UDPTargetAddress: DefaultUDPTarget,
			UDPSendInterval:  DefaultUDPSendInterval,
		},
		Display: DisplayConfig{
			Mode: DefaultDisplayMode,
		},
	}
}
