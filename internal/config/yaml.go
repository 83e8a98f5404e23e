// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	applog "tuner/internal/log"
	"tuner/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`             // Enable debug logging.
	LogLevel  string          `yaml:"log_level"`         // Logging level ("debug", "info", "warn", "error").
	LogFile   string          `yaml:"log_file"`          // Log destination while the TUI owns the terminal (empty discards).
	Command   string          `yaml:"command,omitempty"` // A one-off command to execute instead of running the tuner (e.g., "list").
	Audio     AudioConfig     `yaml:"audio"`             // Capture settings.
	Analysis  AnalysisConfig  `yaml:"analysis"`          // Filter, window and detection settings.
	Recording RecordingConfig `yaml:"recording"`         // Raw input recording.
	Transport TransportConfig `yaml:"transport"`         // Network publishing of detections.
	Display   DisplayConfig   `yaml:"display"`           // Terminal presentation.
}

// AudioConfig holds settings related to audio capture.
type AudioConfig struct {
	Source        string  `yaml:"source"`         // "device", "wav" or "tone".
	InputDevice   int     `yaml:"input_device"`   // PortAudio device index for audio input (-1 for default).
	SampleRate    float64 `yaml:"sample_rate"`    // Sample rate in Hz.
	WindowSize    int     `yaml:"window_size"`    // Samples per block, also the FFT size (power of 2).
	LowLatency    bool    `yaml:"low_latency"`    // Request the device's low input latency.
	InputFile     string  `yaml:"input_file"`     // WAV file for the "wav" source.
	ToneFrequency float64 `yaml:"tone_frequency"` // Frequency of the "tone" source in Hz.
}

// AnalysisConfig holds settings for the filter → window → FFT → note chain.
type AnalysisConfig struct {
	CutoffHz   float64 `yaml:"cutoff_hz"`   // Low-pass cutoff frequency in Hz.
	Window     string  `yaml:"window"`      // Window function name ("hann", "hamming", ...).
	NoiseFloor float64 `yaml:"noise_floor"` // Minimum peak magnitude for a detection, 0 disables the gate.
}

// RecordingConfig holds settings related to recording the raw input.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Record the captured input to a WAV file.
	OutputFile string `yaml:"output_file"` // Output path, generated from the current time when empty.
	BitDepth   int    `yaml:"bit_depth"`   // 16, 24 or 32.
}

// TransportConfig holds settings related to publishing detections over the network.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Broadcast detections as JSON over WebSocket.
	WebSocketAddr    string        `yaml:"websocket_addr"`     // Listen address for the WebSocket server.
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Publish the latest detection over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets.
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between UDP packets.
}

// DisplayConfig holds terminal presentation settings.
type DisplayConfig struct {
	Mode string `yaml:"mode"` // "tui", "plain" or "none".
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides. The result is not validated: callers layer command line flags on
// top and call Validate once on the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{
			"config.yaml",
			"tuner.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applog.Debugf("configuration: loaded %s", path)
	}

	// Environment variables win over the file.
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Validate checks the configuration for values the tuner cannot run with.
func (c *Config) Validate() error {
	a := c.Audio
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f out of range [%d, %d]", a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if !bitint.IsPowerOfTwo(a.WindowSize) {
		return fmt.Errorf("audio.window_size %d is not a power of 2 (try %d)", a.WindowSize, bitint.NextPowerOfTwo(a.WindowSize))
	}
	if a.WindowSize < MinWindowSize || a.WindowSize > MaxWindowSize {
		return fmt.Errorf("audio.window_size %d out of range [%d, %d]", a.WindowSize, MinWindowSize, MaxWindowSize)
	}
	if a.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device %d is invalid", a.InputDevice)
	}

	nyquist := a.SampleRate / 2
	switch a.Source {
	case SourceDevice:
	case SourceWAV:
		if a.InputFile == "" {
			return fmt.Errorf("audio.input_file must be set for the %q source", SourceWAV)
		}
	case SourceTone:
		if a.ToneFrequency <= 0 || a.ToneFrequency >= nyquist {
			return fmt.Errorf("audio.tone_frequency %.2f must be within (0, %.0f)", a.ToneFrequency, nyquist)
		}
	default:
		return fmt.Errorf("audio.source %q is not one of %s, %s, %s", a.Source, SourceDevice, SourceWAV, SourceTone)
	}

	if c.Analysis.CutoffHz <= 0 || c.Analysis.CutoffHz >= nyquist {
		return fmt.Errorf("analysis.cutoff_hz %.2f must be within (0, %.0f)", c.Analysis.CutoffHz, nyquist)
	}
	if c.Analysis.NoiseFloor < 0 {
		return fmt.Errorf("analysis.noise_floor must not be negative")
	}

	if c.Recording.Enabled {
		switch c.Recording.BitDepth {
		case 16, 24, 32:
		default:
			return fmt.Errorf("recording.bit_depth %d must be 16, 24 or 32", c.Recording.BitDepth)
		}
	}

	if c.Transport.WebSocketEnabled && c.Transport.WebSocketAddr == "" {
		return fmt.Errorf("transport.websocket_addr must be set when WebSocket is enabled")
	}
	if c.Transport.UDPEnabled {
		if _, _, err := net.SplitHostPort(c.Transport.UDPTargetAddress); err != nil {
			return fmt.Errorf("transport.udp_target_address '%s' appears invalid: %w", c.Transport.UDPTargetAddress, err)
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}

	switch c.Display.Mode {
	case DisplayTUI, DisplayPlain, DisplayNone:
	default:
		return fmt.Errorf("display.mode %q is not one of %s, %s, %s", c.Display.Mode, DisplayTUI, DisplayPlain, DisplayNone)
	}

	return nil
}

// applyEnvOverrides applies TUNER_* environment variables on top of the file
// values. Unparseable values are logged and ignored.
func (c *Config) applyEnvOverrides() {
	lookup := func(name string, apply func(string) error) {
		val, ok := os.LookupEnv(name)
		if !ok {
			return
		}
		if err := apply(val); err != nil {
			applog.Warnf("configuration: ignoring %s=%q: %v", name, val, err)
			return
		}
		applog.Debugf("configuration: overriding from %s=%q", name, val)
	}

	parseBool := func(dst *bool) func(string) error {
		return func(s string) error {
			v, err := strconv.ParseBool(s)
			if err == nil {
				*dst = v
			}
			return err
		}
	}
	parseFloat := func(dst *float64) func(string) error {
		return func(s string) error {
			v, err := strconv.ParseFloat(s, 64)
			if err == nil {
				*dst = v
			}
			return err
		}
	}
	parseInt := func(dst *int) func(string) error {
		return func(s string) error {
			v, err := strconv.Atoi(s)
			if err == nil {
				*dst = v
			}
			return err
		}
	}
	setString := func(dst *string) func(string) error {
		return func(s string) error {
			*dst = strings.TrimSpace(s)
			return nil
		}
	}

	lookup("TUNER_DEBUG", parseBool(&c.Debug))
	lookup("TUNER_LOG_LEVEL", setString(&c.LogLevel))

	lookup("TUNER_SOURCE", setString(&c.Audio.Source))
	lookup("TUNER_INPUT_DEVICE", parseInt(&c.Audio.InputDevice))
	lookup("TUNER_SAMPLE_RATE", parseFloat(&c.Audio.SampleRate))
	lookup("TUNER_WINDOW_SIZE", parseInt(&c.Audio.WindowSize))
	lookup("TUNER_CUTOFF_HZ", parseFloat(&c.Analysis.CutoffHz))

	lookup("TUNER_WEBSOCKET_ENABLED", parseBool(&c.Transport.WebSocketEnabled))
	lookup("TUNER_WEBSOCKET_ADDR", setString(&c.Transport.WebSocketAddr))
	lookup("TUNER_UDP_ENABLED", parseBool(&c.Transport.UDPEnabled))
	lookup("TUNER_UDP_TARGET_ADDRESS", setString(&c.Transport.UDPTargetAddress))
	lookup("TUNER_UDP_SEND_INTERVAL", func(s string) error {
		d, err := time.ParseDuration(s)
		if err == nil {
			c.Transport.UDPSendInterval = d
		}
		return err
	})
}
