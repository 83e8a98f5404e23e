// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Audio.SampleRate != DefaultSampleRate || cfg.Audio.WindowSize != DefaultWindowSize {
		t.Errorf("defaults not applied: %+v", cfg.Audio)
	}
	if cfg.Analysis.CutoffHz != DefaultCutoffHz {
		t.Errorf("cutoff = %f, want %f", cfg.Analysis.CutoffHz, DefaultCutoffHz)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: warn
audio:
  source: tone
  sample_rate: 16000
  window_size: 16384
  tone_frequency: 329.63
analysis:
  cutoff_hz: 500
  window: hamming
transport:
  udp_enabled: true
  udp_target_address: "127.0.0.1:7000"
  udp_send_interval: 250ms
display:
  mode: plain
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("log_level = %q, want warn", cfg.LogLevel)
	}
	if cfg.Audio.Source != SourceTone || cfg.Audio.SampleRate != 16000 || cfg.Audio.WindowSize != 16384 {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Audio.InputDevice != DefaultDeviceID {
		t.Errorf("unset fields should keep defaults, input_device = %d", cfg.Audio.InputDevice)
	}
	if cfg.Analysis.CutoffHz != 500 || cfg.Analysis.Window != "hamming" {
		t.Errorf("analysis = %+v", cfg.Analysis)
	}
	if cfg.Transport.UDPSendInterval != 250*time.Millisecond {
		t.Errorf("udp_send_interval = %v, want 250ms", cfg.Transport.UDPSendInterval)
	}
	if cfg.Display.Mode != DisplayPlain {
		t.Errorf("display.mode = %q, want plain", cfg.Display.Mode)
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, "audio:\n  window_size: 6000\n")

	// Loading leaves validation to the caller, so later layers can still
	// correct the value.
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Audio.WindowSize != 6000 {
		t.Fatalf("window size = %d, want the file value 6000", cfg.Audio.WindowSize)
	}

	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "try 8192") {
		t.Errorf("error should suggest the next power of 2: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TUNER_SAMPLE_RATE", "11025")
	t.Setenv("TUNER_WINDOW_SIZE", "4096")
	t.Setenv("TUNER_CUTOFF_HZ", "not-a-number")
	t.Setenv("TUNER_UDP_ENABLED", "true")
	t.Setenv("TUNER_UDP_SEND_INTERVAL", "50ms")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Audio.SampleRate != 11025 {
		t.Errorf("sample rate = %f, want 11025", cfg.Audio.SampleRate)
	}
	if cfg.Audio.WindowSize != 4096 {
		t.Errorf("window size = %d, want 4096", cfg.Audio.WindowSize)
	}
	if cfg.Analysis.CutoffHz != DefaultCutoffHz {
		t.Errorf("unparseable override should be ignored, cutoff = %f", cfg.Analysis.CutoffHz)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPSendInterval != 50*time.Millisecond {
		t.Errorf("transport = %+v", cfg.Transport)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"Defaults", func(c *Config) {}, ""},
		{"Sample rate too low", func(c *Config) { c.Audio.SampleRate = 1000 }, "audio.sample_rate"},
		{"Window not power of two", func(c *Config) { c.Audio.WindowSize = 1000 }, "not a power of 2"},
		{"Window too large", func(c *Config) { c.Audio.WindowSize = 1 << 20 }, "out of range"},
		{"Window of one", func(c *Config) { c.Audio.WindowSize = 1 }, "out of range"},
		{"Bad device", func(c *Config) { c.Audio.InputDevice = -5 }, "input_device"},
		{"Unknown source", func(c *Config) { c.Audio.Source = "mp3" }, "audio.source"},
		{"WAV without file", func(c *Config) { c.Audio.Source = SourceWAV }, "input_file"},
		{"WAV with file", func(c *Config) { c.Audio.Source = SourceWAV; c.Audio.InputFile = "a.wav" }, ""},
		{"Tone above Nyquist", func(c *Config) { c.Audio.Source = SourceTone; c.Audio.ToneFrequency = 5000 }, "tone_frequency"},
		{"Cutoff above Nyquist", func(c *Config) { c.Analysis.CutoffHz = 4000 }, "cutoff_hz"},
		{"Cutoff zero", func(c *Config) { c.Analysis.CutoffHz = 0 }, "cutoff_hz"},
		{"Negative noise floor", func(c *Config) { c.Analysis.NoiseFloor = -1 }, "noise_floor"},
		{"Bad bit depth", func(c *Config) { c.Recording.Enabled = true; c.Recording.BitDepth = 12 }, "bit_depth"},
		{"UDP without port", func(c *Config) { c.Transport.UDPEnabled = true; c.Transport.UDPTargetAddress = "localhost" }, "udp_target_address"},
		{"UDP zero interval", func(c *Config) { c.Transport.UDPEnabled = true; c.Transport.UDPSendInterval = 0 }, "udp_send_interval"},
		{"WebSocket without addr", func(c *Config) { c.Transport.WebSocketEnabled = true; c.Transport.WebSocketAddr = "" }, "websocket_addr"},
		{"Unknown display", func(c *Config) { c.Display.Mode = "gui" }, "display.mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
