// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"time"

	"tuner/internal/config"
	"tuner/pkg/build"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// One-off commands that replace the tuner run.
const (
	CommandList    = "list"     // Print the audio devices and exit.
	CommandListTUI = "list-tui" // Pick a device interactively, then tune.
)

// flagValues receives the command line. Only flags the user set are copied
// onto the loaded configuration, so file and environment values survive.
type flagValues struct {
	configFile string

	source        string
	deviceID      int
	sampleRate    float64
	windowSize    int
	lowLatency    bool
	inputFile     string
	toneFrequency float64

	cutoff     float64
	window     string
	noiseFloor float64

	record     bool
	outputFile string
	bitDepth   int

	websocket     bool
	websocketAddr string
	udp           bool
	udpTarget     string

	display  string
	verbose  bool
	logLevel string
	logFile  string

	listTUI bool
}

// ParseArgs parses args into the tuner configuration. It returns a nil
// Config without error when the invocation only printed help or the version.
func ParseArgs(args []string) (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	flags := &flagValues{}
	var options *config.Config

	load := func(cmd *cobra.Command, command string) error {
		cfg, err := config.LoadConfig(flags.configFile)
		if err != nil {
			return err
		}
		flags.apply(cmd.Flags(), cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg.Command = command
		options = cfg
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, "")
		},
	}
	rootCmd.SetVersionTemplate(buildInfo.String() + "\n")

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.listTUI {
				return load(cmd, CommandListTUI)
			}
			return load(cmd, CommandList)
		},
	}
	listCmd.Flags().BoolVar(&flags.listTUI, "tui", false,
		"Choose the input device and sample rate interactively, then start tuning")
	rootCmd.AddCommand(listCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "",
		"Path to a YAML configuration file (default: ./config.yaml if present)")

	// Audio Source Configuration
	pf.StringVar(&flags.source, "source", config.DefaultSource,
		"Capture source: device, wav or tone")
	pf.IntVarP(&flags.deviceID, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	pf.Float64VarP(&flags.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&flags.windowSize, "window-size", "n", config.DefaultWindowSize,
		"Samples per analysis block, also the FFT size (power of 2)")
	pf.BoolVarP(&flags.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")
	pf.StringVarP(&flags.inputFile, "input", "i", "",
		"Analyse a WAV file instead of a device (implies --source wav)")
	pf.Float64Var(&flags.toneFrequency, "tone", config.DefaultToneFrequency,
		"Analyse a synthetic sine of this frequency (implies --source tone)")

	// Analysis Configuration
	pf.Float64Var(&flags.cutoff, "cutoff", config.DefaultCutoffHz,
		"Low-pass cutoff frequency applied before the FFT (Hz)")
	pf.StringVar(&flags.window, "window", config.DefaultWindowFunc,
		"Window function: hann, hamming, blackman, blackmannuttall, bartletthann, lanczos, nuttall or rectangular")
	pf.Float64Var(&flags.noiseFloor, "noise-floor", config.DefaultNoiseFloor,
		"Minimum peak magnitude for a note to be reported (0 disables)")

	// Recording Configuration
	pf.BoolVarP(&flags.record, "record", "r", false,
		"Record the captured input to a WAV file")
	pf.StringVarP(&flags.outputFile, "output", "o", "",
		"Output file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")
	pf.IntVar(&flags.bitDepth, "bit-depth", config.DefaultRecordBitDepth,
		"Recording bit depth: 16, 24 or 32")

	// Transport Configuration
	pf.BoolVar(&flags.websocket, "websocket", false,
		"Broadcast detections as JSON over WebSocket")
	pf.StringVar(&flags.websocketAddr, "websocket-addr", config.DefaultWebSocketAddr,
		"Listen address for the WebSocket server")
	pf.BoolVar(&flags.udp, "udp", false,
		"Publish the latest detection over UDP")
	pf.StringVar(&flags.udpTarget, "udp-target", config.DefaultUDPTarget,
		"Target address for UDP packets")

	// Display and Debug Configuration
	pf.StringVar(&flags.display, "display", config.DefaultDisplayMode,
		"Display mode: tui, plain or none")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false,
		"Show verbose output")
	pf.StringVar(&flags.logLevel, "log-level", config.DefaultLogLevel,
		"Log level: debug, info, warn or error")
	pf.StringVar(&flags.logFile, "log-file", "",
		"Write logs here while the meter owns the terminal (default: discard)")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}

// apply copies every flag the user set onto cfg.
func (f *flagValues) apply(fs *pflag.FlagSet, cfg *config.Config) {
	set := fs.Changed

	if set("source") {
		cfg.Audio.Source = f.source
	}
	if set("device") {
		cfg.Audio.InputDevice = f.deviceID
	}
	if set("sample-rate") {
		cfg.Audio.SampleRate = f.sampleRate
	}
	if set("window-size") {
		cfg.Audio.WindowSize = f.windowSize
	}
	if set("low-latency") {
		cfg.Audio.LowLatency = f.lowLatency
	}
	if set("input") {
		cfg.Audio.InputFile = f.inputFile
		if !set("source") {
			cfg.Audio.Source = config.SourceWAV
		}
	}
	if set("tone") {
		cfg.Audio.ToneFrequency = f.toneFrequency
		if !set("source") {
			cfg.Audio.Source = config.SourceTone
		}
	}

	if set("cutoff") {
		cfg.Analysis.CutoffHz = f.cutoff
	}
	if set("window") {
		cfg.Analysis.Window = f.window
	}
	if set("noise-floor") {
		cfg.Analysis.NoiseFloor = f.noiseFloor
	}

	if set("record") {
		cfg.Recording.Enabled = f.record
	}
	if set("output") {
		cfg.Recording.OutputFile = f.outputFile
	}
	if set("bit-depth") {
		cfg.Recording.BitDepth = f.bitDepth
	}

	if set("websocket") {
		cfg.Transport.WebSocketEnabled = f.websocket
	}
	if set("websocket-addr") {
		cfg.Transport.WebSocketAddr = f.websocketAddr
	}
	if set("udp") {
		cfg.Transport.UDPEnabled = f.udp
	}
	if set("udp-target") {
		cfg.Transport.UDPTargetAddress = f.udpTarget
	}

	if set("display") {
		cfg.Display.Mode = f.display
	}
	if set("verbose") {
		cfg.Debug = f.verbose
	}
	if set("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if set("log-file") {
		cfg.LogFile = f.logFile
	}

	// Defaults
	if cfg.Recording.Enabled && cfg.Recording.OutputFile == "" {
		cfg.Recording.OutputFile = "recording-" +
			time.Now().UTC().Format("02-01-2006-150405") +
			".wav"
	}
}
