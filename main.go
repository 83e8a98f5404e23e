// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"tuner/cmd"
	"tuner/internal/analysis"
	"tuner/internal/audio"
	"tuner/internal/config"
	applog "tuner/internal/log"
	"tuner/internal/transport"
	"tuner/internal/transport/udp"
	"tuner/internal/tui"
	"tuner/pkg/build"
)

// main is the entry point for the tuner.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and the configuration file
//   - Execute one-off commands if requested
//   - Build the lookup tables, filter, FFT and capture source
//
// 2. Concurrent Phase (Hot Path):
//   - Run the analysis engine on its own locked OS thread
//   - Fan detections out to the meter and network transports
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals or the meter's quit key
//   - Stop recording if active
//   - Release the source, FFT and transports
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		applog.Debugf("Build: %v (development build)", err)
	}

	cfg, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg == nil {
		return // help or version
	}

	if err := applog.Configure(cfg.LogLevel, cfg.Debug); err != nil {
		applog.Warnf("Configuration: %v", err)
	}

	// SIGHUP is included so closing the terminal stops the stream cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		applog.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	switch cfg.Command {
	case cmd.CommandList:
		return audio.ListDevices(os.Stdout)

	case cmd.CommandListTUI:
		sel, err := tui.StartDeviceListUI(cfg.Audio.SampleRate)
		if err != nil {
			return fmt.Errorf("device list failed: %w", err)
		}
		if !sel.Confirmed {
			return nil
		}
		cfg.Audio.Source = config.SourceDevice
		cfg.Audio.InputDevice = sel.DeviceID
		cfg.Audio.SampleRate = sel.SampleRate
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid selection: %w", err)
		}
	}

	return runTuner(ctx, cfg)
}

func runTuner(ctx context.Context, cfg *config.Config) error {
	// The analysis runs at the file's own rate; the tables are built for it.
	if cfg.Audio.Source == config.SourceWAV {
		info, err := audio.ProbeWAV(cfg.Audio.InputFile)
		if err != nil {
			return err
		}
		if float64(info.SampleRate) != cfg.Audio.SampleRate {
			applog.Infof("Tuner: Using the input file's sample rate (%d Hz)", info.SampleRate)
			cfg.Audio.SampleRate = float64(info.SampleRate)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration for %s: %w", cfg.Audio.InputFile, err)
			}
		}
	}

	sampleRate := cfg.Audio.SampleRate
	windowSize := cfg.Audio.WindowSize

	windowFunc, err := analysis.ParseWindowFunc(cfg.Analysis.Window)
	if err != nil {
		return err
	}
	tables, err := analysis.BuildTables(sampleRate, windowSize, windowFunc)
	if err != nil {
		return fmt.Errorf("failed to build lookup tables: %w", err)
	}
	filter := analysis.NewLowPass(sampleRate, cfg.Analysis.CutoffHz)
	applog.Infof("Tuner: %.0f Hz, %d-sample window (%.3f Hz per bin), %d notes, low-pass %.0f Hz",
		sampleRate, windowSize, sampleRate/float64(windowSize), tables.PopulatedNotes(), cfg.Analysis.CutoffHz)

	if cfg.Audio.Source == config.SourceDevice {
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()
	}

	transform, err := analysis.NewFourierTransform(windowSize)
	if err != nil {
		return err
	}

	src, err := openSource(cfg)
	if err != nil {
		transform.Close()
		return err
	}

	var recorder *audio.Recorder
	if cfg.Recording.Enabled {
		recorder, err = audio.NewRecorder(src, sampleRate, cfg.Recording.BitDepth)
		if err == nil {
			err = recorder.StartRecording(cfg.Recording.OutputFile)
		}
		if err != nil {
			src.Close()
			transform.Close()
			return err
		}
		src = recorder
	}

	engine, err := audio.NewEngine(src, tables, filter, transform)
	if err != nil {
		return err
	}
	defer engine.Close()
	engine.SetGate(analysis.NewGate(cfg.Analysis.NoiseFloor))

	sinks, meter, err := openSinks(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			applog.Warnf("Tuner: Error closing transports: %v", err)
		}
	}()

	name := audio.SourceName(src)
	applog.Infof("Tuner: Opening %s", name)
	if meter == nil {
		fmt.Printf("Opening %s\n", name)
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	restoreLogs := func() {}
	if meter != nil {
		restoreLogs, err = redirectLogs(cfg.LogFile)
		if err != nil {
			return err
		}
	}

	errc := make(chan error, 1)
	go func() {
		err := engine.Run(ctx, func(d analysis.Detection) error {
			// A slow or broken presentation must not stop the analysis.
			if err := sinks.Send(d); err != nil && !errors.Is(err, transport.ErrClosed) {
				applog.Warnf("Tuner: Delivery failed: %v", err)
			}
			return nil
		})
		if meter != nil {
			meter.Close()
		}
		errc <- err
	}()

	if meter != nil {
		err := meter.Run(name, cancel)
		cancel()
		restoreLogs()
		if err != nil {
			<-errc
			return fmt.Errorf("meter failed: %w", err)
		}
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	runErr := <-errc

	if recorder != nil {
		// The engine closed the recorder; the file is finalized.
		fmt.Printf("\nRecording saved to: %s\n", cfg.Recording.OutputFile)
	}
	if n := engine.Overflows(); n > 0 {
		applog.Warnf("Tuner: Input overflowed %d times", n)
	}
	applog.Infof("Tuner: Analysed %d blocks", engine.Blocks())

	return runErr
}

// openSource creates the configured capture source. It is started by the
// engine.
func openSource(cfg *config.Config) (audio.Source, error) {
	a := cfg.Audio
	switch a.Source {
	case config.SourceWAV:
		return audio.NewWAVSource(a.InputFile, a.SampleRate), nil
	case config.SourceTone:
		tone := audio.NewToneSource(a.SampleRate, a.ToneFrequency)
		tone.Paced = true
		return tone, nil
	default:
		return audio.NewStreamSource(a.InputDevice, a.SampleRate, a.WindowSize, a.LowLatency)
	}
}

// openSinks builds the presentation fan-out. The returned meter is non-nil
// when the full-screen display is selected; it is also part of the sinks.
func openSinks(cfg *config.Config) (transport.Multi, *tui.Meter, error) {
	var (
		sinks transport.Multi
		meter *tui.Meter
	)

	fail := func(err error) (transport.Multi, *tui.Meter, error) {
		sinks.Close()
		return nil, nil, err
	}

	if cfg.Display.Mode != config.DisplayPlain {
		sinks = append(sinks, transport.NewLoggingTransport())
	}

	if cfg.Transport.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddr)
		if err != nil {
			return fail(err)
		}
		applog.Infof("Tuner: WebSocket clients can connect to ws://%s/ws", ws.Addr())
		sinks = append(sinks, ws)
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return fail(err)
		}
		publisher, err := udp.NewUDPPublisher(cfg.Transport.UDPSendInterval, sender)
		if err != nil {
			sender.Close()
			return fail(err)
		}
		publisher.Start()
		sinks = append(sinks, publisher)
	}

	switch cfg.Display.Mode {
	case config.DisplayTUI:
		meter = tui.NewMeter()
		sinks = append(sinks, meter)
	case config.DisplayPlain:
		sinks = append(sinks, tui.NewPlainPrinter(os.Stdout, true))
	}

	return sinks, meter, nil
}

// redirectLogs sends log output to path, or discards it when path is empty,
// while the meter owns the terminal. restore puts stderr back.
func redirectLogs(path string) (restore func(), err error) {
	if path == "" {
		applog.SetOutput(io.Discard)
		return func() { applog.SetOutput(os.Stderr) }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	applog.SetOutput(f)
	return func() {
		applog.SetOutput(os.Stderr)
		f.Close()
	}, nil
}
