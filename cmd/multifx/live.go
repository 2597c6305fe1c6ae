package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/cwbudde/algo-multifx/dsp/effectchain"
	"github.com/cwbudde/algo-multifx/dsp/window"
	"github.com/cwbudde/algo-multifx/internal/control"
	"github.com/cwbudde/algo-multifx/internal/control/httpapi"
	"github.com/cwbudde/algo-multifx/internal/host"
	"github.com/cwbudde/algo-multifx/internal/meter"
	"github.com/cwbudde/algo-multifx/internal/params"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/portmididrv" // registers the MIDI driver
)

var (
	liveHTTP string
	liveMIDI string
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Run the chain on the default audio device",
	Long: `Live opens the default duplex audio stream and processes it until
interrupted. The order and parameters can be changed over HTTP and MIDI.

HTTP endpoints:
  GET  /order            current and applied order
  PUT  /order            {"order": "chorus>phaser"}
  POST /order/move       {"from": 0, "to": 3}
  POST /order/toggle     {"option": "overdrive"}
  GET  /params           every parameter
  PUT  /params/{id}      {"value": 0.5} or {"text": "HPF24"}
  GET  /meter            peaks and spectrum

MIDI: program changes select order presets, control changes from the
configured base set parameters in layout order.

Example:
  multifx live --http :8080 --midi "IAC Driver Bus 1"`,
	RunE: runLive,
}

func init() {
	liveCmd.Flags().StringVar(&liveHTTP, "http", "", "HTTP control address (overrides config)")
	liveCmd.Flags().StringVar(&liveMIDI, "midi", "", "MIDI input port (overrides config)")
}

func runLive(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("http") {
		cfg.HTTP.Addr = liveHTTP
	}

	if cmd.Flags().Changed("midi") {
		cfg.MIDI.Port = liveMIDI
	}

	presets, err := cfg.Presets()
	if err != nil {
		return err
	}

	store := params.NewStore()
	if err := store.Apply(cfg.Params); err != nil {
		return err
	}

	wt, err := window.ParseType(cfg.Meter.Window)
	if err != nil {
		return err
	}

	levels := meter.NewLevels()
	analyzer, err := meter.NewAnalyzer(cfg.SampleRate,
		meter.WithFFTSize(cfg.Meter.FFTSize),
		meter.WithWindow(wt),
	)
	if err != nil {
		return err
	}

	proc, err := effectchain.NewProcessor(effectchain.Config{
		Spec:          cfg.Spec(),
		InputChannels: cfg.InputChannels,
		QueueCapacity: cfg.QueueCapacity,
		InitialOrder:  cfg.Order,
		Params:        store,
		Tap:           meter.Taps{levels, analyzer},
	})
	if err != nil {
		return err
	}

	ctrl := control.ForProcessor(proc, store, control.WithLogger(log))

	device, err := host.NewLive(proc, host.WithLiveLogger(log))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	errc := make(chan error, 5)

	run := func(name string, f func(context.Context) error) {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if err := f(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errc <- fmt.Errorf("%s: %w", name, err)
				stop()
			}
		}()
	}

	run("control", ctrl.Run)
	run("analyzer", analyzer.Run)

	if cfg.HTTP.Addr != "" {
		srv := httpapi.New(ctrl, levels, analyzer, log)
		log.WithField("addr", cfg.HTTP.Addr).Info("http control enabled")

		run("http", func(ctx context.Context) error {
			return httpapi.Serve(ctx, cfg.HTTP.Addr, srv)
		})
	}

	if cfg.MIDI.Port != "" {
		defer midi.CloseDriver()

		surface := control.NewMIDISurface(ctrl, presets,
			control.WithChannel(cfg.MIDI.Channel),
			control.WithCCBase(cfg.MIDI.CCBase),
			control.WithMIDILogger(log),
		)

		run("midi", func(ctx context.Context) error {
			return surface.Listen(ctx, cfg.MIDI.Port)
		})
	}

	run("audio", device.Run)

	wg.Wait()
	close(errc)

	var errs []error
	for err := range errc {
		errs = append(errs, err)
	}

	stats := proc.Stats()
	log.WithField("blocks", stats.Blocks).
		WithField("orders", stats.OrdersApplied).
		Info("stopped")

	return errors.Join(errs...)
}
