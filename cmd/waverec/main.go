// Command waverec runs a wave acquisition session against a simulated
// sensor and prints rolling wave statistics per channel.
//
// Usage:
//
//	waverec [flags]
//
// Examples:
//
//	waverec
//	waverec -rate 50 -duration 30s -freq 0.25 -amp 1.5
//	waverec -channels 2 -noise 0.05 -model jonswap
//	waverec -verbose
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-wave/acquire"
	"github.com/cwbudde/algo-wave/source/sim"
	"github.com/cwbudde/algo-wave/spectrum"
)

var models = map[string]spectrum.Kind{
	"measured": spectrum.KindMeasuredFFT,
	"jonswap":  spectrum.KindJONSWAP,
	"pm":       spectrum.KindPiersonMoskowitz,
	"goda":     spectrum.KindGodaSVD,
}

func main() {
	rate := flag.Float64("rate", 20, "sampling rate in Hz")
	duration := flag.Duration("duration", 60*time.Second, "session length (0 runs until interrupted)")
	channels := flag.Int("channels", 1, "number of simulated channels")
	freq := flag.Float64("freq", 0.2, "simulated wave frequency in Hz")
	amp := flag.Float64("amp", 1.0, "simulated wave amplitude")
	noise := flag.Float64("noise", 0.02, "simulated noise amplitude")
	window := flag.Float64("window", 30, "statistics window in seconds")
	interval := flag.Float64("interval", 2, "statistics interval in seconds")
	model := flag.String("model", "measured", "spectral model: measured, jonswap, pm, goda")
	verbose := flag.Bool("verbose", false, "log acquisition internals")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: waverec [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a wave acquisition session against a simulated sensor\n")
		fmt.Fprintf(os.Stderr, "and prints rolling wave statistics per channel.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	kind, ok := models[strings.ToLower(*model)]
	if !ok {
		fmt.Fprintf(os.Stderr, "waverec: unknown spectral model %q\n", *model)
		os.Exit(2)
	}

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "waverec: %v\n", err)
			os.Exit(1)
		}
	}

	if err := run(*rate, *duration, *channels, *freq, *amp, *noise, *window, *interval, kind, logger); err != nil {
		fmt.Fprintf(os.Stderr, "waverec: %v\n", err)
		os.Exit(1)
	}
}

func run(rate float64, duration time.Duration, channels int, freq, amp, noise, window, interval float64, kind spectrum.Kind, logger *zap.Logger) error {
	source, err := sim.New(rate,
		sim.WithComponents(sim.Component{FrequencyHz: freq, Amplitude: amp}),
		sim.WithNoise(noise),
		sim.WithChannelPhase(0.5),
	)
	if err != nil {
		return err
	}

	ids := make([]int, channels)
	for i := range channels {
		ids[i] = i
	}

	cfg := acquire.Config{
		SamplingRateHz:            rate,
		ChannelIDs:                ids,
		BufferCapacity:            int(rate*window) * 2,
		StatisticsWindowSeconds:   window,
		StatisticsIntervalSeconds: interval,
		SpectralModel:             kind,
	}

	ctrl, err := acquire.NewController(cfg, source, logger)
	if err != nil {
		return err
	}

	events := ctrl.Subscribe()
	if err := ctrl.Start(); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	var timeout <-chan time.Time
	if duration > 0 {
		timeout = time.After(duration)
	}

	w := tabwriter.NewWriter(os.Stdout, 4, 4, 2, ' ', 0)
	fmt.Fprintln(w, "time\tch\twaves\tHmax\tHmean\tHs\tTmean\tTz\tfp [Hz]\tSNR [dB]\tsat\tgaps")

	done := false
	for !done {
		select {
		case ev, open := <-events:
			if !open {
				done = true
				break
			}
			printEvent(w, ev)
		case <-stop:
			done = true
		case <-timeout:
			done = true
		}
	}

	w.Flush()
	return ctrl.Stop()
}

func printEvent(w *tabwriter.Writer, ev acquire.Event) {
	switch ev.Type {
	case acquire.EventStatisticsReady:
		s := ev.Statistics
		fmt.Fprintf(w, "%s\t%d\t%d\t%.3f\t%.3f\t%.3f\t%.2f\t%.2f\t%.4f\t",
			ev.Time.Format("15:04:05"), ev.ChannelID, s.WaveCount,
			s.HMax, s.HMean, s.HSignificant, s.TMean, s.TZeroCrossing,
			s.SpectralPeakFrequency)
	case acquire.EventQualityUpdated:
		q := ev.Quality
		fmt.Fprintf(w, "%.1f\t%.2f\t%d\n", q.SNRdB, q.SaturationFraction, q.GapCount)
		w.Flush()
	case acquire.EventError:
		fmt.Fprintf(os.Stderr, "waverec: acquisition error: %v\n", ev.Err)
	}
}
