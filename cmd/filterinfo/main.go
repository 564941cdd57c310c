// Command filterinfo prints the design and magnitude response of the EEG
// band-pass filter.
//
// Usage:
//
//	filterinfo [flags] [frequency ...]
//
// Without frequency arguments it evaluates a default grid up to Nyquist.
//
// Examples:
//
//	filterinfo
//	filterinfo -low 0.5 -high 30 -rate 500
//	filterinfo -method iir -order 6 1 10 40 50
//	filterinfo -config eegprep.yaml
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/cwbudde/algo-eeg/eeg/filter"
	"github.com/cwbudde/algo-eeg/internal/config"
)

func main() {
	defaults := config.Default()
	configPath := flag.String("config", "", "YAML configuration file; flags set explicitly override it")
	rate := flag.Float64("rate", 250, "sample rate in Hz")
	low := flag.Float64("low", defaults.Filter.Low, "high-pass edge in Hz (0 for none)")
	high := flag.Float64("high", defaults.Filter.High, "low-pass edge in Hz (0 for none)")
	method := flag.String("method", defaults.Filter.Method, "filter method: fir or iir")
	order := flag.Int("order", defaults.Filter.IIROrder, "Butterworth order per edge for iir")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: filterinfo [flags] [frequency ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints the design and zero-phase magnitude response of the band-pass filter.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  filterinfo -low 0.5 -high 30 -rate 500\n")
		fmt.Fprintf(os.Stderr, "  filterinfo -method iir -order 6 1 10 40 50\n")
	}
	flag.Parse()

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		set := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if !set["low"] {
			*low = cfg.Filter.Low
		}
		if !set["high"] {
			*high = cfg.Filter.High
		}
		if !set["method"] {
			*method = cfg.Filter.Method
		}
		if !set["order"] {
			*order = cfg.Filter.IIROrder
		}
	}

	m, err := filter.ParseMethod(*method)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	d, err := filter.NewDesign(filter.Band{Low: *low, High: *high}, *rate, m, *order)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	freqs, err := parseFrequencies(flag.Args(), *rate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	printDesign(d)
	printResponse(d, freqs)
}

// parseFrequencies returns the requested frequencies or a default grid.
func parseFrequencies(args []string, rate float64) ([]float64, error) {
	if len(args) == 0 {
		nyq := rate / 2
		grid := []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 40, 45, 50, 60, 80, 100, 150, 200}
		var out []float64
		for _, f := range grid {
			if f < nyq {
				out = append(out, f)
			}
		}
		return out, nil
	}
	out := make([]float64, 0, len(args))
	for _, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("frequency %q: %w", a, err)
		}
		if f < 0 || f > rate/2 {
			return nil, fmt.Errorf("frequency %g outside [0, %g]", f, rate/2)
		}
		out = append(out, f)
	}
	return out, nil
}

func printDesign(d *filter.Design) {
	fmt.Printf("Band:    %s\n", d.Band)
	fmt.Printf("Method:  %s\n", d.Method)
	fmt.Printf("Rate:    %g Hz\n", d.Rate)
	if d.Method == filter.MethodFIR {
		fmt.Printf("Taps:    %d (%.3f s)\n", d.Length(), float64(d.Length())/d.Rate)
		if d.Band.Low > 0 {
			fmt.Printf("Low transition:  %g Hz (-6 dB at %g Hz)\n", d.LowTransition, d.Band.Low-d.LowTransition/2)
		}
		if d.Band.High > 0 {
			fmt.Printf("High transition: %g Hz (-6 dB at %g Hz)\n", d.HighTransition, d.Band.High+d.HighTransition/2)
		}
	} else {
		fmt.Printf("Order:   %d per edge, %d sections, forward-backward\n", d.Order, d.Length())
	}
	fmt.Println()
}

func printResponse(d *filter.Design, freqs []float64) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Frequency [Hz]\tGain [dB]\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}
	if _, err := fmt.Fprintf(tw, "--------------\t---------\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}
	for _, f := range freqs {
		if _, err := fmt.Fprintf(tw, "%g\t%.2f\n", f, d.MagnitudeDB(f)); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
			return
		}
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}
