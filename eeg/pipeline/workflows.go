package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/cwbudde/algo-eeg/eeg"
	"github.com/cwbudde/algo-eeg/eeg/channels"
	"github.com/cwbudde/algo-eeg/eeg/epochs"
	"github.com/cwbudde/algo-eeg/eeg/filter"
	"github.com/cwbudde/algo-eeg/eeg/plot"
	"github.com/cwbudde/algo-eeg/eeg/psd"
	"github.com/cwbudde/algo-eeg/eeg/reference"
	"github.com/cwbudde/algo-eeg/eeg/report"
	"github.com/cwbudde/algo-eeg/internal/config"
)

// Workflow is one runnable sequence of stages.
type Workflow func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error)

// Workflows maps workflow names to their implementation.
var Workflows = map[string]Workflow{
	"pipeline":    Run,
	"inspect":     Inspect,
	"filters":     Filters,
	"psd":         PSD,
	"ica":         ICA,
	"epoching":    Epoching,
	"erp":         ERP,
	"rereference": Rereference,
	"badchannels": BadChannels,
}

// Names returns the registered workflow names, sorted.
func Names() []string {
	names := make([]string, 0, len(Workflows))
	for n := range Workflows {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named workflow.
func Lookup(name string) (Workflow, error) {
	w, ok := Workflows[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown workflow %q (have %v)", eeg.ErrInvalidParameter, name, Names())
	}
	return w, nil
}

type step struct {
	name string
	fn   func() error
}

// run executes steps in order and stops at the first error.
func (r *runner) run(ctx context.Context, steps ...step) (*Result, error) {
	for _, s := range steps {
		if err := r.stage(ctx, s.name, s.fn); err != nil {
			return r.res, err
		}
	}
	return r.res, nil
}

// Inspect loads the recording, plots it and reports per-channel
// statistics.
func Inspect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	r := newRunner(cfg, logger)
	return r.run(ctx,
		step{"load", r.load},
		step{"summary", func() error {
			if err := r.writeChannelReport(r.res.Raw); err != nil {
				return err
			}
			for _, c := range r.res.Channels {
				r.log.Debug("channel", "name", c.Channel, "kind", c.Kind.String(), "bad", c.Bad,
					"rms_uv", c.Stats.RMS*1e6, "line_uv", c.LineAmplitude*1e6)
			}
			return nil
		}},
	)
}

// Filters compares band-pass, high-pass, low-pass and notch variants of
// the recording, each computed from the unfiltered data.
func Filters(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	r := newRunner(cfg, logger)
	variants := map[string]*eeg.Recording{}
	variant := func(name string, fn func(*eeg.Recording) (*eeg.Recording, error)) step {
		return step{name, func() error {
			rec, err := fn(r.res.Raw)
			if err != nil {
				return err
			}
			variants[name] = rec
			return r.plotTraces(name, rec)
		}}
	}
	fc := cfg.Filter
	return r.run(ctx,
		step{"load", r.load},
		variant("bandpass", func(rec *eeg.Recording) (*eeg.Recording, error) {
			out, err := r.filterBand(rec, fc.Low, fc.High)
			r.res.Filtered = out
			return out, err
		}),
		variant("highpass", func(rec *eeg.Recording) (*eeg.Recording, error) {
			return r.filterBand(rec, fc.Low, 0)
		}),
		variant("lowpass", func(rec *eeg.Recording) (*eeg.Recording, error) {
			return r.filterBand(rec, 0, fc.High)
		}),
		variant("notch", func(rec *eeg.Recording) (*eeg.Recording, error) {
			opts, err := r.filterOptions()
			if err != nil {
				return nil, err
			}
			out, err := filter.Notch(rec, cfg.Notch.Freqs, opts...)
			if err == nil {
				r.log.Info("notch applied", "freqs", cfg.Notch.Freqs)
			}
			return out, err
		}),
		step{"spectra", func() error {
			variants["raw"] = r.res.Raw
			return r.spectra(variants, "raw", "bandpass", "notch")
		}},
	)
}

// PSD compares the spectrum before and after band-pass filtering.
func PSD(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	r := newRunner(cfg, logger)
	variants := map[string]*eeg.Recording{}
	return r.run(ctx,
		step{"load", r.load},
		step{"band-pass", func() error {
			if err := r.bandPass(); err != nil {
				return err
			}
			variants["bandpass"] = r.res.Filtered
			return nil
		}},
		step{"spectra", func() error {
			variants["raw"] = r.res.Raw
			return r.spectra(variants, "raw", "bandpass")
		}},
	)
}

// spectra estimates the PSD of each named variant, then plots and reports
// them together.
func (r *runner) spectra(variants map[string]*eeg.Recording, names ...string) error {
	pc := psd.Config{FMin: r.cfg.PSD.FMin, FMax: r.cfg.PSD.FMax, NFFT: r.cfg.PSD.NFFT}
	series := make([]psd.Series, len(names))
	for i, name := range names {
		rec, ok := variants[name]
		if !ok {
			return fmt.Errorf("%w: no recording for spectrum %q", eeg.ErrInvalidParameter, name)
		}
		s, err := psd.Compute(rec, pc)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		series[i] = psd.Series{Name: name, Spectrum: s}
		r.log.Info("spectrum estimated", "series", name, "channels", len(s.Channels), "peak_hz", s.PeakFrequency())
	}
	r.res.Spectra = series
	if err := r.plotFile("psd", func(path string) error { return plot.PSD(path, series...) }); err != nil {
		return err
	}
	if r.cfg.Output.Reports == "" {
		return nil
	}
	return r.writeFile(r.cfg.Output.Reports, "psd.xlsx", func(p string) error { return report.WritePSD(p, series...) })
}

// ICA removes the fallback components from the band-passed recording
// without consulting an EOG channel.
func ICA(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	r := newRunner(cfg, logger)
	return r.run(ctx,
		step{"load", r.load},
		step{"montage", r.applyMontage},
		step{"band-pass", r.bandPass},
		step{"ica", func() error {
			ic, err := r.fitICA(r.res.Filtered)
			if err != nil {
				return err
			}
			r.res.UsedFallback = true
			if err := ic.SetExclude(cfg.ICA.Fallback...); err != nil {
				return err
			}
			if err := r.plotSources(ic, r.res.Filtered); err != nil {
				return err
			}
			clean, err := ic.Apply(r.res.Filtered)
			if err != nil {
				return err
			}
			r.res.Cleaned = clean
			r.log.Info("ica applied", "excluded", ic.Exclude())
			return r.plotTraces("cleaned", clean)
		}},
	)
}

// Epoching cuts the configured condition from the unfiltered recording. A
// missing condition is fatal.
func Epoching(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	r := newRunner(cfg, logger)
	return r.run(ctx,
		step{"load", r.load},
		step{"events", func() error { r.deriveEvents(r.res.Raw); return nil }},
		step{"epochs", func() error { return r.extractEpochs(r.res.Raw, true) }},
	)
}

// ERP averages the configured condition into an evoked response.
func ERP(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	res, err := Epoching(ctx, cfg, logger)
	if err != nil {
		return res, err
	}
	r := newRunner(cfg, logger)
	r.res = res
	return r.run(ctx, step{"evoked", func() error {
		ev, err := epochs.Average(res.Epochs)
		if err != nil {
			return err
		}
		res.Evoked = ev
		r.log.Info("evoked response computed", "label", ev.Label, "epochs", ev.NAve)
		if err := r.plotFile("evoked", func(path string) error { return plot.Evoked(path, ev) }); err != nil {
			return err
		}
		if cfg.Output.Reports == "" {
			return nil
		}
		return r.writeFile(cfg.Output.Reports, "evoked.xlsx", func(p string) error { return report.WriteEvoked(p, ev) })
	}})
}

// Rereference applies the average reference.
func Rereference(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	r := newRunner(cfg, logger)
	return r.run(ctx,
		step{"load", r.load},
		step{"reference", func() error {
			rec, err := reference.Average(r.res.Raw)
			if err != nil {
				return err
			}
			r.res.Cleaned = rec
			r.log.Info("average reference applied", "channels", len(rec.GoodIndices(eeg.KindEEG)))
			return r.plotTraces("rereferenced", rec)
		}},
	)
}

// BadChannels marks the configured candidates and interpolates them from
// their neighbours.
func BadChannels(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	r := newRunner(cfg, logger)
	return r.run(ctx,
		step{"load", r.load},
		step{"montage", r.applyMontage},
		step{"bad channels", func() error {
			rec, absent := channels.MarkBad(r.res.Raw, cfg.Bads.Channels...)
			for _, name := range absent {
				r.log.Info("bad-channel candidate not in recording", "channel", name)
			}
			r.res.AbsentBads = absent
			r.res.Filtered = rec
			r.log.Info("bad channels marked", "channels", rec.Bads())
			return r.plotTraces("bads", rec)
		}},
		step{"interpolate", func() error {
			rec, err := r.interpolate(r.res.Filtered)
			if err != nil {
				return err
			}
			r.res.Cleaned = rec
			return r.plotTraces("interpolated", rec)
		}},
	)
}
