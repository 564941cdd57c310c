package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cwbudde/algo-eeg/eeg"
	"github.com/cwbudde/algo-eeg/eeg/channels"
	"github.com/cwbudde/algo-eeg/eeg/edfio"
	"github.com/cwbudde/algo-eeg/eeg/epochs"
	"github.com/cwbudde/algo-eeg/eeg/filter"
	"github.com/cwbudde/algo-eeg/eeg/ica"
	"github.com/cwbudde/algo-eeg/eeg/montage"
	"github.com/cwbudde/algo-eeg/eeg/plot"
	"github.com/cwbudde/algo-eeg/eeg/psd"
	"github.com/cwbudde/algo-eeg/eeg/report"
	"github.com/cwbudde/algo-eeg/eeg/store"
	"github.com/cwbudde/algo-eeg/internal/config"
	"github.com/cwbudde/algo-eeg/internal/logging"
)

// Result collects what a workflow produced. Fields of stages a workflow
// does not run stay zero.
type Result struct {
	Raw      *eeg.Recording
	Filtered *eeg.Recording
	Cleaned  *eeg.Recording

	// MissingPositions lists EEG channels the montage lacks.
	MissingPositions []string
	// AbsentBads lists bad-channel candidates not in the recording.
	AbsentBads []string

	ICA *ica.ICA
	// EOGScores holds per-component correlations when the EOG detector ran.
	EOGScores    []float64
	UsedFallback bool

	Events   []epochs.Event
	EventMap epochs.EventMap
	// Epochs is nil when the configured label was absent and not required.
	Epochs *epochs.Epochs
	Evoked *epochs.Evoked

	Spectra  []psd.Series
	Channels []report.ChannelSummary

	// Files lists every file written, in order.
	Files []string
}

// Run executes the full preprocessing pipeline: load, montage, band-pass,
// bad channels, ICA with EOG detection or the fallback exclude list,
// events, epochs and save.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	r := newRunner(cfg, logger)
	res := r.res
	return r.run(ctx,
		step{"load", r.load},
		step{"montage", r.applyMontage},
		step{"band-pass", r.bandPass},
		step{"resample", r.resample},
		step{"bad channels", r.markBads},
		step{"ica", r.removeArtifacts},
		step{"interpolate", func() error {
			if !cfg.Bads.Interpolate {
				return nil
			}
			rec, err := r.interpolate(res.Cleaned)
			res.Cleaned = rec
			return err
		}},
		step{"events", func() error { r.deriveEvents(res.Cleaned); return nil }},
		step{"epochs", func() error { return r.extractEpochs(res.Cleaned, cfg.Epochs.RequireCondition) }},
		step{"save", r.save},
	)
}

type runner struct {
	cfg *config.Config
	log *slog.Logger
	res *Result
}

func newRunner(cfg *config.Config, logger *slog.Logger) *runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &runner{cfg: cfg, log: logger, res: &Result{}}
}

func (r *runner) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pipeline: %s: %w", name, err)
	}
	start := time.Now()
	if err := fn(); err != nil {
		return fmt.Errorf("pipeline: %s: %w", name, err)
	}
	r.log.Debug("stage done", "stage", name, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// Load reads an EDF/EDF+ file or a saved session, chosen by extension.
func Load(path string) (*eeg.Recording, error) {
	if strings.EqualFold(filepath.Ext(path), store.Extension) {
		return store.Load(path)
	}
	return edfio.Read(path)
}

func (r *runner) load() error {
	rec, err := Load(r.cfg.Input.Path)
	if err != nil {
		return err
	}
	r.res.Raw = rec
	r.log.Info("recording loaded",
		"path", r.cfg.Input.Path,
		"channels", rec.NumChannels(),
		"rate", rec.Rate(),
		logging.Samples(rec.NumSamples()),
		"duration", time.Duration(rec.Duration()*float64(time.Second)).Round(time.Millisecond),
		"annotations", len(rec.Annotations()))
	return r.plotTraces("raw", rec)
}

func (r *runner) applyMontage() error {
	if r.cfg.Montage.Name == "none" {
		return nil
	}
	onMissing, err := montage.ParseOnMissing(r.cfg.Montage.OnMissing)
	if err != nil {
		return err
	}
	rec, missing, err := montage.Apply(r.res.Raw, montage.Standard1020(), onMissing)
	if err != nil {
		return err
	}
	r.res.Raw = rec
	r.res.MissingPositions = missing
	if len(missing) > 0 && onMissing == montage.OnMissingWarn {
		r.log.Warn("channels without montage position", "montage", r.cfg.Montage.Name, "channels", missing)
	}
	r.log.Info("montage set", "montage", r.cfg.Montage.Name)
	return nil
}

func (r *runner) filterOptions() ([]filter.Option, error) {
	m, err := filter.ParseMethod(r.cfg.Filter.Method)
	if err != nil {
		return nil, err
	}
	return []filter.Option{filter.WithMethod(m), filter.WithIIROrder(r.cfg.Filter.IIROrder)}, nil
}

// filterBand returns rec filtered to [low, high]; a zero bound leaves that
// side open.
func (r *runner) filterBand(rec *eeg.Recording, low, high float64) (*eeg.Recording, error) {
	opts, err := r.filterOptions()
	if err != nil {
		return nil, err
	}
	b := filter.Band{Low: low, High: high}
	out, err := filter.Apply(rec, b, opts...)
	if err != nil {
		return nil, err
	}
	r.log.Info("filter applied", "band", b.String(), "method", r.cfg.Filter.Method)
	return out, nil
}

func (r *runner) bandPass() error {
	rec, err := r.filterBand(r.res.Raw, r.cfg.Filter.Low, r.cfg.Filter.High)
	if err != nil {
		return err
	}
	r.res.Filtered = rec
	return r.plotTraces("filtered", rec)
}

func (r *runner) resample() error {
	target := r.cfg.Filter.Resample
	if target <= 0 || target == r.res.Filtered.Rate() {
		return nil
	}
	rec, err := filter.Resample(r.res.Filtered, target)
	if err != nil {
		return err
	}
	r.log.Info("resampled", "from_hz", r.res.Filtered.Rate(), "to_hz", rec.Rate(), logging.Samples(rec.NumSamples()))
	r.res.Filtered = rec
	return nil
}

func (r *runner) markBads() error {
	rec, absent := channels.MarkBad(r.res.Filtered, r.cfg.Bads.Channels...)
	for _, name := range absent {
		r.log.Info("bad-channel candidate not in recording", "channel", name)
	}
	r.res.Filtered = rec
	r.res.AbsentBads = absent
	if bads := rec.Bads(); len(bads) > 0 {
		r.log.Info("bad channels marked", "channels", bads)
	} else {
		r.log.Info("no bad channels marked")
	}
	return r.plotTraces("bads", rec)
}

func (r *runner) fitICA(rec *eeg.Recording) (*ica.ICA, error) {
	ic, err := ica.Fit(rec, ica.Config{
		NComponents: r.cfg.ICA.Components,
		Seed:        r.cfg.ICA.Seed,
		MaxIter:     r.cfg.ICA.MaxIter,
	})
	if err != nil {
		return nil, err
	}
	iter, converged := ic.Iterations()
	lvl := slog.LevelInfo
	if !converged {
		lvl = slog.LevelWarn
	}
	r.log.Log(context.Background(), lvl, "ica fitted",
		"components", ic.NComponents(), "iterations", iter, "converged", converged)
	r.res.ICA = ic
	return ic, nil
}

// selectComponents runs the EOG detector when the configured EOG channel
// exists and otherwise uses the fallback list. Every index the detector
// returns is excluded.
func (r *runner) selectComponents(ic *ica.ICA, rec *eeg.Recording) error {
	ch := r.cfg.ICA.EOGChannel
	if _, ok := rec.ChannelIndex(ch); ch != "" && ok {
		ep, err := ica.CreateEOGEpochs(rec, ch)
		if err != nil {
			return err
		}
		inds, scores, err := ic.FindBadsEOG(ep, ch, r.cfg.ICA.Threshold)
		if err != nil {
			return err
		}
		r.res.EOGScores = scores
		r.log.Info("EOG components detected", "channel", ch, "blinks", ep.Len(), "components", inds)
		return ic.SetExclude(inds...)
	}

	r.res.UsedFallback = true
	r.log.Info("no EOG channel, using fallback components", "channel", ch, "components", r.cfg.ICA.Fallback)
	return ic.SetExclude(r.cfg.ICA.Fallback...)
}

func (r *runner) removeArtifacts() error {
	ic, err := r.fitICA(r.res.Filtered)
	if err != nil {
		return err
	}
	if err := r.selectComponents(ic, r.res.Filtered); err != nil {
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
}

func (r *runner) interpolate(rec *eeg.Recording) (*eeg.Recording, error) {
	out, err := channels.Interpolate(rec, channels.WithResetBads(true))
	if err != nil {
		return rec, err
	}
	r.log.Info("bad channels interpolated", "channels", rec.Bads())
	return out, nil
}

func (r *runner) deriveEvents(rec *eeg.Recording) {
	events, m := epochs.EventsFromAnnotations(rec)
	r.res.Events = events
	r.res.EventMap = m
	ids := make([]any, 0, 2*m.Len())
	for _, l := range m.Labels() {
		code, _ := m.Code(l)
		ids = append(ids, slog.Int(l, code))
	}
	r.log.Info("events derived", logging.Count(len(events)), slog.Group("event_id", ids...))
}

// extractEpochs extracts the configured condition. An absent label fails only
// when required.
func (r *runner) extractEpochs(rec *eeg.Recording, required bool) error {
	ec := r.cfg.Epochs
	opts := []epochs.Option{epochs.WithBaseline(ec.Baseline)}
	if ec.DropOutOfBounds {
		opts = append(opts, epochs.WithDropOutOfBounds())
	}
	if ec.RejectPeakToPeak > 0 {
		opts = append(opts, epochs.WithRejectPeakToPeak(ec.RejectPeakToPeak))
	}
	ep, err := epochs.Extract(rec, r.res.Events, r.res.EventMap, ec.Label,
		epochs.Window{TMin: ec.TMin, TMax: ec.TMax}, opts...)
	if errors.Is(err, eeg.ErrMissingCondition) && !required {
		r.log.Warn("condition not found, skipping epoching", "label", ec.Label, "available", r.res.EventMap.Labels())
		return nil
	}
	if err != nil {
		return err
	}
	r.res.Epochs = ep
	r.log.Info("epochs extracted", "label", ec.Label, logging.Count(ep.Len()), "dropped", len(ep.Dropped))
	if ep.Len() == 0 {
		return nil
	}
	return r.plotFile("epochs", func(path string) error {
		return plot.Epochs(path, ep, firstGoodEEG(ep.Channels, ep.Kinds, ep.Bads))
	})
}

func (r *runner) save() error {
	out := r.cfg.Output
	if err := store.Save(out.Session, r.res.Cleaned); err != nil {
		return err
	}
	r.wrote(out.Session)
	if out.EDF != "" {
		if err := edfio.Export(out.EDF, r.res.Cleaned); err != nil {
			return err
		}
		r.wrote(out.EDF)
	}
	if out.Reports != "" {
		if err := r.writeChannelReport(r.res.Cleaned); err != nil {
			return err
		}
		if r.res.Epochs != nil && r.res.Epochs.Len() > 0 {
			ev, err := epochs.Average(r.res.Epochs)
			if err != nil {
				return err
			}
			r.res.Evoked = ev
			if err := r.writeFile(out.Reports, "evoked.xlsx", func(p string) error { return report.WriteEvoked(p, ev) }); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *runner) writeChannelReport(rec *eeg.Recording) error {
	rows, err := report.Summarize(rec, r.cfg.Notch.LineFreq)
	if err != nil {
		return err
	}
	r.res.Channels = rows
	if r.cfg.Output.Reports == "" {
		return nil
	}
	return r.writeFile(r.cfg.Output.Reports, "channels.xlsx", func(p string) error { return report.WriteChannels(p, rows) })
}

func (r *runner) wrote(path string) {
	r.res.Files = append(r.res.Files, path)
	attrs := []any{"path", path}
	if info, err := os.Stat(path); err == nil {
		attrs = append(attrs, logging.Size(info.Size()))
	}
	r.log.Info("file written", attrs...)
}

func (r *runner) writeFile(dir, name string, write func(path string) error) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	if err := write(path); err != nil {
		return err
	}
	r.wrote(path)
	return nil
}

// plotFile renders one figure into the plot directory, if configured.
func (r *runner) plotFile(name string, draw func(path string) error) error {
	if r.cfg.Plots.Dir == "" {
		return nil
	}
	return r.writeFile(r.cfg.Plots.Dir, name+".png", draw)
}

func (r *runner) plotTraces(name string, rec *eeg.Recording) error {
	return r.plotFile(name, func(path string) error {
		return plot.Traces(path, rec, r.cfg.Plots.Seconds)
	})
}

func (r *runner) plotSources(ic *ica.ICA, rec *eeg.Recording) error {
	if r.cfg.Plots.Dir == "" {
		return nil
	}
	src, err := ic.Sources(rec)
	if err != nil {
		return err
	}
	return r.plotFile("ica_sources", func(path string) error {
		return plot.Sources(path, src, rec.Rate(), r.cfg.Plots.Seconds, ic.Exclude())
	})
}

func firstGoodEEG(names []string, kinds []eeg.Kind, bads []string) string {
	for i, n := range names {
		if kinds != nil && kinds[i] != eeg.KindEEG {
			continue
		}
		bad := false
		for _, b := range bads {
			if b == n {
				bad = true
				break
			}
		}
		if !bad {
			return n
		}
	}
	return names[0]
}
