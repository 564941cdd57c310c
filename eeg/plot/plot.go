// Package plot renders recordings, spectra, epochs and ICA sources as
// image files. The format follows the file extension (png, svg, pdf).
package plot

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cwbudde/algo-eeg/eeg"
	"github.com/cwbudde/algo-eeg/eeg/epochs"
	"github.com/cwbudde/algo-eeg/eeg/psd"
)

// Default figure size.
const (
	Width  = 10 * vg.Inch
	Height = 6 * vg.Inch
)

var (
	traceColor = color.RGBA{R: 30, G: 60, B: 120, A: 255}
	badColor   = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	epochColor = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	palette    = []color.Color{
		color.RGBA{R: 31, G: 119, B: 180, A: 255},
		color.RGBA{R: 255, G: 127, B: 14, A: 255},
		color.RGBA{R: 44, G: 160, B: 44, A: 255},
		color.RGBA{R: 214, G: 39, B: 40, A: 255},
		color.RGBA{R: 148, G: 103, B: 189, A: 255},
		color.RGBA{R: 140, G: 86, B: 75, A: 255},
	}
)

// Traces draws up to seconds of every channel of rec stacked vertically,
// bad channels in red. A non-positive seconds draws the whole recording.
func Traces(path string, rec *eeg.Recording, seconds float64) error {
	n := rec.NumSamples()
	if seconds > 0 {
		n = min(n, int(seconds*rec.Rate()))
	}
	p := plot.New()
	p.Title.Text = "Channels"
	p.X.Label.Text = "Time (s)"

	data := rec.Data()
	rows := make([][]float64, rec.NumChannels())
	for i := range rows {
		rows[i] = data[i][:n]
	}
	colors := make([]color.Color, len(rows))
	for i := range colors {
		colors[i] = traceColor
		if rec.IsBad(i) {
			colors[i] = badColor
		}
	}
	if err := stack(p, rows, rec.Channels(), colors, rec.Rate()); err != nil {
		return err
	}
	return save(p, path)
}

// Sources draws up to seconds of ICA source time courses stacked
// vertically, excluded components in red.
func Sources(path string, sources [][]float64, rate, seconds float64, exclude []int) error {
	p := plot.New()
	p.Title.Text = "ICA sources"
	p.X.Label.Text = "Time (s)"

	names := make([]string, len(sources))
	colors := make([]color.Color, len(sources))
	rows := make([][]float64, len(sources))
	for i, s := range sources {
		names[i] = fmt.Sprintf("ICA%03d", i)
		colors[i] = traceColor
		n := len(s)
		if seconds > 0 {
			n = min(n, int(seconds*rate))
		}
		rows[i] = s[:n]
	}
	for _, e := range exclude {
		if e >= 0 && e < len(colors) {
			colors[e] = badColor
		}
	}
	if err := stack(p, rows, names, colors, rate); err != nil {
		return err
	}
	return save(p, path)
}

// PSD draws the channel-mean density of each series in dB.
func PSD(path string, series ...psd.Series) error {
	if len(series) == 0 {
		return fmt.Errorf("%w: no spectra to plot", eeg.ErrInvalidParameter)
	}
	p := plot.New()
	p.Title.Text = "Power spectral density"
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = "dB"

	for i, s := range series {
		db := psd.DB(s.Spectrum.Mean())
		xys := make(plotter.XYs, 0, len(db))
		for k, v := range db {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				continue
			}
			xys = append(xys, plotter.XY{X: s.Spectrum.Freqs[k], Y: v})
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("plot: %s: %w", s.Name, err)
		}
		l.Color = palette[i%len(palette)]
		p.Add(l)
		p.Legend.Add(s.Name, l)
	}
	p.Add(plotter.NewGrid())
	return save(p, path)
}

// Epochs overlays every epoch of one channel in grey with their mean in
// black.
func Epochs(path string, ep *epochs.Epochs, channel string) error {
	c, ok := ep.ChannelIndex(channel)
	if !ok {
		return fmt.Errorf("%w: %q", eeg.ErrUnknownChannel, channel)
	}
	if ep.Len() == 0 {
		return fmt.Errorf("%w: no epochs to plot", eeg.ErrInvalidParameter)
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s epochs, %s (n=%d)", ep.Label, channel, ep.Len())
	p.X.Label.Text = "Time (ms)"
	p.Y.Label.Text = "uV"

	times := ep.Times()
	mean := make([]float64, len(times))
	for _, win := range ep.Data {
		l, err := plotter.NewLine(series(times, win[c], 1e3, 1e6))
		if err != nil {
			return fmt.Errorf("plot: %w", err)
		}
		l.Color = epochColor
		p.Add(l)
		for i, v := range win[c] {
			mean[i] += v / float64(ep.Len())
		}
	}
	l, err := plotter.NewLine(series(times, mean, 1e3, 1e6))
	if err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	l.Width = vg.Points(2)
	p.Add(l)
	p.Legend.Add("mean", l)
	return save(p, path)
}

// Evoked draws a butterfly plot of the good EEG channels of ev.
func Evoked(path string, ev *epochs.Evoked) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (n=%d)", ev.Label, ev.NAve)
	p.X.Label.Text = "Time (ms)"
	p.Y.Label.Text = "uV"

	bad := make(map[string]bool, len(ev.Bads))
	for _, b := range ev.Bads {
		bad[b] = true
	}
	times := ev.Times()
	drawn := 0
	for c, row := range ev.Data {
		if bad[ev.Channels[c]] || (ev.Kinds != nil && ev.Kinds[c] != eeg.KindEEG) {
			continue
		}
		l, err := plotter.NewLine(series(times, row, 1e3, 1e6))
		if err != nil {
			return fmt.Errorf("plot: %w", err)
		}
		l.Color = palette[drawn%len(palette)]
		p.Add(l)
		drawn++
	}
	if drawn == 0 {
		return fmt.Errorf("%w: no good EEG channels to plot", eeg.ErrInvalidParameter)
	}
	p.Add(plotter.NewGrid())
	return save(p, path)
}

// stack draws rows offset from one another, labelling the y axis with
// names.
func stack(p *plot.Plot, rows [][]float64, names []string, colors []color.Color, rate float64) error {
	spacing := 0.0
	for _, r := range rows {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range r {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if len(r) > 0 {
			spacing = math.Max(spacing, hi-lo)
		}
	}
	if spacing == 0 {
		spacing = 1
	}

	ticks := make([]plot.Tick, len(rows))
	for i, r := range rows {
		offset := -float64(i) * spacing
		xys := make(plotter.XYs, len(r))
		for j, v := range r {
			xys[j] = plotter.XY{X: float64(j) / rate, Y: v + offset}
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("plot: %s: %w", names[i], err)
		}
		l.Color = colors[i]
		p.Add(l)
		ticks[i] = plot.Tick{Value: offset, Label: names[i]}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	return nil
}

func series(x, y []float64, xs, ys float64) plotter.XYs {
	xys := make(plotter.XYs, len(y))
	for i := range y {
		xys[i] = plotter.XY{X: x[i] * xs, Y: y[i] * ys}
	}
	return xys
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("plot: save %s: %w", path, err)
	}
	return nil
}
