// Package report writes spectra, evoked responses and per-channel
// summaries to spreadsheets.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/cwbudde/algo-eeg/dsp/spectrum"
	"github.com/cwbudde/algo-eeg/eeg"
	"github.com/cwbudde/algo-eeg/eeg/epochs"
	"github.com/cwbudde/algo-eeg/eeg/psd"
	tstats "github.com/cwbudde/algo-eeg/stats/time"
)

// WritePSD writes a PSD sheet with the channel-mean density of every series
// in dB, plus one sheet per series with the per-channel densities. All
// series must share a frequency axis.
func WritePSD(path string, series ...psd.Series) error {
	if len(series) == 0 {
		return fmt.Errorf("%w: no spectra to write", eeg.ErrInvalidParameter)
	}
	freqs := series[0].Spectrum.Freqs
	for _, s := range series[1:] {
		if len(s.Spectrum.Freqs) != len(freqs) {
			return fmt.Errorf("%w: series %q has %d bins, want %d",
				eeg.ErrInvalidParameter, s.Name, len(s.Spectrum.Freqs), len(freqs))
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	const summary = "PSD"
	if err := f.SetSheetName(f.GetSheetName(0), summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	header := []any{"Frequency (Hz)"}
	means := make([][]float64, len(series))
	for i, s := range series {
		header = append(header, s.Name+" (dB)")
		means[i] = psd.DB(s.Spectrum.Mean())
	}
	if err := setRow(f, summary, 1, header); err != nil {
		return err
	}
	for k, fr := range freqs {
		row := []any{fr}
		for i := range series {
			row = append(row, means[i][k])
		}
		if err := setRow(f, summary, k+2, row); err != nil {
			return err
		}
	}

	for _, s := range series {
		if err := writeChannelSpectra(f, s); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}

func writeChannelSpectra(f *excelize.File, s psd.Series) error {
	sheet := sheetName(s.Name)
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	header := []any{"Frequency (Hz)"}
	for _, ch := range s.Spectrum.Channels {
		header = append(header, ch)
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	db := make([][]float64, len(s.Spectrum.Density))
	for c, d := range s.Spectrum.Density {
		db[c] = psd.DB(d)
	}
	for k, fr := range s.Spectrum.Freqs {
		row := []any{fr}
		for c := range db {
			row = append(row, db[c][k])
		}
		if err := setRow(f, sheet, k+2, row); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvoked writes the evoked response in microvolts, one column per
// channel, against time in milliseconds.
func WriteEvoked(path string, ev *epochs.Evoked) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(ev.Label)
	if sheet == "" {
		sheet = "Evoked"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	header := []any{"Time (ms)"}
	for _, ch := range ev.Channels {
		header = append(header, ch)
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, t := range ev.Times() {
		row := []any{t * 1e3}
		for c := range ev.Data {
			row = append(row, ev.Data[c][i]*1e6)
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetCellValue(sheet, cell(len(header)+2, 1), "Averaged epochs"); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := f.SetCellValue(sheet, cell(len(header)+3, 1), ev.NAve); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}

// ChannelSummary holds amplitude statistics of one channel.
type ChannelSummary struct {
	Channel string
	Kind    eeg.Kind
	Bad     bool
	Stats   tstats.Stats
	// LineAmplitude is the amplitude at the mains frequency, in volts.
	LineAmplitude float64
}

// Summarize computes per-channel statistics and the residual amplitude at
// lineFreq. A zero lineFreq skips the line measurement.
func Summarize(rec *eeg.Recording, lineFreq float64) ([]ChannelSummary, error) {
	out := make([]ChannelSummary, rec.NumChannels())
	data := rec.Data()
	for i := range out {
		out[i] = ChannelSummary{
			Channel: rec.Channel(i),
			Kind:    rec.Kind(i),
			Bad:     rec.IsBad(i),
			Stats:   tstats.Calculate(data[i]),
		}
		if lineFreq > 0 {
			amp, err := spectrum.LineAmplitude(data[i], lineFreq, rec.Rate())
			if err != nil {
				return nil, fmt.Errorf("report: channel %s: %w", rec.Channel(i), err)
			}
			out[i].LineAmplitude = amp
		}
	}
	return out, nil
}

// WriteChannels writes one row per channel summary, amplitudes in
// microvolts.
func WriteChannels(path string, rows []ChannelSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Channels"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	header := []any{"Channel", "Kind", "Bad", "Mean (uV)", "Std (uV)", "RMS (uV)",
		"Peak-to-peak (uV)", "Skewness", "Kurtosis", "Line (uV)"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		row := []any{
			r.Channel, r.Kind.String(), r.Bad,
			r.Stats.Mean * 1e6, r.Stats.Std * 1e6, r.Stats.RMS * 1e6, r.Stats.PeakToPeak * 1e6,
			r.Stats.Skewness, r.Stats.Kurtosis, r.LineAmplitude * 1e6,
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	if err := f.SetSheetRow(sheet, cell(1, row), &values); err != nil {
		return fmt.Errorf("report: sheet %s row %d: %w", sheet, row, err)
	}
	return nil
}

func cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(err)
	}
	return name
}

// sheetName trims names to the 31 characters a sheet name allows and drops
// characters excelize rejects.
func sheetName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		out = append(out, r)
		if len(out) == 31 {
			break
		}
	}
	return string(out)
}
