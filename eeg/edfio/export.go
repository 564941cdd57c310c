package edfio

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/OpenPSG/edf"

	"github.com/cwbudde/algo-eeg/eeg"
)

const (
	digitalMin  = -32768
	digitalMax  = 32767
	maxLabelLen = 16
)

// Export writes rec as EDF with one-second data records, replacing any
// file at path. The applied filter band is stored in the prefiltering
// field and bad channels carry BAD in the transducer field. The final
// record is zero padded. Annotations are not written; use the store
// package to keep them.
func Export(path string, rec *eeg.Recording) error {
	rate := rec.Rate()
	perRecord := int(math.Round(rate))
	if math.Abs(rate-float64(perRecord)) > 1e-9 {
		return fmt.Errorf("%w: EDF export needs an integer sample rate, got %g", eeg.ErrInvalidParameter, rate)
	}

	hp, lp := rec.FilterBand()
	prefilter := ""
	if hp > 0 || lp > 0 {
		prefilter = fmt.Sprintf("HP:%gHz LP:%gHz", hp, lp)
	}

	data := rec.Data()
	scales := make([]float64, rec.NumChannels())
	signals := make([]edf.Signal, rec.NumChannels())
	for i := range signals {
		name := rec.Channel(i)
		if len(name) > maxLabelLen {
			return fmt.Errorf("%w: label %q longer than %d characters", eeg.ErrInvalidParameter, name, maxLabelLen)
		}
		scale, dim := 1.0, ""
		if k := rec.Kind(i); k == eeg.KindEEG || k == eeg.KindEOG {
			scale, dim = 1e6, "uV"
		}
		scales[i] = scale

		lo, hi := physicalRange(data[i], scale)
		transducer := strings.ToUpper(rec.Kind(i).String())
		if rec.IsBad(i) {
			transducer += " " + badMarker
		}
		signals[i] = edf.Signal{
			Label:             name,
			TransducerType:    transducer,
			PhysicalDimension: dim,
			PhysicalMin:       lo,
			PhysicalMax:       hi,
			DigitalMin:        digitalMin,
			DigitalMax:        digitalMax,
			Prefiltering:      prefilter,
			SamplesPerRecord:  perRecord,
		}
	}

	start := rec.StartTime()
	if start.IsZero() {
		start = time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	hdr := edf.Header{
		Version:            edf.Version0,
		PatientID:          "X X X X",
		RecordingID:        "Startdate X X X X",
		StartTime:          start,
		DataRecordDuration: time.Second,
		SignalCount:        len(signals),
		Signals:            signals,
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("edfio: %w", err)
	}
	defer f.Close()

	w, err := edf.Create(f, hdr)
	if err != nil {
		return fmt.Errorf("edfio: %w", err)
	}

	n := rec.NumSamples()
	record := make([][]float64, len(signals))
	for i := range record {
		record[i] = make([]float64, perRecord)
	}
	for start := 0; start < n; start += perRecord {
		for c := range record {
			for j := range record[c] {
				k := start + j
				if k < n {
					record[c][j] = data[c][k] * scales[c]
				} else {
					record[c][j] = 0
				}
			}
		}
		if err := w.WriteRecord(record); err != nil {
			return fmt.Errorf("edfio: record at sample %d: %w", start, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("edfio: %w", err)
	}
	return f.Close()
}

// physicalRange returns a range that covers the scaled samples and zero,
// widened when flat.
func physicalRange(row []float64, scale float64) (lo, hi float64) {
	for _, v := range row {
		lo = math.Min(lo, v*scale)
		hi = math.Max(hi, v*scale)
	}
	if hi-lo < 1e-6 {
		lo, hi = lo-1, hi+1
	}
	// The header keeps two decimals; round outwards.
	return math.Floor(lo*100) / 100, math.Ceil(hi*100) / 100
}
