package edfio

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ishiikurisu/edf"

	"github.com/cwbudde/algo-eeg/eeg"
)

// ErrMalformed reports an EDF file that could not be decoded.
var ErrMalformed = errors.New("edfio: malformed EDF file")

const (
	annotationLabel = "EDF Annotations"
	checksumLabel   = "Crc16"
	badMarker       = "BAD"
)

var (
	talRE  = regexp.MustCompile(`^\+(\d+(?:\.\d+)?)(?:[\s\x15]+(\d+(?:\.\d+)?))?[\s\x14]+(.+?)[\s\x14\x00]*$`)
	bandRE = regexp.MustCompile(`(HP|LP):\s*([\d.]+)\s*Hz`)
)

// Read loads an EDF or EDF+ file. Channel kinds are inferred from the
// labels, EDF+ annotations become recording annotations, and signals must
// share the sample rate of the first data signal.
func Read(path string) (rec *eeg.Recording, err error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("edfio: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, r)
		}
	}()

	data := edf.ReadFile(path)
	if data.GetDuration() <= 0 || data.GetSampling() <= 0 {
		return nil, fmt.Errorf("%w: %s: no sampling information", ErrMalformed, path)
	}
	rate := float64(data.GetSampling()) / data.GetDuration()

	labels := data.GetLabels()
	dims := fixedFields(data.Header, 8, "physicaldimension", "dimension")
	transducers := fixedFields(data.Header, 80, "transducer", "transducertype")
	prefilter := fixedFields(data.Header, 80, "prefiltering")

	var (
		names   []string
		kinds   []eeg.Kind
		rows    [][]float64
		bads    []string
		hp, lp  float64
		samples = -1
	)
	for i, series := range data.PhysicalRecords {
		if i >= len(labels) {
			break
		}
		name := strings.TrimSpace(labels[i])
		if name == annotationLabel || name == checksumLabel {
			continue
		}
		if samples < 0 {
			samples = len(series)
		} else if len(series) != samples {
			return nil, fmt.Errorf("%w: channel %s has %d samples, want %d (mixed sample rates)",
				eeg.ErrInvalidParameter, name, len(series), samples)
		}

		scale := unitScale(field(dims, i))
		row := make([]float64, len(series))
		for j, v := range series {
			row[j] = v * scale
		}
		names = append(names, name)
		kinds = append(kinds, eeg.InferKind(name))
		rows = append(rows, row)

		if strings.Contains(strings.ToUpper(field(transducers, i)), badMarker) {
			bads = append(bads, name)
		}
		if h, l := parseBand(field(prefilter, i)); hp == 0 && lp == 0 {
			hp, lp = h, l
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s: no data signals", ErrMalformed, path)
	}

	opts := []eeg.Option{
		eeg.WithKinds(kinds),
		eeg.WithAnnotations(ParseAnnotations(data.WriteNotes())),
		eeg.WithFilterBand(hp, lp),
	}
	if start, err := time.ParseInLocation("02.01.06 15.04.05",
		strings.TrimSpace(data.Header["startdate"])+" "+strings.TrimSpace(data.Header["starttime"]), time.UTC); err == nil {
		opts = append(opts, eeg.WithStartTime(start))
	}

	rec, err = eeg.NewRecording(names, rate, rows, opts...)
	if err != nil {
		return nil, err
	}
	if len(bads) > 0 {
		return rec.WithBads(bads...)
	}
	return rec, nil
}

// ParseAnnotations decodes EDF+ time-stamped annotation lists, one per
// line as "+onset [duration] label". Entries without a label only keep
// time and are skipped.
func ParseAnnotations(notes string) []eeg.Annotation {
	var out []eeg.Annotation
	for _, line := range strings.Split(notes, "\n") {
		m := talRE.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		onset, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		var duration float64
		if m[2] != "" {
			if duration, err = strconv.ParseFloat(m[2], 64); err != nil {
				continue
			}
		}
		label := strings.Trim(m[3], " \x14\x00")
		if label == "" {
			continue
		}
		out = append(out, eeg.Annotation{Onset: onset, Duration: duration, Label: label})
	}
	return out
}

// fixedFields returns the first present header entry split into
// width-character chunks.
func fixedFields(h map[string]string, width int, keys ...string) []string {
	for _, k := range keys {
		raw, ok := h[k]
		if !ok {
			continue
		}
		var out []string
		for len(raw) >= width {
			out = append(out, strings.TrimSpace(raw[:width]))
			raw = raw[width:]
		}
		if raw = strings.TrimSpace(raw); raw != "" {
			out = append(out, raw)
		}
		return out
	}
	return nil
}

func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

func unitScale(dim string) float64 {
	switch strings.TrimSpace(dim) {
	case "uV", "µV":
		return 1e-6
	case "mV":
		return 1e-3
	case "nV":
		return 1e-9
	}
	return 1
}

func parseBand(s string) (hp, lp float64) {
	for _, m := range bandRE.FindAllStringSubmatch(s, -1) {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		if m[1] == "HP" {
			hp = v
		} else {
			lp = v
		}
	}
	return hp, lp
}
