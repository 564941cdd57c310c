// Package config loads pipeline settings from defaults, an optional YAML
// file and EEGPREP_* environment variables, in that order of precedence.
//
// Environment keys join the section and field names, for example
// EEGPREP_FILTER_LOW=0.5 or EEGPREP_ICA_FALLBACK=0,3.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EEGPREP"

// ErrInvalid wraps validation failures.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the complete pipeline configuration.
type Config struct {
	Input   InputConfig   `yaml:"input" envconfig:"INPUT"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
	Montage MontageConfig `yaml:"montage" envconfig:"MONTAGE"`
	Filter  FilterConfig  `yaml:"filter" envconfig:"FILTER"`
	Notch   NotchConfig   `yaml:"notch" envconfig:"NOTCH"`
	Bads    BadsConfig    `yaml:"bads" envconfig:"BADS"`
	ICA     ICAConfig     `yaml:"ica" envconfig:"ICA"`
	Epochs  EpochsConfig  `yaml:"epochs" envconfig:"EPOCHS"`
	PSD     PSDConfig     `yaml:"psd" envconfig:"PSD"`
	Plots   PlotsConfig   `yaml:"plots" envconfig:"PLOTS"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// InputConfig names the recording to load, EDF/EDF+ or a saved session.
type InputConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// OutputConfig names the files the pipeline writes. Empty optional paths
// are skipped.
type OutputConfig struct {
	Session string `yaml:"session" validate:"required"`
	EDF     string `yaml:"edf"`
	Reports string `yaml:"reports"`
}

// MontageConfig selects sensor positions.
type MontageConfig struct {
	Name      string `yaml:"name" validate:"oneof=standard_1020 none"`
	OnMissing string `yaml:"on_missing" validate:"oneof=raise warn ignore"`
}

// FilterConfig is the band-pass stage.
type FilterConfig struct {
	Low      float64 `yaml:"low" validate:"gte=0"`
	High     float64 `yaml:"high" validate:"gt=0,gtfield=Low"`
	Method   string  `yaml:"method" validate:"oneof=fir iir"`
	IIROrder int     `yaml:"iir_order" validate:"min=1,max=16"`
	// Resample, when positive, changes the sampling rate after band-pass
	// filtering.
	Resample float64 `yaml:"resample" validate:"gte=0"`
}

// NotchConfig lists line-noise frequencies removed by the filters workflow.
type NotchConfig struct {
	Freqs    []float64 `yaml:"freqs" validate:"dive,gt=0"`
	LineFreq float64   `yaml:"line_freq" validate:"gte=0"`
}

// BadsConfig lists channels to mark bad when present.
type BadsConfig struct {
	Channels    []string `yaml:"channels"`
	Interpolate bool     `yaml:"interpolate"`
}

// ICAConfig is the artifact removal stage. MaxIter 0 selects the automatic
// limit.
type ICAConfig struct {
	Components int     `yaml:"components" validate:"min=1"`
	Seed       int64   `yaml:"seed"`
	MaxIter    int     `yaml:"max_iter" validate:"min=0"`
	EOGChannel string  `yaml:"eog_channel"`
	Threshold  float64 `yaml:"threshold" validate:"gt=0"`
	Fallback   []int   `yaml:"fallback" validate:"dive,min=0"`
}

// EpochsConfig is the event segmentation stage.
type EpochsConfig struct {
	Label            string  `yaml:"label" validate:"required"`
	TMin             float64 `yaml:"tmin" validate:"lte=0"`
	TMax             float64 `yaml:"tmax" validate:"gtfield=TMin"`
	Baseline         bool    `yaml:"baseline"`
	RequireCondition bool    `yaml:"require_condition"`
	RejectPeakToPeak float64 `yaml:"reject_peak_to_peak" validate:"gte=0"`
	// DropOutOfBounds skips events whose window leaves the recording;
	// when false such an event fails the run.
	DropOutOfBounds bool `yaml:"drop_out_of_bounds"`
}

// PSDConfig parameterizes spectral estimates.
type PSDConfig struct {
	NFFT int     `yaml:"n_fft" validate:"min=8"`
	FMin float64 `yaml:"fmin" validate:"gte=0"`
	FMax float64 `yaml:"fmax" validate:"gtfield=FMin"`
}

// PlotsConfig enables figure output when Dir is set.
type PlotsConfig struct {
	Dir     string  `yaml:"dir"`
	Seconds float64 `yaml:"seconds" validate:"gte=0"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// Default returns the settings of the reference preprocessing run.
func Default() Config {
	return Config{
		Input:   InputConfig{Path: "s17_1.edf"},
		Output:  OutputConfig{Session: "s17_1_preprocessed.eegdb"},
		Montage: MontageConfig{Name: "standard_1020", OnMissing: "warn"},
		Filter:  FilterConfig{Low: 1, High: 40, Method: "fir", IIROrder: 4},
		Notch:   NotchConfig{Freqs: []float64{49, 51}, LineFreq: 50},
		Bads:    BadsConfig{Channels: []string{"Fp1", "Fz"}},
		ICA: ICAConfig{
			Components: 20,
			Seed:       97,
			EOGChannel: "EOG",
			Threshold:  3,
			Fallback:   []int{0, 3},
		},
		Epochs:  EpochsConfig{Label: "Encoding", TMin: -0.2, TMax: 0.8, Baseline: true, DropOutOfBounds: true},
		PSD:     PSDConfig{NFFT: 2048, FMax: 60},
		Plots:   PlotsConfig{Seconds: 10},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load returns Default overlaid with the YAML file at path, when path is
// not empty, and then with environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
}

// Save writes cfg as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
