// =============================================================================
// Revenue/Refund Analyzer - Configuration Module
// =============================================================================
//
// This module loads the YAML configuration (config.yaml by default). Every
// setting has a default, so a missing file is not an error: the analyzer
// then runs with the built-in field vocabulary.
//
// SECTIONS:
//   input     - row cap, delimiter candidates, date keywords
//   datasets  - per-kind table name, required fields, conflict fields
//   labels    - category rules (substring -> canonical label)
//   store     - hand-off file
//   output    - export directory and file naming
//   report    - debounce, frame and moving-average settings
//   remote    - chat-completion endpoints for the optional analysis
//   logging   - level
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/normalize"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/validation"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	Input    InputConfig           `yaml:"input"`
	Datasets DatasetsConfig        `yaml:"datasets"`
	Labels   []normalize.LabelRule `yaml:"labels"`
	Store    StoreConfig           `yaml:"store"`
	Output   OutputConfig          `yaml:"output"`
	Report   ReportConfig          `yaml:"report"`
	Remote   RemoteConfig          `yaml:"remote"`
	Logging  LoggingConfig         `yaml:"logging"`
}

// InputConfig controls upload decoding.
type InputConfig struct {
	// RowCap is the maximum number of data rows read per upload.
	// Default: 1000
	RowCap int `yaml:"row_cap"`

	// Delimiters are the CSV delimiter candidates, in tie-break order.
	// Use "\t" for tab. Default: [",", ";", "\t"]
	Delimiters []string `yaml:"delimiters"`

	// DateKeywords mark a column as a date column when its name contains
	// any of them (case-insensitive).
	DateKeywords []string `yaml:"date_keywords"`
}

// DatasetsConfig holds the two dataset profiles.
type DatasetsConfig struct {
	Revenue DatasetConfig `yaml:"revenue"`
	Refund  DatasetConfig `yaml:"refund"`
}

// DatasetConfig describes one dataset kind's rules.
type DatasetConfig struct {
	// DisplayName appears in issue messages, e.g. "营收表".
	DisplayName string `yaml:"display_name"`

	// Required fields must be non-blank.
	Required []string `yaml:"required"`

	// StudentTypeField and ClassTypeField feed the conflict rule.
	StudentTypeField string `yaml:"student_type_field"`
	ClassTypeField   string `yaml:"class_type_field"`

	// ReturningLabel and NewOnlyLabels define the conflict.
	ReturningLabel string   `yaml:"returning_label"`
	NewOnlyLabels  []string `yaml:"new_only_labels"`
}

// StoreConfig locates the hand-off file.
type StoreConfig struct {
	// Path of the JSON file holding the revenueData/refundData slots.
	// Default: "./.analyzer/handoff.json"
	Path string `yaml:"path"`
}

// OutputConfig controls exports.
type OutputConfig struct {
	// Dir receives exported workbooks and logs. Default: "./output"
	Dir string `yaml:"dir"`

	// NameFormat names export files. Placeholders: {kind}, {timestamp},
	// {uuid}. Default: "{kind}_{timestamp}"
	NameFormat string `yaml:"name_format"`

	// Format is "xlsx" or "csv". Default: "xlsx"
	Format string `yaml:"format"`
}

// ReportConfig tunes the interactive report.
type ReportConfig struct {
	// DebounceMS is the quiet window before filter changes apply. Default: 300
	DebounceMS int `yaml:"debounce_ms"`

	// FrameMS is the redraw coalescing interval. Default: 16
	FrameMS int `yaml:"frame_ms"`

	// MovingAverageWindow is the trend window in days. Default: 7
	MovingAverageWindow int `yaml:"moving_average_window"`
}

// RemoteConfig configures the optional remote analysis.
type RemoteConfig struct {
	// Endpoints are tried in order until one succeeds.
	Endpoints []string `yaml:"endpoints"`

	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	// TimeoutSeconds bounds each request. Default: 60
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// EnvFile is read for ANALYZER_API_KEY when present. Default: ".env"
	EnvFile string `yaml:"env_file"`
}

// LoggingConfig sets the log level: debug, info, warn or error.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// =============================================================================
// LOADING
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the configuration file at path. A missing file yields the
// defaults.
//
// PARAMETERS:
//   - path: The path to the YAML file.
//
// RETURNS:
//   - The configuration with defaults applied.
//   - An error if the file cannot be parsed or fails validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Encode writes cfg as YAML with two-space indentation.
func Encode(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// applyDefaults fills in every unset value.
func applyDefaults(cfg *Config) {
	if cfg.Input.RowCap == 0 {
		cfg.Input.RowCap = 1000
	}
	if len(cfg.Input.Delimiters) == 0 {
		cfg.Input.Delimiters = []string{",", ";", "\t"}
	}
	if len(cfg.Input.DateKeywords) == 0 {
		cfg.Input.DateKeywords = append([]string(nil), normalize.DefaultDateKeywords...)
	}

	applyDatasetDefaults(&cfg.Datasets.Revenue, validation.RevenueProfile())
	applyDatasetDefaults(&cfg.Datasets.Refund, validation.RefundProfile())

	if len(cfg.Labels) == 0 {
		cfg.Labels = append([]normalize.LabelRule(nil), normalize.DefaultLabelRules...)
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./.analyzer/handoff.json"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "./output"
	}
	if cfg.Output.NameFormat == "" {
		cfg.Output.NameFormat = "{kind}_{timestamp}"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "xlsx"
	}
	if cfg.Report.DebounceMS == 0 {
		cfg.Report.DebounceMS = 300
	}
	if cfg.Report.FrameMS == 0 {
		cfg.Report.FrameMS = 16
	}
	if cfg.Report.MovingAverageWindow == 0 {
		cfg.Report.MovingAverageWindow = 7
	}
	if len(cfg.Remote.Endpoints) == 0 {
		cfg.Remote.Endpoints = []string{"https://api.deepseek.com/v1/chat/completions"}
	}
	if cfg.Remote.Model == "" {
		cfg.Remote.Model = "deepseek-chat"
	}
	if cfg.Remote.Temperature == 0 {
		cfg.Remote.Temperature = 0.7
	}
	if cfg.Remote.MaxTokens == 0 {
		cfg.Remote.MaxTokens = 2000
	}
	if cfg.Remote.TimeoutSeconds == 0 {
		cfg.Remote.TimeoutSeconds = 60
	}
	if cfg.Remote.EnvFile == "" {
		cfg.Remote.EnvFile = ".env"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func applyDatasetDefaults(ds *DatasetConfig, p validation.Profile) {
	if ds.DisplayName == "" {
		ds.DisplayName = p.DisplayName
	}
	if len(ds.Required) == 0 {
		ds.Required = append([]string(nil), p.Required...)
	}
	if ds.StudentTypeField == "" {
		ds.StudentTypeField = p.StudentTypeField
	}
	if ds.ClassTypeField == "" {
		ds.ClassTypeField = p.ClassTypeField
	}
	if ds.ReturningLabel == "" {
		ds.ReturningLabel = p.ReturningLabel
	}
	if len(ds.NewOnlyLabels) == 0 {
		ds.NewOnlyLabels = append([]string(nil), p.NewOnlyLabels...)
	}
}

// validate checks values that defaults cannot fix.
func validate(cfg *Config) error {
	if cfg.Input.RowCap < 0 {
		return fmt.Errorf("input.row_cap must be positive, got %d", cfg.Input.RowCap)
	}
	for _, d := range cfg.Input.Delimiters {
		if len([]rune(d)) != 1 {
			return fmt.Errorf("input.delimiters: %q is not a single character", d)
		}
	}
	for _, r := range cfg.Labels {
		if r.Label == "" || len(r.Contains) == 0 {
			return fmt.Errorf("labels: every rule needs a label and at least one substring")
		}
	}
	switch cfg.Output.Format {
	case "xlsx", "csv":
	default:
		return fmt.Errorf("output.format must be xlsx or csv, got %q", cfg.Output.Format)
	}
	if cfg.Report.DebounceMS < 0 || cfg.Report.FrameMS < 0 {
		return fmt.Errorf("report timings must not be negative")
	}
	if cfg.Report.MovingAverageWindow < 0 {
		return fmt.Errorf("report.moving_average_window must not be negative")
	}
	if cfg.Remote.MaxTokens < 0 || cfg.Remote.TimeoutSeconds < 0 {
		return fmt.Errorf("remote.max_tokens and remote.timeout_seconds must not be negative")
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// DelimiterRunes converts the configured delimiters to runes.
func (c *Config) DelimiterRunes() []rune {
	out := make([]rune, 0, len(c.Input.Delimiters))
	for _, d := range c.Input.Delimiters {
		if r := []rune(d); len(r) == 1 {
			out = append(out, r[0])
		}
	}
	return out
}

// Normalizer builds the row normalizer from the date keywords and labels.
func (c *Config) Normalizer() *normalize.Normalizer {
	return normalize.New(c.Input.DateKeywords, c.Labels)
}

// Profile converts one dataset section into a validation profile.
func (c *Config) Profile(kind types.Kind) validation.Profile {
	ds := c.Datasets.Revenue
	if kind == types.Refund {
		ds = c.Datasets.Refund
	}
	return validation.Profile{
		Kind:             kind,
		DisplayName:      ds.DisplayName,
		Required:         ds.Required,
		StudentTypeField: ds.StudentTypeField,
		ClassTypeField:   ds.ClassTypeField,
		ReturningLabel:   ds.ReturningLabel,
		NewOnlyLabels:    ds.NewOnlyLabels,
	}
}

// Validator builds a validator for both dataset kinds.
func (c *Config) Validator() *validation.Validator {
	return validation.New(c.Normalizer(), c.Profile(types.Revenue), c.Profile(types.Refund))
}

// DisplayName returns the table name for kind.
func (c *Config) DisplayName(kind types.Kind) string {
	return c.Profile(kind).DisplayName
}
