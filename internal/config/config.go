// Package config provides configuration loading for the tricho pipeline.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for one pipeline invocation.
type Config struct {
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Extractor     ExtractorConfig     `yaml:"extractor"`
	Render        RenderConfig        `yaml:"render"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PipelineConfig holds run-level settings. It is read-only once a run starts.
type PipelineConfig struct {
	// OutRoot overrides the staging root. Empty means derive it from the
	// source PDF's directory and the current date (temp_YYYYMMDD).
	OutRoot string `yaml:"out_root"`
	// RemoveRawImages controls whether the raw extracted image directory is
	// deleted after the merge succeeds.
	RemoveRawImages bool `yaml:"remove_raw_images"`
	// HistoryDB enables the sqlite run ledger when non-empty.
	HistoryDB string `yaml:"history_db"`
}

// Size is an allowed image dimension pair, written as [width, height] in YAML.
type Size struct {
	Width  int
	Height int
}

func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	var pair []int
	if err := value.Decode(&pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("size must be a [width, height] pair, got %d elements", len(pair))
	}
	s.Width, s.Height = pair[0], pair[1]
	return nil
}

func (s Size) MarshalYAML() (interface{}, error) {
	return []int{s.Width, s.Height}, nil
}

// ExtractorConfig holds the image filter and rename settings.
//
// AllowedSizes is an exact-membership set; the default set already encodes
// the scanner's off-by-one variants, so matching itself is never fuzzy.
// RenameMap maps a "page-index" positional key to a semantic region name.
type ExtractorConfig struct {
	AllowedSizes []Size            `yaml:"allowed_sizes"`
	RenameMap    map[string]string `yaml:"rename_map"`
}

// UnmarshalYAML replaces the defaults wholesale for any key present in the
// file. Plain decoding would merge a file-provided rename_map into the
// default map instead of substituting it.
func (c *ExtractorConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain ExtractorConfig
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	if p.AllowedSizes != nil {
		c.AllowedSizes = p.AllowedSizes
	}
	if p.RenameMap != nil {
		c.RenameMap = p.RenameMap
	}
	return nil
}

// SizeAllowed reports whether the exact (width, height) pair is in the set.
func (c ExtractorConfig) SizeAllowed(width, height int) bool {
	for _, s := range c.AllowedSizes {
		if s.Width == width && s.Height == height {
			return true
		}
	}
	return false
}

// RenderConfig holds render handoff settings.
type RenderConfig struct {
	NodeBin string `yaml:"node_bin"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

var posKeyPattern = regexp.MustCompile(`^\d+-\d+$`)

// Load reads configuration from a YAML file and applies environment
// overrides. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the stock HairMetrix report settings.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			RemoveRawImages: true,
		},
		Extractor: ExtractorConfig{
			AllowedSizes: []Size{
				{Width: 525, Height: 525},
				{Width: 525, Height: 526},
				{Width: 526, Height: 525},
				{Width: 526, Height: 526},
			},
			RenameMap: map[string]string{
				"0-0": "frontal_1_left",
				"0-1": "mid",
				"0-2": "vertex_center",
				"1-0": "occipital",
			},
		},
		Render: RenderConfig{
			NodeBin: "node",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRICHO_OUT_ROOT"); v != "" {
		cfg.Pipeline.OutRoot = v
	}
	if v := os.Getenv("TRICHO_HISTORY_DB"); v != "" {
		cfg.Pipeline.HistoryDB = v
	}
	if v := os.Getenv("TRICHO_NODE_BIN"); v != "" {
		cfg.Render.NodeBin = v
	}
	if v := os.Getenv("TRICHO_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.Extractor.AllowedSizes) == 0 {
		return fmt.Errorf("extractor.allowed_sizes must not be empty")
	}
	for _, s := range c.Extractor.AllowedSizes {
		if s.Width <= 0 || s.Height <= 0 {
			return fmt.Errorf("invalid allowed size: %dx%d", s.Width, s.Height)
		}
	}
	for key := range c.Extractor.RenameMap {
		if !posKeyPattern.MatchString(key) {
			return fmt.Errorf("invalid rename map key %q: want \"<page>-<index>\"", key)
		}
	}
	if c.Render.NodeBin == "" {
		return fmt.Errorf("render.node_bin must not be empty")
	}
	switch c.Observability.LogLevel {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Observability.LogLevel)
	}
	return nil
}
