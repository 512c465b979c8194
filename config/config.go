package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a fatal construction-time configuration error. No
// simulation starts when it is returned; check with errors.Is.
var ErrInvalid = errors.New("invalid backtest config")

// SizeType selects the position sizing scheme.
type SizeType string

const (
	// EqualWeight divides total portfolio value evenly across TargetPositions.
	EqualWeight SizeType = "equal_weight"
	// Percent allocates a per-ticker fraction of portfolio value (SizingValues).
	Percent SizeType = "percent"
	// Shares buys a fixed per-ticker share count (SizingValues).
	Shares SizeType = "shares"
)

// Config is the complete run configuration. It is validated at engine
// construction and never mutated during a run.
type Config struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`

	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate"`
	TaxRate        float64 `json:"tax_rate" yaml:"tax_rate"`
	SlippageBps    float64 `json:"slippage_bps" yaml:"slippage_bps"`

	SizeType        SizeType `json:"size_type" yaml:"size_type"`
	TargetPositions int      `json:"target_positions,omitempty" yaml:"target_positions,omitempty"`

	// SizingValues supplies per-ticker sizing for Percent (fraction of
	// portfolio value) and Shares (whole share count) size types.
	SizingValues map[string]float64 `json:"sizing_values,omitempty" yaml:"sizing_values,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML (.yaml/.yml) or indented JSON.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration. Failures wrap ErrInvalid.
func (c *Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial_capital must be positive, got %v", ErrInvalid, c.InitialCapital)
	}
	if c.CommissionRate < 0 || c.TaxRate < 0 || c.SlippageBps < 0 {
		return fmt.Errorf("%w: cost rates must be non-negative", ErrInvalid)
	}
	if c.TargetPositions < 0 {
		return fmt.Errorf("%w: target_positions must be positive when set", ErrInvalid)
	}

	switch c.SizeType {
	case EqualWeight:
		if c.TargetPositions == 0 {
			return fmt.Errorf("%w: equal_weight sizing requires target_positions > 0", ErrInvalid)
		}
	case Percent, Shares:
		if c.SizingValues == nil {
			return fmt.Errorf("%w: size_type %q requires sizing_values", ErrInvalid, c.SizeType)
		}
	default:
		return fmt.Errorf("%w: unknown size_type %q", ErrInvalid, c.SizeType)
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		InitialCapital:  100_000_000,
		CommissionRate:  0.00015,
		TaxRate:         0.0023,
		SlippageBps:     0,
		SizeType:        EqualWeight,
		TargetPositions: 10,
	}
}
