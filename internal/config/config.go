package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joeymeijers/fraudgen/internal/utils"
	"gopkg.in/yaml.v3"
)

const (
	DEFAULT_OUTPUT_DIR = "data/raw"
	OUTPUT_DIR_ENV     = "FRAUDGEN_OUTPUT_DIR"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Data DataConfig `yaml:"data"`
}

// DataConfig holds the batch parameters. Only batch_size and fraud_rate are required.
type DataConfig struct {
	BatchSize int     `yaml:"batch_size"`
	FraudRate float64 `yaml:"fraud_rate"`
	OutputDir string  `yaml:"output_dir"`
	Seed      int64   `yaml:"seed"`
	MaxMemory string  `yaml:"max_memory"` // e.g. 512M, empty = system memory
}

// MemoryLimit returns max_memory in bytes, 0 when unset.
func (d DataConfig) MemoryLimit() uint64 {
	if d.MaxMemory == "" {
		return 0
	}
	n, err := utils.ParseMemoryString(d.MaxMemory)
	if err != nil {
		return 0
	}
	return n
}

// Load reads, parses and validates the configuration at path.
// Every failure is a *ConfigurationError.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigurationError{Kind: NotFound, Path: path, Err: err}
		}
		return nil, &ConfigurationError{Kind: ReadError, Path: path, Err: err}
	}

	// Decode into a generic tree first so absent keys are not confused with zero values.
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, &ConfigurationError{Kind: ParseError, Path: path, Err: err}
	}
	if err := checkRequired(path, tree); err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, &ConfigurationError{Kind: ParseError, Path: path, Err: err}
	}
	if v := os.Getenv(OUTPUT_DIR_ENV); v != "" {
		c.Data.OutputDir = v
	}
	if c.Data.OutputDir == "" {
		c.Data.OutputDir = DEFAULT_OUTPUT_DIR
	}
	if err := c.Validate(); err != nil {
		var ce *ConfigurationError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return nil, err
	}
	return &c, nil
}

func checkRequired(path string, tree map[string]any) error {
	data, ok := tree["data"].(map[string]any)
	if !ok {
		return &ConfigurationError{Kind: MissingField, Path: path, Field: "data"}
	}
	for _, key := range []string{"batch_size", "fraud_rate"} {
		if v, ok := data[key]; !ok || v == nil {
			return &ConfigurationError{Kind: MissingField, Path: path, Field: "data." + key}
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Data.BatchSize <= 0 {
		return &ConfigurationError{Kind: InvalidValue, Field: "data.batch_size",
			Err: fmt.Errorf("must be > 0, got %d", c.Data.BatchSize)}
	}
	if c.Data.FraudRate < 0 || c.Data.FraudRate > 1 {
		return &ConfigurationError{Kind: InvalidValue, Field: "data.fraud_rate",
			Err: fmt.Errorf("must be within [0,1], got %v", c.Data.FraudRate)}
	}
	if c.Data.MaxMemory != "" {
		if _, err := utils.ParseMemoryString(c.Data.MaxMemory); err != nil {
			return &ConfigurationError{Kind: InvalidValue, Field: "data.max_memory", Err: err}
		}
	}
	return nil
}
