// Package batch requests one batch of synthetic data from a Generator and
// reports where it was stored.
package batch

import (
	"fmt"
	"io"
	"time"

	"github.com/joeymeijers/fraudgen/internal/config"
)

const (
	DefaultConfigPath = "params.yaml"
	BatchIDLayout     = "20060102_150405"
)

// Batch is whatever the Generator produces; the driver never looks inside.
type Batch = any

// Generator creates and persists batches.
type Generator interface {
	GenerateBatch(batchSize int, fraudRate float64) (Batch, error)
	SaveBatch(b Batch, batchID string) (string, error)
}

// Factory builds a Generator once the configuration is known.
type Factory func(cfg *config.Config) (Generator, error)

// Now is the clock used for batch ids.
var Now = time.Now

// NewBatchID formats t (local time) as YYYYMMDD_HHMMSS.
// Two calls within the same second return the same id.
func NewBatchID(t time.Time) string {
	return t.Local().Format(BatchIDLayout)
}

// Run loads configPath, generates one batch with gen, saves it and writes
// "New batch generated: <path>" to out. It returns the saved path.
func Run(configPath string, gen Generator, out io.Writer) (string, error) {
	return RunWith(configPath, func(*config.Config) (Generator, error) { return gen, nil }, out)
}

// RunDefault is Run with DefaultConfigPath.
func RunDefault(gen Generator, out io.Writer) (string, error) {
	return Run(DefaultConfigPath, gen, out)
}

// RunWith is Run for generators that depend on the configuration.
// Configuration errors are returned as is. Factory and collaborator errors are
// wrapped with %w and, for generate and save, the batch id
// ("generating batch <id>: ..."), so errors.Is and errors.As still reach the cause.
func RunWith(configPath string, factory Factory, out io.Writer) (string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}

	gen, err := factory(cfg)
	if err != nil {
		return "", fmt.Errorf("creating generator: %w", err)
	}

	batchID := NewBatchID(Now())
	data, err := gen.GenerateBatch(cfg.Data.BatchSize, cfg.Data.FraudRate)
	if err != nil {
		return "", fmt.Errorf("generating batch %s: %w", batchID, err)
	}

	path, err := gen.SaveBatch(data, batchID)
	if err != nil {
		return "", fmt.Errorf("saving batch %s: %w", batchID, err)
	}

	if _, err := fmt.Fprintf(out, "New batch generated: %s\n", path); err != nil {
		return path, err
	}
	return path, nil
}
