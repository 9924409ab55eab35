package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joeymeijers/fraudgen/internal/batch"
	"github.com/joeymeijers/fraudgen/internal/config"
	"github.com/joeymeijers/fraudgen/internal/generator"
	"github.com/joeymeijers/fraudgen/internal/utils"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run(os.Stdout, os.Stderr))
}

// run writes the confirmation line to stdout and everything else to stderr.
// It returns the process exit code.
func run(stdout, stderr io.Writer) int {
	// .env is optional
	_ = godotenv.Load()

	logFile, err := utils.SetupLogging(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}
	defer utils.SafeClose(logFile)

	_, err = batch.RunWith(batch.DefaultConfigPath, func(cfg *config.Config) (batch.Generator, error) {
		utils.LogInfo("Batch size: %d, fraud rate: %v, output dir: %s",
			cfg.Data.BatchSize, cfg.Data.FraudRate, cfg.Data.OutputDir)
		g := generator.New(cfg.Data)
		g.ProgressWriter = stderr
		return g, nil
	}, stdout)
	if err != nil {
		utils.LogError("%v", err)
		return 1
	}
	return 0
}
