package utils

import (
	"fmt"
	"io"
	"log"
	"os"
)

const LOG_FILE = "fraudgen.log"

// Stdout is reserved for program output, logs go to stderr.
var logger = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)

// SetupLogging sends log output to console and to LOG_FILE.
// The caller closes the returned file.
func SetupLogging(console io.Writer) (*os.File, error) {
	logFile, err := os.OpenFile(LOG_FILE, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", LOG_FILE, err)
	}

	multiWriter := io.MultiWriter(console, logFile)
	logger = log.New(multiWriter, "", log.Ldate|log.Ltime|log.Lshortfile)
	return logFile, nil
}

// OverrideLogger replaces the package logger, mostly to silence tests.
func OverrideLogger(l *log.Logger) {
	logger = l
}

func LogInfo(message string, args ...any) {
	logger.Output(2, "INFO: "+fmt.Sprintf(message, args...))
}

func LogWarning(message string, args ...any) {
	logger.Output(2, "WARNING: "+fmt.Sprintf(message, args...))
}

func LogError(message string, args ...any) {
	logger.Output(2, "ERROR: "+fmt.Sprintf(message, args...))
}

func LogDebug(message string, args ...any) {
	logger.Output(2, "DEBUG: "+fmt.Sprintf(message, args...))
}
