package utils

import (
	"io"
	"os"
	"runtime"
)

// Safeclose closes a io.Closer and logs an error if something fails
func SafeClose(c io.Closer) error {
	if err := c.Close(); err != nil {
		LogWarning("warning: error closing: %v", err)
		return err
	}
	return nil
}

func SafeFlush(f interface{ Flush() error }) error {
	if err := f.Flush(); err != nil {
		LogWarning("warning: flush failed: %v", err)
		return err
	}
	return nil
}

func SafeRemove(path string) error {
	if err := os.Remove(path); err != nil {
		LogWarning("warning: could not remove file %s: %v", path, err)
		return err
	}
	return nil
}

// GetNewline returns platform-native newline string.
func GetNewline() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// MakeDir creates dir (and parents) if needed and returns it.
func MakeDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
