package utils

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/mem"
)

const defaultFraction = 0.5

// ErrBatchTooLarge is returned when a batch would not fit in the memory budget.
var ErrBatchTooLarge = errors.New("batch exceeds memory budget")

// MemoryBudget returns the number of bytes a batch may occupy.
// A non-zero memoryLimit wins; otherwise half of the usable system memory is used.
func MemoryBudget(memoryLimit uint64) uint64 {
	if memoryLimit > 0 {
		LogInfo("Using provided memory limit for batch: %.2f MB", float64(memoryLimit)/1e6)
		return memoryLimit
	}

	v, err := mem.VirtualMemory()
	if err != nil {
		LogWarning("could not read system memory: %v", err)
		return 0
	}
	var usable uint64
	if runtime.GOOS == "windows" {
		if v.Available < v.Free {
			usable = v.Available
		} else {
			usable = v.Free
		}
	} else {
		usable = v.Available
	}
	budget := uint64(float64(usable) * defaultFraction)
	LogInfo("Using system memory (%.0f%%) for batch: %.2f MB", defaultFraction*100, float64(budget)/1e6)
	return budget
}

// CheckBatchFits verifies that records*recordSize bytes fit in the budget.
// A zero budget means the system could not be probed and the check is skipped.
func CheckBatchFits(records int, recordSize int, budget uint64) error {
	if budget == 0 {
		return nil
	}
	if records < 0 || recordSize <= 0 {
		return fmt.Errorf("invalid batch dimensions: %d records of %d bytes", records, recordSize)
	}
	// Divide instead of multiplying so huge record counts cannot wrap around.
	if uint64(records) > budget/uint64(recordSize) {
		return fmt.Errorf("%w: %d records of %d bytes, have %.2f MB",
			ErrBatchTooLarge, records, recordSize, float64(budget)/1e6)
	}
	return nil
}

// ParseMemoryString converts a memory size string like "512M", "2G", "1K", or "123" into a uint64 representing bytes.
// Supported suffixes are none (bytes), K (kilobytes), M (megabytes), G (gigabytes), case-insensitive.
// Returns an error if the format is invalid.
func ParseMemoryString(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty memory string")
	}

	length := len(s)
	lastChar := s[length-1]
	var multiplier uint64 = 1
	numPart := s

	switch lastChar {
	case 'K', 'k':
		multiplier = 1024
		numPart = s[:length-1]
	case 'M', 'm':
		multiplier = 1024 * 1024
		numPart = s[:length-1]
	case 'G', 'g':
		multiplier = 1024 * 1024 * 1024
		numPart = s[:length-1]
	}

	numPart = strings.TrimSpace(numPart)
	if numPart == "" {
		return 0, errors.New("invalid memory string: missing numeric part")
	}

	value, err := strconv.ParseUint(numPart, 10, 64)
	if err != nil {
		return 0, errors.New("invalid memory string: " + err.Error())
	}

	if value > math.MaxUint64/multiplier {
		return 0, fmt.Errorf("invalid memory string: %q overflows", s)
	}

	return value * multiplier, nil
}
