// Package output renders tasks, stats, and dependency reports as styled
// tables, JSON, or compact one-liners.
package output

import (
	"os"
)

// Format selects how command results are rendered.
type Format int

const (
	// FormatAuto defers to env/default detection.
	FormatAuto Format = iota
	// FormatJSON renders machine-readable JSON.
	FormatJSON
	// FormatTable renders a styled human-readable table.
	FormatTable
	// FormatCompact renders one line per record.
	FormatCompact
)

// Detect picks the format from explicit flags first, then the
// TASKVAULT_OUTPUT environment variable. Table is the default.
func Detect(jsonFlag, tableFlag, compactFlag bool) Format {
	switch {
	case jsonFlag:
		return FormatJSON
	case compactFlag:
		return FormatCompact
	case tableFlag:
		return FormatTable
	}

	switch os.Getenv("TASKVAULT_OUTPUT") {
	case "json":
		return FormatJSON
	case "compact", "oneline":
		return FormatCompact
	}
	return FormatTable
}
