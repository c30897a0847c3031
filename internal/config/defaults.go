// Package config handles the vault configuration file.
package config

const (
	// ConfigFileName is the name of the config file at the vault root.
	ConfigFileName = "taskvault.yml"

	// DefaultExtension is the text extension eligible documents carry.
	DefaultExtension = ".md"

	// DefaultDelimiter separates structured-metadata fields.
	DefaultDelimiter = "|"

	// DefaultUndoLimit caps the updater's undo stack.
	DefaultUndoLimit = 50

	// CurrentVersion is the current config schema version.
	CurrentVersion = 1
)

// DefaultPriorities is the fixed priority enum (highest first).
var DefaultPriorities = []string{"high", "medium", "low"}
