// Package vault defines the document-store boundary the task engine
// consumes, plus the filesystem implementation used by the CLI. The engine
// only ever talks to the Store interface; change notifications arrive
// separately through the watcher package.
package vault

import "time"

// Document identifies one text document in the store.
type Document struct {
	// Path is store-relative with forward-slash separators.
	Path    string
	ModTime time.Time
}

// Store is the external document store. Writes replace the whole content;
// the engine never issues partial patches.
type Store interface {
	// List enumerates all documents with their last-modified timestamps.
	List() ([]Document, error)
	// Read returns the full text content of a document.
	Read(path string) (string, error)
	// Write replaces the full text content of a document.
	Write(path, content string) error
	// Stat returns the document's current identity and timestamp.
	Stat(path string) (Document, error)
	// Exists reports whether the document is present.
	Exists(path string) bool
	// Create writes a new document (and any missing parent folders)
	// only if it does not already exist.
	Create(path, content string) error
}
