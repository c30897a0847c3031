package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/twiced-technology-gmbh/taskvault/internal/filelock"
)

const (
	fileMode = 0o600
	dirMode  = 0o750

	// lockFileName guards whole-document writes against concurrent
	// taskvault processes sharing one vault.
	lockFileName = ".taskvault.lock"
)

// FS is a Store over a directory tree on the local filesystem.
type FS struct {
	root string
}

// NewFS creates a filesystem store rooted at dir.
func NewFS(dir string) *FS {
	return &FS{root: dir}
}

// Root returns the vault root directory.
func (v *FS) Root() string { return v.root }

// List walks the vault and returns every regular file with its modification
// timestamp. Hidden entries (dotfiles) are skipped; eligibility filtering
// beyond that is the cache's concern.
func (v *FS) List() ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != v.root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(v.root, path)
		if err != nil {
			return err
		}
		docs = append(docs, Document{
			Path:    filepath.ToSlash(rel),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing vault: %w", err)
	}
	return docs, nil
}

// Read returns the full content of a document.
func (v *FS) Read(path string) (string, error) {
	data, err := os.ReadFile(v.abs(path)) //nolint:gosec // vault paths come from List
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// Write replaces the full content of a document under an advisory lock, so
// two taskvault processes cannot interleave whole-document writes.
func (v *FS) Write(path, content string) error {
	unlock, err := filelock.Lock(filepath.Join(v.root, lockFileName))
	if err != nil {
		return fmt.Errorf("locking vault: %w", err)
	}
	defer unlock() //nolint:errcheck // releasing an advisory lock

	if err := os.WriteFile(v.abs(path), []byte(content), fileMode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Stat returns the document's identity and current modification timestamp.
func (v *FS) Stat(path string) (Document, error) {
	info, err := os.Stat(v.abs(path))
	if err != nil {
		return Document{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return Document{Path: path, ModTime: info.ModTime()}, nil
}

// Exists reports whether the document is present.
func (v *FS) Exists(path string) bool {
	_, err := os.Stat(v.abs(path))
	return err == nil
}

// Create writes a new document if absent, creating parent folders as needed.
func (v *FS) Create(path, content string) error {
	abs := v.abs(path)
	if err := os.MkdirAll(filepath.Dir(abs), dirMode); err != nil {
		return fmt.Errorf("creating folder for %s: %w", path, err)
	}
	f, err := os.OpenFile(abs, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fileMode) //nolint:gosec // path under vault root
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

func (v *FS) abs(path string) string {
	return filepath.Join(v.root, filepath.FromSlash(path))
}
