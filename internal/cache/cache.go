// Package cache maintains the per-document parse cache and the aggregate,
// hierarchy-linked task list for a vault.
package cache

import (
	"sort"
	"time"

	"github.com/twiced-technology-gmbh/taskvault/internal/date"
	"github.com/twiced-technology-gmbh/taskvault/internal/task"
	"github.com/twiced-technology-gmbh/taskvault/internal/vault"
)

// Warning describes a document that could not be read during a refresh.
// The document contributes zero tasks until a later refresh succeeds.
type Warning struct {
	Path string
	Err  error
}

// entry is one document's parsed-task snapshot plus the modification
// timestamp it was derived from. Entries are replaced wholesale, never
// partially mutated.
type entry struct {
	tasks   []*task.Task
	modTime time.Time
}

// Cache owns the per-document entry map. All mutating methods are
// non-reentrant: callers drive them from a single goroutine.
type Cache struct {
	store  vault.Store
	parser *task.Parser
	policy Policy

	entries  map[string]*entry
	tasks    []*task.Task
	roots    []*task.Task
	stats    Stats
	warnings []Warning
}

// New creates an empty cache over the given store. Call RefreshAll before
// querying.
func New(store vault.Store, parser *task.Parser, policy Policy) *Cache {
	return &Cache{
		store:   store,
		parser:  parser,
		policy:  policy,
		entries: make(map[string]*entry),
	}
}

// RefreshAll re-parses every eligible document whose modification timestamp
// changed since its cache entry was built. A failure to read one document is
// recorded as a warning and never aborts the remaining documents. The
// aggregate task list and statistics are replaced only once the whole pass
// finishes, so a partial failure never leaves them torn.
func (c *Cache) RefreshAll() error {
	docs, err := c.store.List()
	if err != nil {
		return err
	}

	c.warnings = nil
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if !c.policy.Eligible(doc.Path) {
			continue
		}
		seen[doc.Path] = true

		if e, ok := c.entries[doc.Path]; ok && e.modTime.Equal(doc.ModTime) {
			continue // cache hit: skip re-parsing
		}
		c.parseInto(doc)
	}

	// Drop entries for documents that disappeared or became ineligible.
	for path := range c.entries {
		if !seen[path] {
			delete(c.entries, path)
		}
	}

	c.rebuildAggregate()
	return nil
}

// RefreshOne re-parses a single document and splices its entry in. Used on
// external change notifications.
func (c *Cache) RefreshOne(path string) error {
	if !c.policy.Eligible(path) {
		delete(c.entries, path)
		c.rebuildAggregate()
		return nil
	}

	doc, err := c.store.Stat(path)
	if err != nil {
		delete(c.entries, path)
		c.warnings = append(c.warnings, Warning{Path: path, Err: err})
		c.rebuildAggregate()
		return nil
	}

	c.parseInto(doc)
	c.rebuildAggregate()
	return nil
}

// RemoveDocument drops a document's entry, e.g. on a delete notification.
func (c *Cache) RemoveDocument(path string) {
	delete(c.entries, path)
	c.rebuildAggregate()
}

// RenameDocument moves a document's tasks to a new path. Task identities
// embed the path, so the document is re-parsed under its new name.
func (c *Cache) RenameDocument(oldPath, newPath string) error {
	delete(c.entries, oldPath)
	return c.RefreshOne(newPath)
}

// Tasks returns the aggregate task list of the last refresh.
func (c *Cache) Tasks() []*task.Task {
	return c.tasks
}

// Roots returns the hierarchy roots of the last refresh.
func (c *Cache) Roots() []*task.Task {
	return c.roots
}

// Stats returns the summary statistics computed by the last refresh.
func (c *Cache) Stats() Stats {
	return c.stats
}

// Warnings returns the read failures recorded by the last refresh pass.
func (c *Cache) Warnings() []Warning {
	return c.warnings
}

// Find returns the task with the given identity, or nil.
func (c *Cache) Find(id string) *task.Task {
	for _, t := range c.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// DocumentTasks returns the cached tasks of one document, or nil if the
// document has no entry.
func (c *Cache) DocumentTasks(path string) []*task.Task {
	if e, ok := c.entries[path]; ok {
		return e.tasks
	}
	return nil
}

// parseInto reads and parses one document, replacing its entry. Read
// failures are recorded as warnings; the entry is dropped so the next
// refresh retries.
func (c *Cache) parseInto(doc vault.Document) {
	content, err := c.store.Read(doc.Path)
	if err != nil {
		delete(c.entries, doc.Path)
		c.warnings = append(c.warnings, Warning{Path: doc.Path, Err: err})
		return
	}
	c.entries[doc.Path] = &entry{
		tasks:   c.parser.ParseDocument(doc.Path, content),
		modTime: doc.ModTime,
	}
}

// rebuildAggregate recomputes the task list, hierarchy, and statistics from
// the full entry map. Order-independent: documents are concatenated and
// sorted, so enumeration order during the pass does not matter.
func (c *Cache) rebuildAggregate() {
	var all []*task.Task
	for _, e := range c.entries {
		all = append(all, e.tasks...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Path != all[j].Path {
			return all[i].Path < all[j].Path
		}
		return all[i].Line < all[j].Line
	})

	c.roots = task.BuildHierarchy(all)
	c.tasks = all
	c.stats = Summarize(all, date.Today())
}
