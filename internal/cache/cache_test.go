package cache

import (
	"errors"
	"sort"
	"time"

	"testing"

	"github.com/twiced-technology-gmbh/taskvault/internal/task"
	"github.com/twiced-technology-gmbh/taskvault/internal/vault"
)

// fakeStore is an in-memory vault.Store with controllable mod times and
// injectable read failures.
type fakeStore struct {
	docs     map[string]fakeDoc
	readErrs map[string]error
}

type fakeDoc struct {
	content string
	modTime time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:     make(map[string]fakeDoc),
		readErrs: make(map[string]error),
	}
}

func (s *fakeStore) put(path, content string, mod time.Time) {
	s.docs[path] = fakeDoc{content: content, modTime: mod}
}

func (s *fakeStore) List() ([]vault.Document, error) {
	var docs []vault.Document
	for path, d := range s.docs {
		docs = append(docs, vault.Document{Path: path, ModTime: d.modTime})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func (s *fakeStore) Read(path string) (string, error) {
	if err := s.readErrs[path]; err != nil {
		return "", err
	}
	d, ok := s.docs[path]
	if !ok {
		return "", errors.New("not found")
	}
	return d.content, nil
}

func (s *fakeStore) Write(path, content string) error {
	d := s.docs[path]
	d.content = content
	d.modTime = d.modTime.Add(time.Second)
	s.docs[path] = d
	return nil
}

func (s *fakeStore) Stat(path string) (vault.Document, error) {
	d, ok := s.docs[path]
	if !ok {
		return vault.Document{}, errors.New("not found")
	}
	return vault.Document{Path: path, ModTime: d.modTime}, nil
}

func (s *fakeStore) Exists(path string) bool {
	_, ok := s.docs[path]
	return ok
}

func (s *fakeStore) Create(path, content string) error {
	if s.Exists(path) {
		return errors.New("exists")
	}
	s.put(path, content, time.Unix(1, 0))
	return nil
}

func newTestCache(store vault.Store) *Cache {
	parser := task.NewParser(nil, "|")
	return New(store, parser, NewPolicy(".md", nil, nil))
}

func TestRefreshAllParsesEligibleDocuments(t *testing.T) {
	store := newFakeStore()
	store.put("a.md", "- [ ] one\n- [x] two\n", time.Unix(10, 0))
	store.put("sub/b.md", "- [ ] three\n", time.Unix(10, 0))
	store.put("notes.txt", "- [ ] not a vault doc\n", time.Unix(10, 0))

	c := newTestCache(store)
	if err := c.RefreshAll(); err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}

	if got := len(c.Tasks()); got != 3 {
		t.Errorf("Tasks() = %d, want 3", got)
	}
	if c.DocumentTasks("notes.txt") != nil {
		t.Error("ineligible document was parsed")
	}
	if c.Find("a.md:1") == nil {
		t.Error("Find(a.md:1) = nil")
	}
}

func TestRefreshAllCacheHitKeepsEntry(t *testing.T) {
	store := newFakeStore()
	store.put("a.md", "- [ ] one\n", time.Unix(10, 0))

	c := newTestCache(store)
	if err := c.RefreshAll(); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	first := c.DocumentTasks("a.md")

	if err := c.RefreshAll(); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	second := c.DocumentTasks("a.md")

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("unexpected task counts: %d, %d", len(first), len(second))
	}
	// Unchanged mod time means the entry is reused, not re-parsed.
	if first[0] != second[0] {
		t.Error("unchanged document was re-parsed")
	}
}

func TestRefreshAllReparsesOnModTimeChange(t *testing.T) {
	store := newFakeStore()
	store.put("a.md", "- [ ] one\n", time.Unix(10, 0))

	c := newTestCache(store)
	if err := c.RefreshAll(); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	store.put("a.md", "- [ ] one\n- [ ] two\n", time.Unix(20, 0))
	if err := c.RefreshAll(); err != nil {
		t.Fatalf("refresh after change: %v", err)
	}

	if got := len(c.Tasks()); got != 2 {
		t.Errorf("Tasks() = %d, want 2 after change", got)
	}
}

func TestRefreshAllReadFailureIsWarningNotAbort(t *testing.T) {
	store := newFakeStore()
	store.put("good.md", "- [ ] fine\n", time.Unix(10, 0))
	store.put("bad.md", "- [ ] unreachable\n", time.Unix(10, 0))
	store.readErrs["bad.md"] = errors.New("permission denied")

	c := newTestCache(store)
	if err := c.RefreshAll(); err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}

	if got := len(c.Tasks()); got != 1 {
		t.Errorf("Tasks() = %d, want 1 (good.md only)", got)
	}
	warnings := c.Warnings()
	if len(warnings) != 1 || warnings[0].Path != "bad.md" {
		t.Errorf("Warnings = %v, want one for bad.md", warnings)
	}

	// Once the read recovers, the next pass picks the document up again.
	delete(store.readErrs, "bad.md")
	if err := c.RefreshAll(); err != nil {
		t.Fatalf("recovery refresh: %v", err)
	}
	if got := len(c.Tasks()); got != 2 {
		t.Errorf("Tasks() after recovery = %d, want 2", got)
	}
	if len(c.Warnings()) != 0 {
		t.Errorf("Warnings after recovery = %v, want none", c.Warnings())
	}
}

func TestRefreshAllDropsDeletedDocuments(t *testing.T) {
	store := newFakeStore()
	store.put("a.md", "- [ ] one\n", time.Unix(10, 0))
	store.put("b.md", "- [ ] two\n", time.Unix(10, 0))

	c := newTestCache(store)
	if err := c.RefreshAll(); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	delete(store.docs, "b.md")
	if err := c.RefreshAll(); err != nil {
		t.Fatalf("refresh after delete: %v", err)
	}

	if got := len(c.Tasks()); got != 1 {
		t.Errorf("Tasks() = %d, want 1", got)
	}
	if c.DocumentTasks("b.md") != nil {
		t.Error("deleted document still cached")
	}
}

func TestRefreshOneAndRemove(t *testing.T) {
	store := newFakeStore()
	store.put("a.md", "- [ ] one\n", time.Unix(10, 0))

	c := newTestCache(store)
	if err := c.RefreshAll(); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	store.put("a.md", "- [ ] one\n- [ ] two\n", time.Unix(20, 0))
	if err := c.RefreshOne("a.md"); err != nil {
		t.Fatalf("RefreshOne: %v", err)
	}
	if got := len(c.DocumentTasks("a.md")); got != 2 {
		t.Errorf("DocumentTasks = %d, want 2", got)
	}

	c.RemoveDocument("a.md")
	if len(c.Tasks()) != 0 {
		t.Errorf("Tasks() = %d after remove, want 0", len(c.Tasks()))
	}
}

func TestRenameDocument(t *testing.T) {
	store := newFakeStore()
	store.put("old.md", "- [ ] moved\n", time.Unix(10, 0))

	c := newTestCache(store)
	if err := c.RefreshAll(); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	store.put("new.md", "- [ ] moved\n", time.Unix(20, 0))
	delete(store.docs, "old.md")
	if err := c.RenameDocument("old.md", "new.md"); err != nil {
		t.Fatalf("RenameDocument: %v", err)
	}

	if c.DocumentTasks("old.md") != nil {
		t.Error("old path still cached")
	}
	if c.Find("new.md:0") == nil {
		t.Error("task identity did not move to the new path")
	}
}

func TestAggregateOrderAndHierarchy(t *testing.T) {
	store := newFakeStore()
	store.put("b.md", "- [ ] root\n  - [ ] child\n", time.Unix(10, 0))
	store.put("a.md", "- [ ] first doc\n", time.Unix(10, 0))

	c := newTestCache(store)
	if err := c.RefreshAll(); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	tasks := c.Tasks()
	if len(tasks) != 3 {
		t.Fatalf("Tasks() = %d, want 3", len(tasks))
	}
	if tasks[0].ID != "a.md:0" || tasks[1].ID != "b.md:0" || tasks[2].ID != "b.md:1" {
		t.Errorf("aggregate out of (path, line) order: %v", []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})
	}

	roots := c.Roots()
	if len(roots) != 2 {
		t.Errorf("Roots() = %d, want 2", len(roots))
	}
	child := c.Find("b.md:1")
	if child == nil || child.ParentID != "b.md:0" {
		t.Errorf("hierarchy not built: %+v", child)
	}
}

func TestStatsAndListings(t *testing.T) {
	store := newFakeStore()
	store.put("a.md", "- [ ] **John | 2025-03-01 | Requested | web:** Ship [priority:high] #urgent\n"+
		"- [x] **Mary:** Done thing\n", time.Unix(10, 0))

	c := newTestCache(store)
	if err := c.RefreshAll(); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	s := c.Stats()
	if s.Total != 2 || s.Completed != 1 || s.Active != 1 {
		t.Errorf("Stats = %+v", s)
	}

	if got := c.Owners(); len(got) != 2 || got[0] != "John" || got[1] != "Mary" {
		t.Errorf("Owners = %v", got)
	}
	if got := c.Projects(); len(got) != 1 || got[0] != "web" {
		t.Errorf("Projects = %v", got)
	}
	if got := c.Tags(); len(got) != 1 || got[0] != "urgent" {
		t.Errorf("Tags = %v", got)
	}
	if got := c.DueDates(); len(got) != 1 || got[0] != "2025-03-01" {
		t.Errorf("DueDates = %v", got)
	}
}
