package updater

import (
	"encoding/json"
	"os"
	"time"
)

const undoFileMode = 0o600

// UndoEntry captures one mutating write so it can be reversed. An empty
// New means the write deleted the line; an empty Original means the write
// inserted it.
type UndoEntry struct {
	Document  string    `json:"document"`
	Line      int       `json:"line"`
	Original  string    `json:"original"`
	New       string    `json:"new"`
	Timestamp time.Time `json:"timestamp"`

	// Inserted records a companion line added by the same write (the next
	// occurrence of a recurring task); undo removes it in the same reversal
	// so a single undo never leaves two open occurrences behind.
	Inserted *InsertedLine `json:"inserted,omitempty"`
}

// InsertedLine identifies a line a write added alongside the edited one.
type InsertedLine struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// undoStack is a bounded most-recent-first stack of undo entries, owned
// exclusively by the Updater. When a state path is set the stack survives
// process restarts.
type undoStack struct {
	entries []UndoEntry
	limit   int
	path    string
}

func newUndoStack(limit int, path string) *undoStack {
	s := &undoStack{limit: limit, path: path}
	s.load()
	return s
}

func (s *undoStack) push(e UndoEntry) {
	s.entries = append(s.entries, e)
	if len(s.entries) > s.limit {
		// Evict oldest first.
		s.entries = s.entries[len(s.entries)-s.limit:]
	}
	s.save()
}

func (s *undoStack) peek() (UndoEntry, bool) {
	if len(s.entries) == 0 {
		return UndoEntry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

func (s *undoStack) pop() {
	if len(s.entries) > 0 {
		s.entries = s.entries[:len(s.entries)-1]
		s.save()
	}
}

func (s *undoStack) len() int { return len(s.entries) }

// load restores the stack from disk; a missing or corrupt file starts empty.
func (s *undoStack) load() {
	if s.path == "" {
		return
	}
	data, err := os.ReadFile(s.path) //nolint:gosec // state path from trusted vault dir
	if err != nil {
		return
	}
	var entries []UndoEntry
	if json.Unmarshal(data, &entries) == nil {
		if len(entries) > s.limit {
			entries = entries[len(entries)-s.limit:]
		}
		s.entries = entries
	}
}

// save persists the stack, best-effort: undo must never fail a write.
func (s *undoStack) save() {
	if s.path == "" {
		return
	}
	data, err := json.Marshal(s.entries)
	if err != nil {
		return
	}
	_ = os.WriteFile(s.path, data, undoFileMode)
}
