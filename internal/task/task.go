// Package task parses checklist lines into typed task records and
// serializes them back without losing metadata.
package task

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/twiced-technology-gmbh/taskvault/internal/date"
)

// StageCompleted is the stage a task enters when its checkbox is checked.
const StageCompleted = "Completed"

// DefaultStages is the built-in stage set. Vault configs may add custom stages.
var DefaultStages = []string{
	"Requested",
	"Scheduled",
	"In Progress",
	"On Hold",
	StageCompleted,
	"Cancelled",
}

// Priorities is the fixed 3-level priority enum.
var Priorities = []string{"high", "medium", "low"}

// Task represents one parsed checklist line plus its derived metadata
// and hierarchy position.
type Task struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	Line      int    `json:"line"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`

	Due     *date.Date `json:"due,omitempty"`
	Done    *date.Date `json:"done,omitempty"`
	Created *date.Date `json:"created,omitempty"`

	Owner    string   `json:"owner,omitempty"`
	Project  string   `json:"project,omitempty"`
	Stage    string   `json:"stage,omitempty"`
	Priority string   `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	Recurrence *Recurrence `json:"recurrence,omitempty"`
	Estimate   string      `json:"estimate,omitempty"`
	TimeLogged string      `json:"time_logged,omitempty"`

	// BlockedBy and Blocks hold short references as typed by the author,
	// not resolved identities. See the deps package.
	BlockedBy []string `json:"blocked_by,omitempty"`
	Blocks    []string `json:"blocks,omitempty"`

	// Indent is the raw leading whitespace; Depth is derived from it
	// (tabs expand to 2 spaces, 2 spaces per level). Marker is the list
	// bullet character, preserved for lossless round-trips.
	Indent string `json:"-"`
	Depth  int    `json:"depth"`
	Marker string `json:"-"`

	// RawLine is the exact original text, used for optimistic
	// concurrency checks before writes.
	RawLine string `json:"-"`

	ParentID string   `json:"parent_id,omitempty"`
	Children []string `json:"children,omitempty"`
}

// MakeID builds the composite task identity from document path and line index.
func MakeID(path string, line int) string {
	return path + ":" + strconv.Itoa(line)
}

// ShortRef returns the task's short reference: basename without extension
// plus line index, the form authors type into blocked-by/blocks tags.
func (t *Task) ShortRef() string {
	return ShortRefFor(t.Path, t.Line)
}

// ShortRefFor builds a short reference for a document path and line index.
func ShortRefFor(path string, line int) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + ":" + strconv.Itoa(line)
}

// Equal reports whether two tasks carry the same parsed metadata.
// Hierarchy links and raw text are excluded; the comparison covers the
// fields the serializer owns.
func (t *Task) Equal(o *Task) bool {
	if t.Text != o.Text || t.Completed != o.Completed {
		return false
	}
	if !equalDate(t.Due, o.Due) || !equalDate(t.Done, o.Done) || !equalDate(t.Created, o.Created) {
		return false
	}
	if t.Owner != o.Owner || t.Project != o.Project || t.Stage != o.Stage || t.Priority != o.Priority {
		return false
	}
	if t.Estimate != o.Estimate || t.TimeLogged != o.TimeLogged {
		return false
	}
	if !equalStrings(t.Tags, o.Tags) || !equalStrings(t.BlockedBy, o.BlockedBy) || !equalStrings(t.Blocks, o.Blocks) {
		return false
	}
	if (t.Recurrence == nil) != (o.Recurrence == nil) {
		return false
	}
	if t.Recurrence != nil && t.Recurrence.Raw != o.Recurrence.Raw {
		return false
	}
	return true
}

func equalDate(a, b *date.Date) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.EqualDate(*b)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
