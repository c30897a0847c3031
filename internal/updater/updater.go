// Package updater serializes task edits back into document text under an
// optimistic-concurrency guarantee and drives recurrence roll-forward.
package updater

import (
	"strings"
	"time"

	"github.com/twiced-technology-gmbh/taskvault/internal/clierr"
	"github.com/twiced-technology-gmbh/taskvault/internal/date"
	"github.com/twiced-technology-gmbh/taskvault/internal/task"
	"github.com/twiced-technology-gmbh/taskvault/internal/vault"
)

// Options configures an Updater.
type Options struct {
	// Delimiter separates structured-metadata fields when serializing.
	Delimiter string
	// UndoLimit caps the undo stack; non-positive falls back to 50.
	UndoLimit int
	// StatePath, when set, persists the undo stack across processes.
	StatePath string
}

const defaultUndoLimit = 50

// Updater applies validated edits to task lines. Operations are
// non-reentrant: callers must not issue a second edit for the same
// document while one is outstanding.
type Updater struct {
	store     vault.Store
	parser    *task.Parser
	delimiter string
	undo      *undoStack
}

// New creates an Updater over the given store. The parser supplies the
// recognized stage set for validation and re-parsing written lines.
func New(store vault.Store, parser *task.Parser, opts Options) *Updater {
	limit := opts.UndoLimit
	if limit < 1 {
		limit = defaultUndoLimit
	}
	return &Updater{
		store:     store,
		parser:    parser,
		delimiter: opts.Delimiter,
		undo:      newUndoStack(limit, opts.StatePath),
	}
}

// Changes is the set of field edits applied by Update. Nil pointers leave
// a field untouched; explicit Clear flags remove optional values.
type Changes struct {
	Text      *string
	Completed *bool

	Due      *date.Date
	ClearDue bool

	Owner    *string
	Project  *string
	Stage    *string // empty string clears the stage
	Priority *string // empty string clears the priority

	Tags       []string // nil keeps, non-nil replaces
	Recurrence *string  // rule text; empty string clears
	Estimate   *string
	TimeLogged *string

	BlockedBy []string // nil keeps, non-nil replaces
	Blocks    []string // nil keeps, non-nil replaces
}

// Update merges field changes into a task and rewrites its line. The write
// is refused with a LINE_MODIFIED error when the document line no longer
// equals the task's captured raw text. Completing a recurring task inserts
// the next occurrence below the completed line in the same write, so the
// new occurrence's due date is always derived from the pre-toggle state.
func (u *Updater) Update(t *task.Task, ch Changes) (*task.Task, error) {
	if err := u.validateChanges(ch); err != nil {
		return nil, err
	}

	lines, err := u.readLines(t.Path)
	if err != nil {
		return nil, err
	}
	if err := checkUnchanged(lines, t); err != nil {
		return nil, err
	}

	updated := *t
	updated.Tags = append([]string{}, t.Tags...)
	updated.BlockedBy = append([]string(nil), t.BlockedBy...)
	updated.Blocks = append([]string(nil), t.Blocks...)
	applyChanges(&updated, ch)

	// The metadata block classifies its first free-form field as owner, so
	// a project cannot be written without one.
	if updated.Project != "" && updated.Owner == "" {
		return nil, clierr.New(clierr.InvalidProject,
			"a project requires an owner on the same line")
	}

	completing := ch.Completed != nil && *ch.Completed && !t.Completed

	newLine := task.FormatLine(&updated, u.delimiter)
	lines[t.Line] = newLine

	entry := UndoEntry{
		Document:  t.Path,
		Line:      t.Line,
		Original:  t.RawLine,
		New:       newLine,
		Timestamp: time.Now(),
	}
	if completing && t.Recurrence != nil {
		if next := u.nextOccurrence(t); next != "" {
			lines = insertLine(lines, t.Line+1, next)
			entry.Inserted = &InsertedLine{Line: t.Line + 1, Text: next}
		}
	}
	u.undo.push(entry)

	if err := u.writeLines(t.Path, lines); err != nil {
		return nil, err
	}

	return u.parser.ParseLine(newLine, t.Path, t.Line), nil
}

// ToggleComplete flips a task's completion state.
func (u *Updater) ToggleComplete(t *task.Task) (*task.Task, error) {
	completed := !t.Completed
	return u.Update(t, Changes{Completed: &completed})
}

// CreateOptions are the optional fields of a new task line.
type CreateOptions struct {
	Owner      string
	Project    string
	Stage      string
	Priority   string
	Due        *date.Date
	Tags       []string
	Recurrence string
	Estimate   string

	// AtLine inserts the new line at the given index instead of appending.
	// Out-of-range indices are rejected, never clamped.
	AtLine *int
}

// Create validates all supplied fields, then inserts a new task line into
// the document, creating the document first if it does not exist. The new
// line is stamped with a creation-date tag.
func (u *Updater) Create(path, text string, opts CreateOptions) (*task.Task, error) {
	if err := u.validateCreate(opts); err != nil {
		return nil, err
	}

	if !u.store.Exists(path) {
		if err := u.store.Create(path, ""); err != nil {
			return nil, storeErr(err)
		}
	}

	lines, err := u.readLines(path)
	if err != nil {
		return nil, err
	}

	today := date.Today()
	t := &task.Task{
		Text:     text,
		Owner:    opts.Owner,
		Project:  opts.Project,
		Stage:    opts.Stage,
		Priority: opts.Priority,
		Due:      opts.Due,
		Tags:     lowered(opts.Tags),
		Estimate: opts.Estimate,
		Created:  &today,
	}
	if opts.Recurrence != "" {
		r := task.ParseRecurrence(opts.Recurrence)
		t.Recurrence = &r
	}
	newLine := task.FormatLine(t, u.delimiter)

	at := len(lines)
	if opts.AtLine != nil {
		if err := task.ValidateLineIndex(*opts.AtLine, len(lines)); err != nil {
			return nil, err
		}
		at = *opts.AtLine
	}
	lines = insertLine(lines, at, newLine)

	u.undo.push(UndoEntry{
		Document:  path,
		Line:      at,
		Original:  "",
		New:       newLine,
		Timestamp: time.Now(),
	})

	if err := u.writeLines(path, lines); err != nil {
		return nil, err
	}

	return u.parser.ParseLine(newLine, path, at), nil
}

// Delete physically removes a task's line after the same staleness check as
// Update. Subsequent line indices shift: callers must re-resolve tasks by
// identity afterwards, not by cached index.
func (u *Updater) Delete(t *task.Task) error {
	lines, err := u.readLines(t.Path)
	if err != nil {
		return err
	}
	if err := checkUnchanged(lines, t); err != nil {
		return err
	}

	lines = append(lines[:t.Line], lines[t.Line+1:]...)

	u.undo.push(UndoEntry{
		Document:  t.Path,
		Line:      t.Line,
		Original:  t.RawLine,
		New:       "",
		Timestamp: time.Now(),
	})

	return u.writeLines(t.Path, lines)
}

// Undo reverses the most recent mutating write: re-inserts a deleted line,
// removes an inserted one, or restores the original text at the index. The
// reversal is refused with a LINE_MODIFIED error when the document no
// longer shows the write being undone, so undo never clobbers a later
// hand edit.
func (u *Updater) Undo() (UndoEntry, error) {
	entry, ok := u.undo.peek()
	if !ok {
		return UndoEntry{}, clierr.New(clierr.NothingToUndo, "nothing to undo")
	}

	lines, err := u.readLines(entry.Document)
	if err != nil {
		return UndoEntry{}, err
	}

	switch {
	case entry.New == "": // deleted line: re-insert
		// The deleted text already sitting at its old index means the
		// user restored it by hand; re-inserting would duplicate it.
		if entry.Line < len(lines) && lines[entry.Line] == entry.Original {
			return UndoEntry{}, undoConflict(entry)
		}
		at := entry.Line
		if at > len(lines) {
			at = len(lines)
		}
		lines = insertLine(lines, at, entry.Original)
	case entry.Original == "": // inserted line: remove
		if entry.Line >= len(lines) || lines[entry.Line] != entry.New {
			return UndoEntry{}, undoConflict(entry)
		}
		lines = append(lines[:entry.Line], lines[entry.Line+1:]...)
	default: // updated line: restore
		if entry.Line >= len(lines) || lines[entry.Line] != entry.New {
			return UndoEntry{}, undoConflict(entry)
		}
		if ins := entry.Inserted; ins != nil {
			if ins.Line >= len(lines) || lines[ins.Line] != ins.Text {
				return UndoEntry{}, undoConflict(entry)
			}
			lines = append(lines[:ins.Line], lines[ins.Line+1:]...)
		}
		lines[entry.Line] = entry.Original
	}

	if err := u.writeLines(entry.Document, lines); err != nil {
		return UndoEntry{}, err
	}

	u.undo.pop()
	return entry, nil
}

// UndoDepth returns the number of reversible writes on the stack.
func (u *Updater) UndoDepth() int {
	return u.undo.len()
}

// nextOccurrence builds the line for the next occurrence of a recurring
// task, templated from the pre-toggle task. Returns "" when the rule's end
// date has been reached. The due date advances from the current occurrence's
// due date, or today when absent.
func (u *Updater) nextOccurrence(t *task.Task) string {
	base := date.Today()
	if t.Due != nil {
		base = *t.Due
	}
	nextDue, ok := t.Recurrence.NextDue(base)
	if !ok {
		return ""
	}

	today := date.Today()
	next := *t
	next.Completed = false
	next.Done = nil
	next.Due = &nextDue
	next.Created = &today
	if next.Stage == task.StageCompleted {
		next.Stage = ""
	}
	next.Tags = append([]string{}, t.Tags...)
	next.BlockedBy = append([]string(nil), t.BlockedBy...)
	next.Blocks = append([]string(nil), t.Blocks...)

	return task.FormatLine(&next, u.delimiter)
}

func (u *Updater) validateChanges(ch Changes) error {
	if ch.Owner != nil && *ch.Owner != "" {
		if err := task.ValidateOwner(*ch.Owner); err != nil {
			return err
		}
	}
	if ch.Project != nil && *ch.Project != "" {
		if err := task.ValidateProject(*ch.Project); err != nil {
			return err
		}
	}
	if ch.Stage != nil && *ch.Stage != "" {
		if err := task.ValidateStage(*ch.Stage, u.parser.Stages()); err != nil {
			return err
		}
	}
	if ch.Priority != nil && *ch.Priority != "" {
		if err := task.ValidatePriority(*ch.Priority); err != nil {
			return err
		}
	}
	for _, tag := range ch.Tags {
		if err := task.ValidateTag(tag); err != nil {
			return err
		}
	}
	return nil
}

func (u *Updater) validateCreate(opts CreateOptions) error {
	if opts.Owner != "" {
		if err := task.ValidateOwner(opts.Owner); err != nil {
			return err
		}
	}
	if opts.Project != "" {
		if err := task.ValidateProject(opts.Project); err != nil {
			return err
		}
		if opts.Owner == "" {
			return clierr.New(clierr.InvalidProject,
				"a project requires an owner on the same line")
		}
	}
	if opts.Stage != "" {
		if err := task.ValidateStage(opts.Stage, u.parser.Stages()); err != nil {
			return err
		}
	}
	if opts.Priority != "" {
		if err := task.ValidatePriority(opts.Priority); err != nil {
			return err
		}
	}
	for _, tag := range opts.Tags {
		if err := task.ValidateTag(tag); err != nil {
			return err
		}
	}
	return nil
}

// applyChanges merges field edits, including the completion/stage coupling:
// completing sets stage to Completed unless the caller overrides it, and
// un-completing clears the stage only when it was Completed.
func applyChanges(t *task.Task, ch Changes) {
	if ch.Text != nil {
		t.Text = *ch.Text
	}
	if ch.Due != nil {
		t.Due = ch.Due
	}
	if ch.ClearDue {
		t.Due = nil
	}
	if ch.Owner != nil {
		t.Owner = *ch.Owner
	}
	if ch.Project != nil {
		t.Project = *ch.Project
	}
	if ch.Stage != nil {
		t.Stage = *ch.Stage
	}
	if ch.Priority != nil {
		t.Priority = *ch.Priority
	}
	if ch.Tags != nil {
		t.Tags = lowered(ch.Tags)
	}
	if ch.Recurrence != nil {
		if *ch.Recurrence == "" {
			t.Recurrence = nil
		} else {
			r := task.ParseRecurrence(*ch.Recurrence)
			t.Recurrence = &r
		}
	}
	if ch.Estimate != nil {
		t.Estimate = *ch.Estimate
	}
	if ch.TimeLogged != nil {
		t.TimeLogged = *ch.TimeLogged
	}
	if ch.BlockedBy != nil {
		t.BlockedBy = ch.BlockedBy
	}
	if ch.Blocks != nil {
		t.Blocks = ch.Blocks
	}

	if ch.Completed != nil && *ch.Completed != t.Completed {
		t.Completed = *ch.Completed
		if t.Completed {
			today := date.Today()
			t.Done = &today
			if ch.Stage == nil {
				t.Stage = task.StageCompleted
			}
		} else {
			t.Done = nil
			if ch.Stage == nil && t.Stage == task.StageCompleted {
				t.Stage = ""
			}
		}
	}
}

// checkUnchanged is the optimistic concurrency check: the document line at
// the task's index must be character-identical to its captured raw text.
func checkUnchanged(lines []string, t *task.Task) error {
	if t.Line >= len(lines) || lines[t.Line] != t.RawLine {
		return clierr.Newf(clierr.LineModified,
			"task at %s was modified externally; refresh and retry", t.ID).
			WithDetails(map[string]any{
				"document": t.Path,
				"line":     t.Line,
			})
	}
	return nil
}

func (u *Updater) readLines(path string) ([]string, error) {
	content, err := u.store.Read(path)
	if err != nil {
		return nil, storeErr(err)
	}
	return task.SplitLines(content), nil
}

func (u *Updater) writeLines(path string, lines []string) error {
	if err := u.store.Write(path, task.JoinLines(lines)); err != nil {
		return storeErr(err)
	}
	return nil
}

func storeErr(err error) error {
	return clierr.Newf(clierr.StoreFailure, "document store: %v", err)
}

func undoConflict(entry UndoEntry) error {
	return clierr.Newf(clierr.LineModified,
		"cannot undo: %s:%d changed since the edit", entry.Document, entry.Line)
}

func insertLine(lines []string, at int, line string) []string {
	lines = append(lines, "")
	copy(lines[at+1:], lines[at:])
	lines[at] = line
	return lines
}

func lowered(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, strings.ToLower(t))
	}
	return out
}
