package updater

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/taskvault/internal/clierr"
	"github.com/twiced-technology-gmbh/taskvault/internal/date"
	"github.com/twiced-technology-gmbh/taskvault/internal/task"
	"github.com/twiced-technology-gmbh/taskvault/internal/vault"
)

func newTestUpdater(t *testing.T) (*Updater, *vault.FS, *task.Parser) {
	t.Helper()
	dir := t.TempDir()
	store := vault.NewFS(dir)
	parser := task.NewParser(nil, "|")
	u := New(store, parser, Options{
		Delimiter: "|",
		UndoLimit: 10,
		StatePath: filepath.Join(dir, ".undo.json"),
	})
	return u, store, parser
}

func writeDoc(t *testing.T, store *vault.FS, path, content string) {
	t.Helper()
	if err := store.Write(path, content); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func taskAt(t *testing.T, store *vault.FS, parser *task.Parser, path string, line int) *task.Task {
	t.Helper()
	content, err := store.Read(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	lines := task.SplitLines(content)
	if line >= len(lines) {
		t.Fatalf("%s has %d lines, wanted line %d", path, len(lines), line)
	}
	tk := parser.ParseLine(lines[line], path, line)
	if tk == nil {
		t.Fatalf("line %d of %s is not a task: %q", line, path, lines[line])
	}
	return tk
}

func docLines(t *testing.T, store *vault.FS, path string) []string {
	t.Helper()
	content, err := store.Read(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return task.SplitLines(content)
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	var cliErr *clierr.Error
	if !errors.As(err, &cliErr) {
		t.Fatalf("got %T (%v), want *clierr.Error", err, err)
	}
	if cliErr.Code != code {
		t.Errorf("code = %s, want %s", cliErr.Code, code)
	}
}

func TestCreateAppends(t *testing.T) {
	u, store, parser := newTestUpdater(t)
	writeDoc(t, store, "tasks.md", "- [ ] existing\n")

	due := date.New(2025, time.June, 1)
	created, err := u.Create("tasks.md", "New task", CreateOptions{
		Owner:    "John",
		Priority: "high",
		Due:      &due,
		Tags:     []string{"Ops"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.Line != 1 {
		t.Errorf("Line = %d, want appended at 1", created.Line)
	}
	if created.Owner != "John" || created.Priority != "high" {
		t.Errorf("fields = %+v", created)
	}
	if len(created.Tags) != 1 || created.Tags[0] != "ops" {
		t.Errorf("Tags = %v, want normalized [ops]", created.Tags)
	}
	if created.Created == nil || !created.Created.EqualDate(date.Today()) {
		t.Errorf("Created = %v, want today", created.Created)
	}

	reparsed := taskAt(t, store, parser, "tasks.md", 1)
	if !created.Equal(reparsed) {
		t.Errorf("written line does not reparse equal:\n%+v\n%+v", created, reparsed)
	}
}

func TestCreateNewDocument(t *testing.T) {
	u, store, _ := newTestUpdater(t)

	created, err := u.Create("new/plan.md", "First", CreateOptions{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Line != 0 {
		t.Errorf("Line = %d, want 0", created.Line)
	}
	if !store.Exists("new/plan.md") {
		t.Error("document was not created")
	}
}

func TestCreateAtLine(t *testing.T) {
	u, store, _ := newTestUpdater(t)
	writeDoc(t, store, "tasks.md", "- [ ] a\n- [ ] b\n")

	at := 1
	created, err := u.Create("tasks.md", "between", CreateOptions{AtLine: &at})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Line != 1 {
		t.Errorf("Line = %d, want 1", created.Line)
	}

	lines := docLines(t, store, "tasks.md")
	if len(lines) != 3 || lines[0] != "- [ ] a" || lines[2] != "- [ ] b" {
		t.Errorf("lines = %v", lines)
	}
}

func TestCreateAtLineOutOfRange(t *testing.T) {
	u, store, _ := newTestUpdater(t)
	writeDoc(t, store, "tasks.md", "- [ ] a\n- [ ] b\n")

	at := 3 // document has 2 lines; 2 would append, 3 is out of range
	_, err := u.Create("tasks.md", "nope", CreateOptions{AtLine: &at})
	if err == nil {
		t.Fatal("Create accepted out-of-range line")
	}
	wantCode(t, err, clierr.LineOutOfRange)

	if lines := docLines(t, store, "tasks.md"); len(lines) != 2 {
		t.Errorf("document modified despite rejected insert: %v", lines)
	}
}

func TestCreateValidatesBeforeWriting(t *testing.T) {
	u, store, _ := newTestUpdater(t)
	writeDoc(t, store, "tasks.md", "- [ ] a\n")

	cases := []struct {
		name string
		opts CreateOptions
		code string
	}{
		{"bad priority", CreateOptions{Priority: "critical"}, clierr.InvalidPriority},
		{"bad stage", CreateOptions{Stage: "Limbo"}, clierr.InvalidStage},
		{"bad owner", CreateOptions{Owner: "a|b"}, clierr.InvalidOwner},
		{"bad tag", CreateOptions{Tags: []string{"Bad Tag"}}, clierr.InvalidTag},
		{"project without owner", CreateOptions{Project: "apollo"}, clierr.InvalidProject},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := u.Create("tasks.md", "x", tt.opts)
			if err == nil {
				t.Fatal("Create accepted invalid input")
			}
			wantCode(t, err, tt.code)
		})
	}

	if lines := docLines(t, store, "tasks.md"); len(lines) != 1 {
		t.Errorf("document modified by rejected creates: %v", lines)
	}
}

func TestUpdateFields(t *testing.T) {
	u, store, parser := newTestUpdater(t)
	writeDoc(t, store, "tasks.md", "- [ ] Draft report\n")

	tk := taskAt(t, store, parser, "tasks.md", 0)
	owner := "Mary"
	prio := "medium"
	updated, err := u.Update(tk, Changes{Owner: &owner, Priority: &prio})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Owner != "Mary" || updated.Priority != "medium" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Text != "Draft report" {
		t.Errorf("Text changed unexpectedly: %q", updated.Text)
	}

	reparsed := taskAt(t, store, parser, "tasks.md", 0)
	if !updated.Equal(reparsed) {
		t.Errorf("disk state does not match returned task")
	}
}

func TestUpdateStaleLineRefused(t *testing.T) {
	u, store, parser := newTestUpdater(t)
	writeDoc(t, store, "tasks.md", "- [ ] original\n")

	tk := taskAt(t, store, parser, "tasks.md", 0)

	// Simulate an external editor touching the line after our read.
	writeDoc(t, store, "tasks.md", "- [ ] changed externally\n")

	text := "mine"
	_, err := u.Update(tk, Changes{Text: &text})
	if err == nil {
		t.Fatal("Update accepted a stale line")
	}
	wantCode(t, err, clierr.LineModified)

	if lines := docLines(t, store, "tasks.md"); lines[0] != "- [ ] changed externally" {
		t.Errorf("conflicting write clobbered the document: %q", lines[0])
	}
}

func TestUpdateRejectsProjectWithoutOwner(t *testing.T) {
	u, store, parser := newTestUpdater(t)
	writeDoc(t, store, "tasks.md", "- [ ] solo\n- [ ] **John | apollo:** staffed\n")

	// A bare project would serialize as **apollo:** and reparse as an owner.
	tk := taskAt(t, store, parser, "tasks.md", 0)
	project := "apollo"
	_, err := u.Update(tk, Changes{Project: &project})
	if err == nil {
		t.Fatal("Update accepted a project on an ownerless task")
	}
	wantCode(t, err, clierr.InvalidProject)

	// Clearing the owner while a project remains is the same hole.
	staffed := taskAt(t, store, parser, "tasks.md", 1)
	if staffed.Project != "apollo" {
		t.Fatalf("fixture did not parse a project: %+v", staffed)
	}
	noOwner := ""
	_, err = u.Update(staffed, Changes{Owner: &noOwner})
	if err == nil {
		t.Fatal("Update cleared the owner out from under a project")
	}
	wantCode(t, err, clierr.InvalidProject)

	lines := docLines(t, store, "tasks.md")
	if lines[0] != "- [ ] solo" || lines[1] != "- [ ] **John | apollo:** staffed" {
		t.Errorf("document modified by rejected updates: %v", lines)
	}

	// Setting both in the same edit is fine.
	owner := "Mary"
	updated, err := u.Update(tk, Changes{Owner: &owner, Project: &project})
	if err != nil {
		t.Fatalf("Update with owner and project: %v", err)
	}
	if updated.Owner != "Mary" || updated.Project != "apollo" {
		t.Errorf("updated = %+v", updated)
	}
}

func TestToggleComplete(t *testing.T) {
	u, store, parser := newTestUpdater(t)
	writeDoc(t, store, "tasks.md", "- [ ] **In Progress:** Finish slides\n")

	tk := taskAt(t, store, parser, "tasks.md", 0)
	done, err := u.ToggleComplete(tk)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !done.Completed {
		t.Error("task not completed")
	}
	if done.Done == nil || !done.Done.EqualDate(date.Today()) {
		t.Errorf("Done = %v, want today", done.Done)
	}
	if done.Stage != task.StageCompleted {
		t.Errorf("Stage = %q, want Completed", done.Stage)
	}

	reopened, err := u.ToggleComplete(done)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Completed || reopened.Done != nil {
		t.Errorf("reopened = %+v", reopened)
	}
	if reopened.Stage != "" {
		t.Errorf("Stage = %q after reopen, want cleared", reopened.Stage)
	}
}

func TestCompleteRecurringInsertsNextOccurrence(t *testing.T) {
	u, store, parser := newTestUpdater(t)
	// 2025-03-03 is a Monday; the next listed weekday is Wednesday.
	writeDoc(t, store, "tasks.md",
		"- [ ] **2025-03-03:** Standup notes [repeat:weekly on mon,wed,fri]\n")

	tk := taskAt(t, store, parser, "tasks.md", 0)
	done, err := u.ToggleComplete(tk)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !done.Completed {
		t.Error("original occurrence not completed")
	}

	lines := docLines(t, store, "tasks.md")
	if len(lines) != 2 {
		t.Fatalf("lines = %v, want completed line plus next occurrence", lines)
	}

	next := taskAt(t, store, parser, "tasks.md", 1)
	if next.Completed {
		t.Error("next occurrence must start open")
	}
	if next.Due == nil || next.Due.String() != "2025-03-05" {
		t.Errorf("next.Due = %v, want 2025-03-05", next.Due)
	}
	if next.Text != "Standup notes" {
		t.Errorf("next.Text = %q", next.Text)
	}
	if next.Recurrence == nil || next.Recurrence.Raw != "weekly on mon,wed,fri" {
		t.Errorf("next.Recurrence = %+v", next.Recurrence)
	}
	if next.Done != nil {
		t.Error("next occurrence carries a done date")
	}
	if next.Created == nil || !next.Created.EqualDate(date.Today()) {
		t.Errorf("next.Created = %v, want today", next.Created)
	}
}

func TestCompleteRecurringPastEndDateAddsNothing(t *testing.T) {
	u, store, parser := newTestUpdater(t)
	writeDoc(t, store, "tasks.md",
		"- [ ] **2025-03-03:** Last one [repeat:daily until 2025-03-03]\n")

	tk := taskAt(t, store, parser, "tasks.md", 0)
	if _, err := u.ToggleComplete(tk); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if lines := docLines(t, store, "tasks.md"); len(lines) != 1 {
		t.Errorf("lines = %v, want only the completed line", lines)
	}
}

func TestDelete(t *testing.T) {
	u, store, parser := newTestUpdater(t)
	writeDoc(t, store, "tasks.md", "- [ ] keep\n- [ ] remove\n- [ ] also keep\n")

	tk := taskAt(t, store, parser, "tasks.md", 1)
	if err := u.Delete(tk); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	lines := docLines(t, store, "tasks.md")
	if len(lines) != 2 || lines[0] != "- [ ] keep" || lines[1] != "- [ ] also keep" {
		t.Errorf("lines = %v", lines)
	}
}

func TestDeleteStaleRefused(t *testing.T) {
	u, store, parser := newTestUpdater(t)
	writeDoc(t, store, "tasks.md", "- [ ] target\n")

	tk := taskAt(t, store, parser, "tasks.md", 0)
	writeDoc(t, store, "tasks.md", "- [ ] replaced\n")

	err := u.Delete(tk)
	if err == nil {
		t.Fatal("Delete accepted a stale line")
	}
	wantCode(t, err, clierr.LineModified)
}

func TestUndoUpdate(t *testing.T) {
	u, store, parser := newTestUpdater(t)
	writeDoc(t, store, "tasks.md", "- [ ] original\n")

	tk := taskAt(t, store, parser, "tasks.md", 0)
	text := "edited"
	if _, err := u.Update(tk, Changes{Text: &text}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	entry, err := u.Undo()
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if entry.Document != "tasks.md" || entry.Line != 0 {
		t.Errorf("entry = %+v", entry)
	}

	if lines := docLines(t, store, "tasks.md"); lines[0] != "- [ ] original" {
		t.Errorf("line not restored: %q", lines[0])
	}
}

func TestUndoCreateRemovesLine(t *testing.T) {
	u, store, _ := newTestUpdater(t)
	writeDoc(t, store, "tasks.md", "- [ ] existing\n")

	if _, err := u.Create("tasks.md", "added", CreateOptions{}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := u.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}

	lines := docLines(t, store, "tasks.md")
	if len(lines) != 1 || lines[0] != "- [ ] existing" {
		t.Errorf("lines = %v", lines)
	}
}

func TestUndoDeleteReinserts(t *testing.T) {
	u, store, parser := newTestUpdater(t)
	writeDoc(t, store, "tasks.md", "- [ ] a\n- [ ] b\n- [ ] c\n")

	tk := taskAt(t, store, parser, "tasks.md", 1)
	if err := u.Delete(tk); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := u.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}

	lines := docLines(t, store, "tasks.md")
	if len(lines) != 3 || lines[1] != "- [ ] b" {
		t.Errorf("lines = %v", lines)
	}
}

func TestUndoRefusedAfterHandEdit(t *testing.T) {
	u, store, parser := newTestUpdater(t)
	writeDoc(t, store, "tasks.md", "- [ ] original\n")

	tk := taskAt(t, store, parser, "tasks.md", 0)
	text := "edited"
	if _, err := u.Update(tk, Changes{Text: &text}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// An editor touches the same line before the undo.
	writeDoc(t, store, "tasks.md", "- [ ] hand edit\n")

	_, err := u.Undo()
	if err == nil {
		t.Fatal("Undo overwrote a hand edit")
	}
	wantCode(t, err, clierr.LineModified)

	if lines := docLines(t, store, "tasks.md"); lines[0] != "- [ ] hand edit" {
		t.Errorf("hand edit clobbered: %q", lines[0])
	}
}

func TestUndoDeleteRefusedWhenLineRestoredByHand(t *testing.T) {
	u, store, parser := newTestUpdater(t)
	writeDoc(t, store, "tasks.md", "- [ ] a\n- [ ] b\n- [ ] c\n")

	tk := taskAt(t, store, parser, "tasks.md", 1)
	if err := u.Delete(tk); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// The user types the deleted line back in; re-inserting would duplicate it.
	writeDoc(t, store, "tasks.md", "- [ ] a\n- [ ] b\n- [ ] c\n")

	_, err := u.Undo()
	if err == nil {
		t.Fatal("Undo re-inserted an already restored line")
	}
	wantCode(t, err, clierr.LineModified)

	if lines := docLines(t, store, "tasks.md"); len(lines) != 3 {
		t.Errorf("lines = %v, want 3", lines)
	}
}

func TestUndoRecurringCompletionRemovesNextOccurrence(t *testing.T) {
	u, store, parser := newTestUpdater(t)
	raw := "- [ ] **2025-03-03:** Standup notes [repeat:weekly on mon,wed,fri]"
	writeDoc(t, store, "tasks.md", raw+"\n")

	tk := taskAt(t, store, parser, "tasks.md", 0)
	if _, err := u.ToggleComplete(tk); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if lines := docLines(t, store, "tasks.md"); len(lines) != 2 {
		t.Fatalf("lines after completion = %v, want 2", lines)
	}

	if _, err := u.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}

	lines := docLines(t, store, "tasks.md")
	if len(lines) != 1 {
		t.Fatalf("lines = %v, want the single original occurrence", lines)
	}
	if lines[0] != raw {
		t.Errorf("line = %q, want %q", lines[0], raw)
	}
}

func TestUndoRecurringCompletionRefusedWhenOccurrenceEdited(t *testing.T) {
	u, store, parser := newTestUpdater(t)
	writeDoc(t, store, "tasks.md",
		"- [ ] **2025-03-03:** Standup notes [repeat:weekly on mon,wed,fri]\n")

	tk := taskAt(t, store, parser, "tasks.md", 0)
	if _, err := u.ToggleComplete(tk); err != nil {
		t.Fatalf("complete: %v", err)
	}

	lines := docLines(t, store, "tasks.md")
	lines[1] = "- [ ] rescheduled by hand"
	writeDoc(t, store, "tasks.md", task.JoinLines(lines))

	_, err := u.Undo()
	if err == nil {
		t.Fatal("Undo removed a hand-edited line")
	}
	wantCode(t, err, clierr.LineModified)

	after := docLines(t, store, "tasks.md")
	if len(after) != 2 || after[1] != "- [ ] rescheduled by hand" {
		t.Errorf("lines = %v", after)
	}
}

func TestUndoEmptyStack(t *testing.T) {
	u, _, _ := newTestUpdater(t)

	_, err := u.Undo()
	if err == nil {
		t.Fatal("Undo on empty stack succeeded")
	}
	wantCode(t, err, clierr.NothingToUndo)
}

func TestUndoOrderIsMostRecentFirst(t *testing.T) {
	u, store, parser := newTestUpdater(t)
	writeDoc(t, store, "tasks.md", "- [ ] step\n")

	tk := taskAt(t, store, parser, "tasks.md", 0)
	one := "first edit"
	tk, err := u.Update(tk, Changes{Text: &one})
	if err != nil {
		t.Fatalf("first edit: %v", err)
	}
	two := "second edit"
	if _, err := u.Update(tk, Changes{Text: &two}); err != nil {
		t.Fatalf("second edit: %v", err)
	}

	if _, err := u.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if lines := docLines(t, store, "tasks.md"); lines[0] != `- [ ] first edit` {
		t.Errorf("after one undo: %q", lines[0])
	}
	if _, err := u.Undo(); err != nil {
		t.Fatalf("second Undo: %v", err)
	}
	if lines := docLines(t, store, "tasks.md"); lines[0] != "- [ ] step" {
		t.Errorf("after two undos: %q", lines[0])
	}
}

func TestUndoStackPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	store := vault.NewFS(dir)
	parser := task.NewParser(nil, "|")
	statePath := filepath.Join(dir, ".undo.json")

	first := New(store, parser, Options{Delimiter: "|", UndoLimit: 10, StatePath: statePath})
	writeDoc(t, store, "tasks.md", "- [ ] original\n")
	tk := taskAt(t, store, parser, "tasks.md", 0)
	text := "edited"
	if _, err := first.Update(tk, Changes{Text: &text}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if _, err := os.Stat(statePath); err != nil {
		t.Fatalf("undo state not persisted: %v", err)
	}

	second := New(store, parser, Options{Delimiter: "|", UndoLimit: 10, StatePath: statePath})
	if second.UndoDepth() != 1 {
		t.Fatalf("UndoDepth = %d, want 1", second.UndoDepth())
	}
	if _, err := second.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if lines := docLines(t, store, "tasks.md"); lines[0] != "- [ ] original" {
		t.Errorf("line not restored: %q", lines[0])
	}
}

func TestUndoLimitEvictsOldest(t *testing.T) {
	dir := t.TempDir()
	store := vault.NewFS(dir)
	parser := task.NewParser(nil, "|")
	u := New(store, parser, Options{Delimiter: "|", UndoLimit: 2})

	writeDoc(t, store, "tasks.md", "- [ ] v0\n")
	tk := taskAt(t, store, parser, "tasks.md", 0)
	for _, text := range []string{"v1", "v2", "v3"} {
		text := text
		updated, err := u.Update(tk, Changes{Text: &text})
		if err != nil {
			t.Fatalf("edit %s: %v", text, err)
		}
		tk = updated
	}

	if u.UndoDepth() != 2 {
		t.Errorf("UndoDepth = %d, want 2", u.UndoDepth())
	}
}
