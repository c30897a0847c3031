package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/twiced-technology-gmbh/taskvault/internal/cache"
	"github.com/twiced-technology-gmbh/taskvault/internal/task"
)

// TaskCompact renders a list of tasks in one-line-per-record compact format.
func TaskCompact(w io.Writer, tasks []*task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	for _, t := range tasks {
		fmt.Fprintln(w, formatTaskLine(t))
	}
}

// TaskDetailCompact renders a single task with detail in compact format.
func TaskDetailCompact(w io.Writer, t *task.Task) {
	line := formatTaskLine(t)
	if t.Estimate != "" {
		line += " est:" + t.Estimate
	}
	if t.TimeLogged != "" {
		line += " logged:" + t.TimeLogged
	}
	fmt.Fprintln(w, line)

	// Provenance and dates line.
	meta := "  " + t.Path + ":" + strconv.Itoa(t.Line)
	if t.Created != nil {
		meta += " created:" + t.Created.String()
	}
	if t.Done != nil {
		meta += " done:" + t.Done.String()
	}
	if t.Recurrence != nil {
		meta += " repeat:" + t.Recurrence.Raw
	}
	fmt.Fprintln(w, meta)

	if len(t.BlockedBy) > 0 {
		fmt.Fprintln(w, "  blocked-by:"+strings.Join(t.BlockedBy, ","))
	}
	if len(t.Blocks) > 0 {
		fmt.Fprintln(w, "  blocks:"+strings.Join(t.Blocks, ","))
	}
}

// StatsCompact renders vault statistics in compact format.
func StatsCompact(w io.Writer, s cache.Stats) {
	fmt.Fprintf(w, "total=%d open=%d completed=%d overdue=%d due-today=%d due-this-week=%d\n",
		s.Total, s.Active, s.Completed, s.Overdue, s.DueToday, s.DueThisWeek)

	printCompactCounts(w, "stage", s.ByStage)
	printCompactCounts(w, "priority", s.ByPriority)
	printCompactCounts(w, "owner", s.ByOwner)
	printCompactCounts(w, "project", s.ByProject)
}

// GroupedCompact renders a grouped view in compact format.
func GroupedCompact(w io.Writer, gs cache.GroupedSummary) {
	for _, g := range gs.Groups {
		line := g.Key + ": " + strconv.Itoa(g.Total)
		var annotations []string
		if g.Completed > 0 {
			annotations = append(annotations, strconv.Itoa(g.Completed)+" completed")
		}
		if g.Overdue > 0 {
			annotations = append(annotations, strconv.Itoa(g.Overdue)+" overdue")
		}
		if len(annotations) > 0 {
			line += " (" + strings.Join(annotations, ", ") + ")"
		}
		fmt.Fprintln(w, line)
	}
}

func printCompactCounts(w io.Writer, label string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := sortedCountKeys(counts)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strconv.Itoa(counts[k]))
	}
	fmt.Fprintln(w, label+": "+strings.Join(parts, " "))
}

// formatTaskLine builds the one-line representation of a task.
func formatTaskLine(t *task.Task) string {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	line := t.ShortRef() + " " + box + " " + t.Text

	if t.Priority != "" {
		line += " !" + t.Priority
	}
	if t.Owner != "" {
		line += " @" + t.Owner
	}
	if t.Project != "" {
		line += " /" + t.Project
	}
	if t.Stage != "" {
		line += " [" + t.Stage + "]"
	}
	if len(t.Tags) > 0 {
		line += " #" + strings.Join(t.Tags, " #")
	}
	if t.Due != nil {
		line += " due:" + t.Due.String()
	}

	return line
}
