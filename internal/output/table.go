package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/taskvault/internal/cache"
	"github.com/twiced-technology-gmbh/taskvault/internal/deps"
	"github.com/twiced-technology-gmbh/taskvault/internal/task"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))

	stageStyles = map[string]lipgloss.Style{
		"Requested":   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		"Scheduled":   lipgloss.NewStyle().Foreground(lipgloss.Color("62")),
		"In Progress": lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		"On Hold":     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		"Completed":   lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		"Cancelled":   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}

	priorityStyles = map[string]lipgloss.Style{
		"high":   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		"medium": lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		"low":    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}

	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	ownerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("44")).Bold(true)
	blockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// DisableColor strips all styling from table output.
func DisableColor() {
	headerStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	doneStyle = lipgloss.NewStyle()
	stageStyles = map[string]lipgloss.Style{}
	priorityStyles = map[string]lipgloss.Style{}
	tagStyle = lipgloss.NewStyle()
	ownerStyle = lipgloss.NewStyle()
	blockedStyle = lipgloss.NewStyle()
}

// TaskTable renders a list of tasks as a formatted table.
func TaskTable(w io.Writer, tasks []*task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	// Calculate column widths.
	const pad = 2
	refW, prioW, dueW, ownerW, stageW, textW := 5, 10, 12, 7, 7, 6
	for _, t := range tasks {
		refW = max(refW, len(t.ShortRef())+pad)
		prioW = max(prioW, len(t.Priority)+pad)
		ownerW = max(ownerW, len(t.Owner)+pad)
		stageW = max(stageW, len(t.Stage)+pad)
		textW = max(textW, min(len(t.Text)+pad, 50)) //nolint:mnd // max text column width
	}

	// Print header.
	header := fmt.Sprintf("%-*s %-3s %-*s %-*s %-*s %-*s %-*s %s",
		refW, "REF", "", prioW, "PRIORITY",
		dueW, "DUE", ownerW, "OWNER", stageW, "STAGE", textW, "TASK", "TAGS")
	fmt.Fprintln(w, headerStyle.Render(strings.TrimRight(header, " ")))

	// Print rows.
	for _, t := range tasks {
		text := t.Text
		const maxText = 48
		if len(text) > maxText {
			text = text[:maxText-3] + "..."
		}
		if t.Depth > 0 {
			text = strings.Repeat("  ", t.Depth) + text
		}
		owner := t.Owner
		if owner == "" {
			owner = dimStyle.Render("--")
		} else {
			owner = ownerStyle.Render(owner)
		}
		tags := strings.Join(t.Tags, ",")
		if tags == "" {
			tags = dimStyle.Render("--")
		} else {
			tags = tagStyle.Render(tags)
		}
		due := "--"
		if t.Due != nil {
			due = t.Due.String()
		} else {
			due = dimStyle.Render(due)
		}

		row := fmt.Sprintf("%-*s %-3s %s %s %s %s %s %s",
			refW, t.ShortRef(),
			checkbox(t),
			padRight(styledValue(t.Priority, priorityStyles), prioW),
			padRight(due, dueW),
			padRight(owner, ownerW),
			padRight(styledValue(t.Stage, stageStyles), stageW),
			padRight(text, textW),
			tags)
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// TaskDetail renders a single task with full detail, including the
// dependency status when one is supplied.
func TaskDetail(w io.Writer, t *task.Task, status *deps.Status) {
	titleLine := fmt.Sprintf("%s: %s", t.ShortRef(), t.Text)
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(titleLine))
	fmt.Fprintln(w, strings.Repeat("─", len(titleLine)))

	printField(w, "Document", t.Path+":"+strconv.Itoa(t.Line))
	if t.Completed {
		printField(w, "State", doneStyle.Render("completed"))
	} else {
		printField(w, "State", "open")
	}
	printField(w, "Stage", styledValueOrDash(t.Stage, stageStyles))
	printField(w, "Priority", styledValueOrDash(t.Priority, priorityStyles))
	printField(w, "Owner", stringOrDash(t.Owner))
	printField(w, "Project", stringOrDash(t.Project))
	if len(t.Tags) > 0 {
		printField(w, "Tags", tagStyle.Render(strings.Join(t.Tags, ", ")))
	} else {
		printField(w, "Tags", dimStyle.Render("--"))
	}
	if t.Due != nil {
		printField(w, "Due", t.Due.String())
	} else {
		printField(w, "Due", dimStyle.Render("--"))
	}
	if t.Done != nil {
		printField(w, "Done", t.Done.String())
	}
	if t.Created != nil {
		printField(w, "Created", t.Created.String())
	}
	if t.Recurrence != nil {
		printField(w, "Repeats", t.Recurrence.Raw)
	}
	printField(w, "Estimate", stringOrDash(t.Estimate))
	if t.TimeLogged != "" {
		printField(w, "Logged", t.TimeLogged)
	}
	if len(t.BlockedBy) > 0 {
		printField(w, "Blocked by", strings.Join(t.BlockedBy, ", "))
	}
	if len(t.Blocks) > 0 {
		printField(w, "Blocks", strings.Join(t.Blocks, ", "))
	}
	if t.ParentID != "" {
		printField(w, "Parent", t.ParentID)
	}
	if len(t.Children) > 0 {
		printField(w, "Subtasks", strconv.Itoa(len(t.Children)))
	}

	if status != nil {
		if status.IsBlocked {
			printField(w, "Dependency", blockedStyle.Render("blocked"))
			if len(status.BlockingIDs) > 0 {
				printField(w, "Waiting on", strings.Join(status.BlockingIDs, ", "))
			}
			if len(status.Unresolved) > 0 {
				printField(w, "Unresolved", strings.Join(status.Unresolved, ", "))
			}
		} else {
			printField(w, "Dependency", doneStyle.Render("ready"))
		}
	}
}

// StatsTable renders vault statistics as a formatted dashboard.
func StatsTable(w io.Writer, s cache.Stats) {
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render("Vault summary"))
	fmt.Fprintf(w, "Total: %d tasks (%d open, %d completed)\n",
		s.Total, s.Active, s.Completed)
	fmt.Fprintf(w, "Due: %d overdue, %d today, %d this week\n\n",
		s.Overdue, s.DueToday, s.DueThisWeek)

	printCountMap(w, "STAGE", s.ByStage, stageStyles)
	printCountMap(w, "PRIORITY", s.ByPriority, priorityStyles)
	printCountMap(w, "OWNER", s.ByOwner, nil)
	printCountMap(w, "PROJECT", s.ByProject, nil)
}

// GroupedTable renders a grouped vault view with per-group counts.
func GroupedTable(w io.Writer, gs cache.GroupedSummary) {
	if len(gs.Groups) == 0 {
		fmt.Fprintln(os.Stderr, "No groups found.")
		return
	}

	header := fmt.Sprintf("%-24s %6s %10s %8s", strings.ToUpper(gs.Field), "TOTAL", "COMPLETED", "OVERDUE")
	fmt.Fprintln(w, headerStyle.Render(header))

	for _, g := range gs.Groups {
		const keyColW = 24
		fmt.Fprintf(w, "%s %6d %10d %8d\n",
			padRight(g.Key, keyColW), g.Total, g.Completed, g.Overdue)
	}
}

// DepsTable renders ready and blocked tasks as two sections.
func DepsTable(w io.Writer, ready, blocked, all []*task.Task, index deps.Index) {
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render("Ready"))
	if len(ready) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  (none)"))
	}
	for _, t := range ready {
		fmt.Fprintf(w, "  %s %s\n", t.ShortRef(), t.Text)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render("Blocked"))
	if len(blocked) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  (none)"))
	}
	for _, t := range blocked {
		status := deps.Resolve(t, all, index)
		waiting := append(append([]string{}, status.BlockingIDs...), status.Unresolved...)
		fmt.Fprintf(w, "  %s %s %s\n",
			t.ShortRef(), t.Text,
			blockedStyle.Render("← "+strings.Join(waiting, ", ")))
	}
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
}

// printCountMap prints a two-column count table in descending-count order,
// ties broken alphabetically.
func printCountMap(w io.Writer, label string, counts map[string]int, styles map[string]lipgloss.Style) {
	if len(counts) == 0 {
		return
	}
	keys := sortedCountKeys(counts)

	header := fmt.Sprintf("%-16s %6s", label, "COUNT")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, k := range keys {
		const keyColW = 16
		name := k
		if styles != nil {
			name = styledValue(k, styles)
		}
		fmt.Fprintf(w, "%s %6d\n", padRight(name, keyColW), counts[k])
	}
	fmt.Fprintln(w)
}

// sortedCountKeys orders keys by descending count, ties alphabetically.
func sortedCountKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func checkbox(t *task.Task) string {
	if t.Completed {
		return doneStyle.Render("[x]")
	}
	return "[ ]"
}

// padRight pads s with spaces to the given visible width, accounting for ANSI
// escape codes that are invisible but consume bytes.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func stringOrDash(s string) string {
	if s == "" {
		return dimStyle.Render("--")
	}
	return s
}

func styledValueOrDash(s string, styles map[string]lipgloss.Style) string {
	if s == "" {
		return dimStyle.Render("--")
	}
	return styledValue(s, styles)
}

// styledValue renders s using a matching style from the map, or returns s unchanged.
func styledValue(s string, styles map[string]lipgloss.Style) string {
	if st, ok := styles[s]; ok {
		return st.Render(s)
	}
	return s
}
