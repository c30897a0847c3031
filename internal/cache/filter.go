package cache

import (
	"strings"

	"github.com/twiced-technology-gmbh/taskvault/internal/date"
	"github.com/twiced-technology-gmbh/taskvault/internal/task"
)

// Due-date presets.
const (
	DueToday    = "today"
	DueThisWeek = "this-week"
	DueOverdue  = "overdue"
	DueNone     = "none"
)

// FilterOptions defines which tasks to include. All criteria combine with
// AND logic; zero values mean "no filter".
type FilterOptions struct {
	Completed *bool
	Owner     string
	Project   string
	Stage     string
	Priority  string
	Tags      []string // every listed tag must be present
	Path      string   // path substring match
	Search    string   // case-insensitive match across text, owner, project

	DuePreset string     // one of the Due* presets
	DueOn     *date.Date // exact due date
	DueAfter  *date.Date // inclusive range start
	DueBefore *date.Date // inclusive range end

	// Today anchors the due-date presets; zero means the current date.
	Today date.Date
}

// Filter returns tasks matching all specified criteria.
func Filter(tasks []*task.Task, opts FilterOptions) []*task.Task {
	if opts.Today.IsZero() {
		opts.Today = date.Today()
	}
	var result []*task.Task
	for _, t := range tasks {
		if matchesFilter(t, opts) {
			result = append(result, t)
		}
	}
	return result
}

// Filter runs FilterOptions against the cache's aggregate task list.
func (c *Cache) Filter(opts FilterOptions) []*task.Task {
	return Filter(c.tasks, opts)
}

func matchesFilter(t *task.Task, opts FilterOptions) bool {
	if !matchesFields(t, opts) {
		return false
	}
	return matchesDue(t, opts)
}

func matchesFields(t *task.Task, opts FilterOptions) bool {
	if opts.Completed != nil && t.Completed != *opts.Completed {
		return false
	}
	if opts.Owner != "" && !strings.EqualFold(t.Owner, opts.Owner) {
		return false
	}
	if opts.Project != "" && !strings.EqualFold(t.Project, opts.Project) {
		return false
	}
	if opts.Stage != "" && !strings.EqualFold(t.Stage, opts.Stage) {
		return false
	}
	if opts.Priority != "" && !strings.EqualFold(t.Priority, opts.Priority) {
		return false
	}
	for _, tag := range opts.Tags {
		if !containsStr(t.Tags, strings.ToLower(tag)) {
			return false
		}
	}
	if opts.Path != "" && !strings.Contains(t.Path, opts.Path) {
		return false
	}
	if opts.Search != "" && !matchesSearch(t, opts.Search) {
		return false
	}
	return true
}

// matchesSearch performs case-insensitive substring matching across text,
// owner, and project.
func matchesSearch(t *task.Task, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.Text), q) ||
		strings.Contains(strings.ToLower(t.Owner), q) ||
		strings.Contains(strings.ToLower(t.Project), q)
}

func matchesDue(t *task.Task, opts FilterOptions) bool {
	switch opts.DuePreset {
	case DueToday:
		if t.Due == nil || !t.Due.EqualDate(opts.Today) {
			return false
		}
	case DueThisWeek:
		if t.Due == nil ||
			t.Due.BeforeDate(opts.Today.StartOfWeek()) ||
			t.Due.AfterDate(opts.Today.EndOfWeek()) {
			return false
		}
	case DueOverdue:
		if t.Completed || t.Due == nil || !t.Due.BeforeDate(opts.Today) {
			return false
		}
	case DueNone:
		if t.Due != nil {
			return false
		}
	}

	if opts.DueOn != nil && (t.Due == nil || !t.Due.EqualDate(*opts.DueOn)) {
		return false
	}
	if opts.DueAfter != nil && (t.Due == nil || t.Due.BeforeDate(*opts.DueAfter)) {
		return false
	}
	if opts.DueBefore != nil && (t.Due == nil || t.Due.AfterDate(*opts.DueBefore)) {
		return false
	}
	return true
}

func containsStr(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
