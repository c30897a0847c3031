package cache

import (
	"sort"

	"github.com/twiced-technology-gmbh/taskvault/internal/task"
)

// priorityRank orders the priority enum highest-first; unset sorts last.
func priorityRank(p string) int {
	for i, known := range task.Priorities {
		if p == known {
			return i
		}
	}
	return len(task.Priorities)
}

// Sort sorts tasks by the given field. Stable, so ties keep document order.
func Sort(tasks []*task.Task, field string, reverse bool) {
	sort.SliceStable(tasks, func(i, j int) bool {
		less := compareTasks(tasks[i], tasks[j], field)
		if reverse {
			return !less
		}
		return less
	})
}

func compareTasks(a, b *task.Task, field string) bool {
	switch field {
	case "due":
		return compareDue(a, b)
	case "priority":
		return priorityRank(a.Priority) < priorityRank(b.Priority)
	case "owner":
		return a.Owner < b.Owner
	case "project":
		return a.Project < b.Project
	case "text":
		return a.Text < b.Text
	default: // document position
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Line < b.Line
	}
}

func compareDue(a, b *task.Task) bool {
	if a.Due == nil && b.Due == nil {
		return false
	}
	if a.Due == nil {
		return false // nil sorts last
	}
	if b.Due == nil {
		return true
	}
	return a.Due.BeforeDate(*b.Due)
}
