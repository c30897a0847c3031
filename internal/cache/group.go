package cache

import (
	"sort"

	"github.com/twiced-technology-gmbh/taskvault/internal/date"
	"github.com/twiced-technology-gmbh/taskvault/internal/task"
)

// GroupedSummary holds tasks grouped by a field.
type GroupedSummary struct {
	Field  string         `json:"field"`
	Groups []GroupSummary `json:"groups"`
}

// GroupSummary is one group within a grouped view.
type GroupSummary struct {
	Key       string `json:"key"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Overdue   int    `json:"overdue"`
}

// GroupBy groups tasks by the specified field and returns summaries per
// group, keys sorted alphabetically.
func GroupBy(tasks []*task.Task, field string, today date.Date) GroupedSummary {
	if today.IsZero() {
		today = date.Today()
	}

	groups := make(map[string][]*task.Task)
	for _, t := range tasks {
		for _, key := range groupKeys(t, field) {
			groups[key] = append(groups[key], t)
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := GroupedSummary{Field: field, Groups: make([]GroupSummary, 0, len(keys))}
	for _, key := range keys {
		g := GroupSummary{Key: key}
		for _, t := range groups[key] {
			g.Total++
			if t.Completed {
				g.Completed++
			} else if t.Due != nil && t.Due.BeforeDate(today) {
				g.Overdue++
			}
		}
		result.Groups = append(result.Groups, g)
	}
	return result
}

func groupKeys(t *task.Task, field string) []string {
	switch field {
	case "owner":
		if t.Owner == "" {
			return []string{"(unowned)"}
		}
		return []string{t.Owner}
	case "project":
		if t.Project == "" {
			return []string{"(no project)"}
		}
		return []string{t.Project}
	case "stage":
		if t.Stage == "" {
			return []string{"(no stage)"}
		}
		return []string{t.Stage}
	case "priority":
		if t.Priority == "" {
			return []string{"(no priority)"}
		}
		return []string{t.Priority}
	case "tag":
		if len(t.Tags) == 0 {
			return []string{"(untagged)"}
		}
		return t.Tags
	default:
		return []string{"(all)"}
	}
}

// ValidGroupByFields returns the list of valid --group-by field names.
func ValidGroupByFields() []string {
	return []string{"owner", "project", "stage", "priority", "tag"}
}
