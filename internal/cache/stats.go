package cache

import (
	"sort"

	"github.com/twiced-technology-gmbh/taskvault/internal/date"
	"github.com/twiced-technology-gmbh/taskvault/internal/task"
)

// Stats is the aggregate vault overview.
type Stats struct {
	Total       int `json:"total"`
	Completed   int `json:"completed"`
	Active      int `json:"active"`
	Overdue     int `json:"overdue"`
	DueToday    int `json:"due_today"`
	DueThisWeek int `json:"due_this_week"`

	ByStage    map[string]int `json:"by_stage,omitempty"`
	ByOwner    map[string]int `json:"by_owner,omitempty"`
	ByProject  map[string]int `json:"by_project,omitempty"`
	ByPriority map[string]int `json:"by_priority,omitempty"`
}

// Summarize computes vault statistics from a task list, anchored at today.
func Summarize(tasks []*task.Task, today date.Date) Stats {
	s := Stats{
		ByStage:    make(map[string]int),
		ByOwner:    make(map[string]int),
		ByProject:  make(map[string]int),
		ByPriority: make(map[string]int),
	}
	weekStart, weekEnd := today.StartOfWeek(), today.EndOfWeek()

	for _, t := range tasks {
		s.Total++
		if t.Completed {
			s.Completed++
		} else {
			s.Active++
			if t.Due != nil {
				if t.Due.BeforeDate(today) {
					s.Overdue++
				}
				if t.Due.EqualDate(today) {
					s.DueToday++
				}
				if !t.Due.BeforeDate(weekStart) && !t.Due.AfterDate(weekEnd) {
					s.DueThisWeek++
				}
			}
		}
		if t.Stage != "" {
			s.ByStage[t.Stage]++
		}
		if t.Owner != "" {
			s.ByOwner[t.Owner]++
		}
		if t.Project != "" {
			s.ByProject[t.Project]++
		}
		if t.Priority != "" {
			s.ByPriority[t.Priority]++
		}
	}

	return s
}

// Owners lists the distinct owners across the vault, sorted.
func (c *Cache) Owners() []string {
	return distinct(c.tasks, func(t *task.Task) []string {
		if t.Owner == "" {
			return nil
		}
		return []string{t.Owner}
	})
}

// Projects lists the distinct projects across the vault, sorted.
func (c *Cache) Projects() []string {
	return distinct(c.tasks, func(t *task.Task) []string {
		if t.Project == "" {
			return nil
		}
		return []string{t.Project}
	})
}

// DueDates lists the distinct due dates across the vault, sorted.
func (c *Cache) DueDates() []string {
	return distinct(c.tasks, func(t *task.Task) []string {
		if t.Due == nil {
			return nil
		}
		return []string{t.Due.String()}
	})
}

// Tags lists the distinct tags across the vault, sorted.
func (c *Cache) Tags() []string {
	return distinct(c.tasks, func(t *task.Task) []string {
		return t.Tags
	})
}

func distinct(tasks []*task.Task, extract func(*task.Task) []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tasks {
		for _, v := range extract(t) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Strings(out)
	return out
}
