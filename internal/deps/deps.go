// Package deps resolves textual dependency references between tasks into
// live blocking status, with cycle detection for diagnostics.
package deps

import (
	"github.com/twiced-technology-gmbh/taskvault/internal/task"
)

// Index maps both short references ("basename:line") and full identities
// ("path:line") to tasks. It is a denormalized view over one universe
// snapshot: rebuild it whenever the task list changes, never patch it.
type Index map[string]*task.Task

// BuildIndex builds the reference index in O(n). Resolving each dependency
// through the index avoids the per-reference linear scan a lookup over the
// raw task list would cost. A short reference shared by documents with the
// same basename is dropped entirely: an ambiguous reference must fail to
// resolve, not silently pick a winner.
func BuildIndex(all []*task.Task) Index {
	idx := make(Index, 2*len(all))
	ambiguous := make(map[string]bool)
	for _, t := range all {
		idx[t.ID] = t
		short := t.ShortRef()
		if prev, ok := idx[short]; ok && prev.ID != t.ID {
			ambiguous[short] = true
			continue
		}
		idx[short] = t
	}
	for ref := range ambiguous {
		delete(idx, ref)
	}
	return idx
}

// Status is the derived dependency view of one task against one universe
// snapshot. It is recomputed on demand and never cached across snapshots.
type Status struct {
	IsBlocked bool `json:"is_blocked"`

	// BlockingIDs are resolved blockers that are not yet completed.
	BlockingIDs []string `json:"blocking_ids,omitempty"`
	// Unresolved are blocked-by references that did not resolve. They
	// count as blocking: a typo must never silently unblock a task.
	Unresolved []string `json:"unresolved,omitempty"`
	// BlockedIDs are tasks this task blocks, either declared via its own
	// blocks list or implied by another task's blocked-by reference.
	BlockedIDs []string `json:"blocked_ids,omitempty"`
}

// BlockingCount returns the number of blockers holding this task.
func (s Status) BlockingCount() int { return len(s.BlockingIDs) + len(s.Unresolved) }

// Resolve computes the dependency status for one task. Dependency links are
// bidirectional by implication: a blocks edge exists when either side
// declares it.
func Resolve(t *task.Task, all []*task.Task, idx Index) Status {
	var st Status

	for _, ref := range t.BlockedBy {
		blocker, ok := idx[ref]
		if !ok {
			st.Unresolved = append(st.Unresolved, ref)
			st.IsBlocked = true
			continue
		}
		if !blocker.Completed {
			st.BlockingIDs = append(st.BlockingIDs, blocker.ID)
			st.IsBlocked = true
		}
	}

	seen := make(map[string]bool)
	for _, ref := range t.Blocks {
		if target, ok := idx[ref]; ok && target.ID != t.ID && !seen[target.ID] {
			seen[target.ID] = true
			st.BlockedIDs = append(st.BlockedIDs, target.ID)
		}
	}
	for _, other := range all {
		if other.ID == t.ID || seen[other.ID] {
			continue
		}
		for _, ref := range other.BlockedBy {
			if blocker, ok := idx[ref]; ok && blocker.ID == t.ID {
				seen[other.ID] = true
				st.BlockedIDs = append(st.BlockedIDs, other.ID)
				break
			}
		}
	}

	return st
}

// DetectCycle walks the blocks graph from t and returns the identity path
// of the first cycle found, or nil. The resolver never refuses cyclic
// data; this exists purely for diagnostics.
func DetectCycle(t *task.Task, all []*task.Task, idx Index) []string {
	visited := make(map[string]bool)
	onPath := make(map[string]bool)
	var path []string

	var walk func(cur *task.Task) []string
	walk = func(cur *task.Task) []string {
		if onPath[cur.ID] {
			// Trim the path to the cycle itself.
			for i, id := range path {
				if id == cur.ID {
					return append(append([]string{}, path[i:]...), cur.ID)
				}
			}
			return append(append([]string{}, path...), cur.ID)
		}
		if visited[cur.ID] {
			return nil
		}
		visited[cur.ID] = true
		onPath[cur.ID] = true
		path = append(path, cur.ID)

		for _, id := range Resolve(cur, all, idx).BlockedIDs {
			if next, ok := idx[id]; ok {
				if cycle := walk(next); cycle != nil {
					return cycle
				}
			}
		}

		onPath[cur.ID] = false
		path = path[:len(path)-1]
		return nil
	}

	return walk(t)
}

// BlockedTasks returns the incomplete tasks that are currently blocked.
func BlockedTasks(all []*task.Task, idx Index) []*task.Task {
	return partition(all, idx, true)
}

// ReadyTasks returns the incomplete tasks with no live blockers.
func ReadyTasks(all []*task.Task, idx Index) []*task.Task {
	return partition(all, idx, false)
}

func partition(all []*task.Task, idx Index, blocked bool) []*task.Task {
	var out []*task.Task
	for _, t := range all {
		if t.Completed {
			continue
		}
		if Resolve(t, all, idx).IsBlocked == blocked {
			out = append(out, t)
		}
	}
	return out
}

// SortByDependencyOrder orders tasks so that a task that blocks others is
// placed after everything it blocks. Under cycles this degrades gracefully
// rather than failing; ties keep input order.
func SortByDependencyOrder(tasks []*task.Task, idx Index) []*task.Task {
	visited := make(map[string]bool)
	inInput := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		inInput[t.ID] = true
	}

	var ordered []*task.Task
	var visit func(t *task.Task)
	visit = func(t *task.Task) {
		if visited[t.ID] {
			return
		}
		visited[t.ID] = true
		for _, id := range Resolve(t, tasks, idx).BlockedIDs {
			if next, ok := idx[id]; ok && inInput[next.ID] {
				visit(next)
			}
		}
		ordered = append(ordered, t)
	}

	for _, t := range tasks {
		visit(t)
	}
	return ordered
}
