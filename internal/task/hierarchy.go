package task

import "sort"

// BuildHierarchy assigns parent/child links from indentation depth and
// returns the root tasks. Links are stored as identity keys rather than
// pointers so a task list can be rebuilt wholesale each refresh.
//
// Tasks are processed in (document path, line index) order against a stack
// of candidate ancestors. Reading the stack top-down at any moment yields
// strictly decreasing depth within one document, which makes parent
// assignment O(n) amortized per document.
func BuildHierarchy(tasks []*Task) []*Task {
	sorted := append([]*Task{}, tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Path != sorted[j].Path {
			return sorted[i].Path < sorted[j].Path
		}
		return sorted[i].Line < sorted[j].Line
	})

	for _, t := range sorted {
		t.ParentID = ""
		t.Children = nil
	}

	var roots []*Task
	var stack []*Task
	for _, t := range sorted {
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.Path != t.Path || top.Depth >= t.Depth {
				stack = stack[:len(stack)-1]
				continue
			}
			break
		}

		if len(stack) > 0 && t.Depth > 0 {
			// A depth jump attaches to the nearest preceding shallower
			// task, not necessarily depth-1 of the current task.
			parent := stack[len(stack)-1]
			t.ParentID = parent.ID
			parent.Children = append(parent.Children, t.ID)
		} else {
			roots = append(roots, t)
		}

		stack = append(stack, t)
	}

	return roots
}
