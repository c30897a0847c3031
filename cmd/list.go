package cmd

import (
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskvault/internal/cache"
	"github.com/twiced-technology-gmbh/taskvault/internal/clierr"
	"github.com/twiced-technology-gmbh/taskvault/internal/date"
	"github.com/twiced-technology-gmbh/taskvault/internal/deps"
	"github.com/twiced-technology-gmbh/taskvault/internal/output"
	"github.com/twiced-technology-gmbh/taskvault/internal/task"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long:    `Lists tasks across all vault documents with filtering, sorting, and grouping.`,
	RunE:    runList,
}

func init() {
	listCmd.Flags().Bool("completed", false, "show only completed tasks")
	listCmd.Flags().Bool("open", false, "show only open tasks")
	listCmd.Flags().String("owner", "", "filter by owner")
	listCmd.Flags().String("project", "", "filter by project")
	listCmd.Flags().String("stage", "", "filter by stage")
	listCmd.Flags().String("priority", "", "filter by priority")
	listCmd.Flags().StringSlice("tag", nil, "filter by tag (repeatable; all must match)")
	listCmd.Flags().String("path", "", "filter by document path substring")
	listCmd.Flags().StringP("search", "s", "", "search text, owner, and project (case-insensitive)")
	listCmd.Flags().String("due", "", "due filter: today, this-week, overdue, none, or a YYYY-MM-DD date")
	listCmd.Flags().String("due-before", "", "tasks due on or before this date")
	listCmd.Flags().String("due-after", "", "tasks due on or after this date")
	listCmd.Flags().Bool("blocked", false, "show only blocked tasks")
	listCmd.Flags().Bool("ready", false, "show only unblocked open tasks")
	listCmd.Flags().String("sort", "", "sort field (due, priority, owner, project, text)")
	listCmd.Flags().BoolP("reverse", "r", false, "reverse sort order")
	listCmd.Flags().IntP("limit", "n", 0, "limit number of results")
	listCmd.Flags().String("group-by", "", "group results by field ("+strings.Join(cache.ValidGroupByFields(), ", ")+")")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	if err := eng.refresh(); err != nil {
		return err
	}

	groupBy, _ := cmd.Flags().GetString("group-by")
	if groupBy != "" && !slices.Contains(cache.ValidGroupByFields(), groupBy) {
		return clierr.Newf(clierr.InvalidGroupBy, "invalid --group-by field %q; valid: %s",
			groupBy, strings.Join(cache.ValidGroupByFields(), ", "))
	}

	opts, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	tasks := eng.cache.Filter(opts)

	blocked, _ := cmd.Flags().GetBool("blocked")
	ready, _ := cmd.Flags().GetBool("ready")
	if blocked || ready {
		idx := deps.BuildIndex(eng.cache.Tasks())
		all := eng.cache.Tasks()
		tasks = filterByBlocked(tasks, all, idx, blocked)
	}

	sortBy, _ := cmd.Flags().GetString("sort")
	reverse, _ := cmd.Flags().GetBool("reverse")
	if sortBy != "" || reverse {
		cache.Sort(tasks, sortBy, reverse)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}

	if groupBy != "" {
		return outputGroupedList(tasks, groupBy)
	}
	return outputTaskList(tasks)
}

// filterFromFlags translates the list flag set into filter options.
func filterFromFlags(cmd *cobra.Command) (cache.FilterOptions, error) {
	var opts cache.FilterOptions

	completed, _ := cmd.Flags().GetBool("completed")
	open, _ := cmd.Flags().GetBool("open")
	if completed {
		v := true
		opts.Completed = &v
	} else if open {
		v := false
		opts.Completed = &v
	}

	opts.Owner, _ = cmd.Flags().GetString("owner")
	opts.Project, _ = cmd.Flags().GetString("project")
	opts.Stage, _ = cmd.Flags().GetString("stage")
	opts.Priority, _ = cmd.Flags().GetString("priority")
	opts.Tags, _ = cmd.Flags().GetStringSlice("tag")
	opts.Path, _ = cmd.Flags().GetString("path")
	opts.Search, _ = cmd.Flags().GetString("search")

	due, _ := cmd.Flags().GetString("due")
	switch due {
	case "":
	case cache.DueToday, cache.DueThisWeek, cache.DueOverdue, cache.DueNone:
		opts.DuePreset = due
	default:
		d, err := task.ValidateDateString("due", due)
		if err != nil {
			return opts, err
		}
		opts.DueOn = &d
	}

	if v, _ := cmd.Flags().GetString("due-before"); v != "" {
		d, err := task.ValidateDateString("due-before", v)
		if err != nil {
			return opts, err
		}
		opts.DueBefore = &d
	}
	if v, _ := cmd.Flags().GetString("due-after"); v != "" {
		d, err := task.ValidateDateString("due-after", v)
		if err != nil {
			return opts, err
		}
		opts.DueAfter = &d
	}

	opts.Today = date.Today()
	return opts, nil
}

// filterByBlocked keeps tasks matching the requested blocking state. Ready
// means open and unblocked.
func filterByBlocked(tasks, all []*task.Task, idx deps.Index, wantBlocked bool) []*task.Task {
	out := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		st := deps.Resolve(t, all, idx)
		if wantBlocked && st.IsBlocked {
			out = append(out, t)
		}
		if !wantBlocked && !st.IsBlocked && !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

func outputGroupedList(tasks []*task.Task, groupBy string) error {
	grouped := cache.GroupBy(tasks, groupBy, date.Today())
	format := outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, grouped)
	}
	if format == output.FormatCompact {
		output.GroupedCompact(os.Stdout, grouped)
		return nil
	}
	output.GroupedTable(os.Stdout, grouped)
	return nil
}

func outputTaskList(tasks []*task.Task) error {
	format := outputFormat()
	if format == output.FormatJSON {
		if tasks == nil {
			tasks = []*task.Task{}
		}
		return output.JSON(os.Stdout, tasks)
	}
	if format == output.FormatCompact {
		output.TaskCompact(os.Stdout, tasks)
		return nil
	}

	output.TaskTable(os.Stdout, tasks)
	return nil
}
