package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskvault/internal/deps"
	"github.com/twiced-technology-gmbh/taskvault/internal/output"
	"github.com/twiced-technology-gmbh/taskvault/internal/task"
)

var depsCmd = &cobra.Command{
	Use:   "deps [ref]",
	Short: "Inspect task dependencies",
	Long: `Without arguments, partitions open tasks into ready and blocked sets.
With a reference, shows that task's dependency status and reports any
dependency cycle it participates in.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeps,
}

func init() {
	depsCmd.Flags().Bool("order", false, "list open tasks in dependency order (blockers last)")
	rootCmd.AddCommand(depsCmd)
}

func runDeps(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	if err := eng.refresh(); err != nil {
		return err
	}

	all := eng.cache.Tasks()
	idx := deps.BuildIndex(all)

	if len(args) == 1 {
		return depsForTask(eng, args[0], all, idx)
	}

	if order, _ := cmd.Flags().GetBool("order"); order {
		open := make([]*task.Task, 0, len(all))
		for _, t := range all {
			if !t.Completed {
				open = append(open, t)
			}
		}
		return outputTaskList(deps.SortByDependencyOrder(open, idx))
	}

	blocked := deps.BlockedTasks(all, idx)
	ready := deps.ReadyTasks(all, idx)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"ready":   ready,
			"blocked": blocked,
		})
	}
	output.DepsTable(os.Stdout, ready, blocked, all, idx)
	return nil
}

func depsForTask(eng *engine, ref string, all []*task.Task, idx deps.Index) error {
	t, err := eng.findTask(ref)
	if err != nil {
		return err
	}

	status := deps.Resolve(t, all, idx)
	cycle := deps.DetectCycle(t, all, idx)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"task":   t.ID,
			"status": status,
			"cycle":  cycle,
		})
	}

	output.TaskDetail(os.Stdout, t, &status)
	if len(cycle) > 0 {
		output.Messagef(os.Stderr, "Warning: dependency cycle: %s", strings.Join(cycle, " -> "))
	}
	return nil
}
