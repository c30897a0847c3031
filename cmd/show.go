package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskvault/internal/deps"
	"github.com/twiced-technology-gmbh/taskvault/internal/output"
	"github.com/twiced-technology-gmbh/taskvault/internal/task"
)

var showCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show full details of a task",
	Long: `Shows a single task identified by its short reference ("doc:12") or full
identity ("sub/doc.md:12"), including its live dependency status.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(_ *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	if err := eng.refresh(); err != nil {
		return err
	}

	t, err := eng.findTask(args[0])
	if err != nil {
		return err
	}

	all := eng.cache.Tasks()
	idx := deps.BuildIndex(all)
	status := deps.Resolve(t, all, idx)

	format := outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, struct {
			*task.Task
			Dependencies deps.Status `json:"dependencies"`
		}{t, status})
	}
	if format == output.FormatCompact {
		output.TaskDetailCompact(os.Stdout, t)
		return nil
	}

	output.TaskDetail(os.Stdout, t, &status)
	return nil
}
