package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskvault/internal/date"
	"github.com/twiced-technology-gmbh/taskvault/internal/output"
	"github.com/twiced-technology-gmbh/taskvault/internal/updater"
)

var doneCmd = &cobra.Command{
	Use:     "done <ref>",
	Aliases: []string{"complete"},
	Short:   "Complete a task",
	Long: `Marks a task as completed, stamping the completion date. Completing a
recurring task inserts its next occurrence below the completed line.
Use --reopen to flip a completed task back to open.`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

func init() {
	doneCmd.Flags().Bool("reopen", false, "reopen a completed task")
	rootCmd.AddCommand(doneCmd)
}

func runDone(cmd *cobra.Command, args []string) error {
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

	reopen, _ := cmd.Flags().GetBool("reopen")
	completed := !reopen

	updated, err := eng.updater.Update(t, updater.Changes{Completed: &completed})
	if err != nil {
		return err
	}

	action := "complete"
	verb := "Completed"
	if reopen {
		action = "reopen"
		verb = "Reopened"
	}
	logActivity(eng, action, updated.ID, updated.Path, updated.Text)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, updated)
	}
	output.Messagef(os.Stdout, "%s %s: %s", verb, updated.ShortRef(), updated.Text)
	if completed && !t.Completed && t.Recurrence != nil {
		base := date.Today()
		if t.Due != nil {
			base = *t.Due
		}
		if next, ok := t.Recurrence.NextDue(base); ok {
			output.Messagef(os.Stdout, "Next occurrence due %s inserted below", next)
		}
	}
	return nil
}
