package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskvault/internal/output"
	"github.com/twiced-technology-gmbh/taskvault/internal/task"
	"github.com/twiced-technology-gmbh/taskvault/internal/updater"
)

var editCmd = &cobra.Command{
	Use:   "edit <ref>",
	Short: "Edit fields of a task",
	Long: `Edits one or more fields of a task line in place. Only the given flags
change; everything else on the line is preserved. The edit is refused if the
line changed on disk since it was read.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().String("text", "", "replace the task text")
	editCmd.Flags().String("owner", "", "set owner (empty string clears)")
	editCmd.Flags().String("project", "", "set project (empty string clears)")
	editCmd.Flags().String("stage", "", "set workflow stage (empty string clears)")
	editCmd.Flags().StringP("priority", "p", "", "set priority (empty string clears)")
	editCmd.Flags().String("due", "", "set due date (YYYY-MM-DD)")
	editCmd.Flags().Bool("clear-due", false, "remove the due date")
	editCmd.Flags().StringSlice("tag", nil, "replace the tag set (repeatable)")
	editCmd.Flags().String("repeat", "", "set recurrence rule (empty string clears)")
	editCmd.Flags().String("estimate", "", "set effort estimate")
	editCmd.Flags().String("logged", "", "set logged time")
	editCmd.Flags().StringSlice("blocked-by", nil, "replace blocked-by references (repeatable)")
	editCmd.Flags().StringSlice("blocks", nil, "replace blocks references (repeatable)")
	editCmd.Flags().SetNormalizeFunc(aliasFlags)
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
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

	ch, err := changesFromFlags(cmd)
	if err != nil {
		return err
	}

	updated, err := eng.updater.Update(t, ch)
	if err != nil {
		return err
	}
	logActivity(eng, "edit", updated.ID, updated.Path, updated.Text)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, updated)
	}
	output.Messagef(os.Stdout, "Updated %s: %s", updated.ShortRef(), updated.Text)
	return nil
}

// changesFromFlags builds the change set from explicitly set flags, so an
// empty string means "clear" rather than "not given".
func changesFromFlags(cmd *cobra.Command) (updater.Changes, error) {
	var ch updater.Changes

	setString := func(flag string, dst **string) {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetString(flag)
			*dst = &v
		}
	}
	setString("text", &ch.Text)
	setString("owner", &ch.Owner)
	setString("project", &ch.Project)
	setString("stage", &ch.Stage)
	setString("priority", &ch.Priority)
	setString("repeat", &ch.Recurrence)
	setString("estimate", &ch.Estimate)
	setString("logged", &ch.TimeLogged)

	if cmd.Flags().Changed("due") {
		v, _ := cmd.Flags().GetString("due")
		d, err := task.ValidateDateString("due", v)
		if err != nil {
			return ch, err
		}
		ch.Due = &d
	}
	if clear, _ := cmd.Flags().GetBool("clear-due"); clear {
		ch.ClearDue = true
		ch.Due = nil
	}

	if cmd.Flags().Changed("tag") {
		ch.Tags, _ = cmd.Flags().GetStringSlice("tag")
	}
	if cmd.Flags().Changed("blocked-by") {
		ch.BlockedBy, _ = cmd.Flags().GetStringSlice("blocked-by")
	}
	if cmd.Flags().Changed("blocks") {
		ch.Blocks, _ = cmd.Flags().GetStringSlice("blocks")
	}

	return ch, nil
}
