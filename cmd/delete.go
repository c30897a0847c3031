package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/taskvault/internal/clierr"
	"github.com/twiced-technology-gmbh/taskvault/internal/deps"
	"github.com/twiced-technology-gmbh/taskvault/internal/output"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <ref>",
	Aliases: []string{"rm"},
	Short:   "Delete a task line",
	Long: `Removes a task's line from its document. Prompts for confirmation in
interactive mode. The deletion can be reversed with 'taskvault undo'.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
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

	// Warn if other tasks reference this one as a blocker.
	warnDependents(eng, t.ID)

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return clierr.New(clierr.ConfirmationReq,
				"cannot prompt for confirmation (not a terminal); use --yes")
		}
		fmt.Fprintf(os.Stderr, "Delete task %s %q? [y/N] ", t.ShortRef(), t.Text)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(os.Stderr, "Canceled.")
			return nil
		}
	}

	if err := eng.updater.Delete(t); err != nil {
		return err
	}
	logActivity(eng, "delete", t.ID, t.Path, t.Text)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]interface{}{
			"status": "deleted",
			"id":     t.ID,
			"text":   t.Text,
		})
	}

	output.Messagef(os.Stdout, "Deleted %s: %s", t.ShortRef(), t.Text)
	return nil
}

// warnDependents prints a stderr warning for every task that lists the
// target as a blocker, since its reference will dangle after the delete.
func warnDependents(e *engine, id string) {
	all := e.cache.Tasks()
	idx := deps.BuildIndex(all)
	t, ok := idx[id]
	if !ok {
		return
	}
	st := deps.Resolve(t, all, idx)
	for _, dep := range st.BlockedIDs {
		fmt.Fprintf(os.Stderr, "Warning: %s is blocked by this task\n", dep)
	}
}
