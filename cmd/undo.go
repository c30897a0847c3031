package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskvault/internal/output"
)

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the most recent edit",
	Long: `Reverses the most recent taskvault edit: restores an updated line, removes
an added one, or re-inserts a deleted one. Edits made outside taskvault are
not tracked.`,
	Args: cobra.NoArgs,
	RunE: runUndo,
}

func init() {
	rootCmd.AddCommand(undoCmd)
}

func runUndo(_ *cobra.Command, _ []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	entry, err := eng.updater.Undo()
	if err != nil {
		return err
	}
	logActivity(eng, "undo", "", entry.Document, "")

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, entry)
	}

	switch {
	case entry.New == "":
		output.Messagef(os.Stdout, "Restored deleted line %s:%d", entry.Document, entry.Line)
	case entry.Original == "":
		output.Messagef(os.Stdout, "Removed added line %s:%d", entry.Document, entry.Line)
	default:
		output.Messagef(os.Stdout, "Reverted edit to %s:%d", entry.Document, entry.Line)
	}
	return nil
}
