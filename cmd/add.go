package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/twiced-technology-gmbh/taskvault/internal/output"
	"github.com/twiced-technology-gmbh/taskvault/internal/task"
	"github.com/twiced-technology-gmbh/taskvault/internal/updater"
)

var addCmd = &cobra.Command{
	Use:     "add <text>",
	Aliases: []string{"new"},
	Short:   "Add a task line to a document",
	Long: `Appends a new checklist line to a vault document, creating the document if
needed. Use --at-line to insert at a specific zero-based line index instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringP("file", "f", "", "target document path (default: tasks + vault extension)")
	addCmd.Flags().String("owner", "", "task owner")
	addCmd.Flags().String("project", "", "project name")
	addCmd.Flags().String("stage", "", "workflow stage")
	addCmd.Flags().StringP("priority", "p", "", "priority (high, medium, low)")
	addCmd.Flags().String("due", "", "due date (YYYY-MM-DD)")
	addCmd.Flags().StringSlice("tag", nil, "tag (repeatable)")
	addCmd.Flags().String("repeat", "", "recurrence rule (e.g. \"weekly\", \"every 2 weeks\")")
	addCmd.Flags().String("estimate", "", "effort estimate (e.g. 2h, 1d)")
	addCmd.Flags().Int("at-line", -1, "insert at this zero-based line index instead of appending")
	addCmd.Flags().SetNormalizeFunc(aliasFlags)
	rootCmd.AddCommand(addCmd)
}

// aliasFlags accepts common alternate spellings of shared flag names.
func aliasFlags(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "tags":
		name = "tag"
	case "assignee":
		name = "owner"
	}
	return pflag.NormalizedName(name)
}

func runAdd(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")

	file, _ := cmd.Flags().GetString("file")
	if file == "" {
		file = "tasks" + eng.cfg.Extension
	}

	opts := updater.CreateOptions{}
	opts.Owner, _ = cmd.Flags().GetString("owner")
	opts.Project, _ = cmd.Flags().GetString("project")
	opts.Stage, _ = cmd.Flags().GetString("stage")
	opts.Priority, _ = cmd.Flags().GetString("priority")
	opts.Tags, _ = cmd.Flags().GetStringSlice("tag")
	opts.Recurrence, _ = cmd.Flags().GetString("repeat")
	opts.Estimate, _ = cmd.Flags().GetString("estimate")

	if opts.Priority == "" {
		opts.Priority = eng.cfg.DefaultPriority
	}

	if due, _ := cmd.Flags().GetString("due"); due != "" {
		d, err := task.ValidateDateString("due", due)
		if err != nil {
			return err
		}
		opts.Due = &d
	}
	if cmd.Flags().Changed("at-line") {
		at, _ := cmd.Flags().GetInt("at-line")
		opts.AtLine = &at
	}

	t, err := eng.updater.Create(file, text, opts)
	if err != nil {
		return err
	}
	logActivity(eng, "create", t.ID, t.Path, t.Text)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, t)
	}
	output.Messagef(os.Stdout, "Added %s: %s", t.ShortRef(), t.Text)
	return nil
}
