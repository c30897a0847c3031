package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskvault/internal/output"
	"github.com/twiced-technology-gmbh/taskvault/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the vault and report task changes",
	Long: `Watches the vault directory tree for document changes and keeps the task
cache current, printing a line per re-parsed document. Stops on Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	if err := eng.refresh(); err != nil {
		return err
	}

	output.Messagef(os.Stdout, "Watching %s (%d tasks)", eng.cfg.Dir(), len(eng.cache.Tasks()))

	w, err := watcher.New(eng.cfg.Dir(), func(ev watcher.Event) {
		switch ev.Op {
		case watcher.OpWrite:
			if err := eng.cache.RefreshOne(ev.Path); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: refreshing %s: %v\n", ev.Path, err)
				return
			}
			output.Messagef(os.Stdout, "Updated %s (%d tasks in document, %d total)",
				ev.Path, len(eng.cache.DocumentTasks(ev.Path)), len(eng.cache.Tasks()))
		case watcher.OpRemove:
			eng.cache.RemoveDocument(ev.Path)
			output.Messagef(os.Stdout, "Removed %s (%d total)", ev.Path, len(eng.cache.Tasks()))
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w.Run(ctx, func(err error) {
		fmt.Fprintf(os.Stderr, "Warning: watcher: %v\n", err)
	})
	return nil
}
