package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskvault/internal/config"
	"github.com/twiced-technology-gmbh/taskvault/internal/output"
)

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Initialize a vault in the current (or --dir) directory",
	Long: `Creates a taskvault config file in the target directory. Existing markdown
documents are left untouched; their checklist lines become visible to taskvault
on the next command.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, args []string) error {
	dir := flagDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		dir = cwd
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		name = filepath.Base(abs)
	}

	cfg, err := config.Init(dir, name)
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{
			"vault":  cfg.Vault.Name,
			"dir":    cfg.Dir(),
			"config": cfg.ConfigPath(),
		})
	}
	output.Messagef(os.Stdout, "Initialized vault %q in %s", cfg.Vault.Name, cfg.Dir())
	return nil
}
