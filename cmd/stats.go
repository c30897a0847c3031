package cmd

import (
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskvault/internal/cache"
	"github.com/twiced-technology-gmbh/taskvault/internal/clierr"
	"github.com/twiced-technology-gmbh/taskvault/internal/date"
	"github.com/twiced-technology-gmbh/taskvault/internal/output"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	Aliases: []string{"summary"},
	Short:   "Show vault statistics",
	Long:    `Shows aggregate task counts across the vault, optionally grouped by a field.`,
	Args:    cobra.NoArgs,
	RunE:    runStats,
}

func init() {
	statsCmd.Flags().String("group-by", "", "group counts by field ("+strings.Join(cache.ValidGroupByFields(), ", ")+")")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	if err := eng.refresh(); err != nil {
		return err
	}

	groupBy, _ := cmd.Flags().GetString("group-by")
	if groupBy != "" {
		if !slices.Contains(cache.ValidGroupByFields(), groupBy) {
			return clierr.Newf(clierr.InvalidGroupBy, "invalid --group-by field %q; valid: %s",
				groupBy, strings.Join(cache.ValidGroupByFields(), ", "))
		}
		return outputGroupedList(eng.cache.Tasks(), groupBy)
	}

	stats := cache.Summarize(eng.cache.Tasks(), date.Today())

	format := outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, stats)
	}
	if format == output.FormatCompact {
		output.StatsCompact(os.Stdout, stats)
		return nil
	}
	output.StatsTable(os.Stdout, stats)
	return nil
}
