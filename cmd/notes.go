package main

import (
	"github.com/spf13/cobra"
)

var notesSkip int

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Manage setter annotations",
}

var notesBackfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Attach annotations to all existing classified leads",
	Long:  "Walks every stored lead with a lead_source value and attaches a freshly rendered setter note. Resumable: pass --skip with the next_skip from an interrupted run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := initApp(cfg)
		if err != nil {
			return err
		}

		summary, err := a.engine.BackfillNotes(cmd.Context(), notesSkip)
		if summary != nil {
			_ = printJSON(summary)
		}
		return err
	},
}

func init() {
	notesBackfillCmd.Flags().IntVar(&notesSkip, "skip", 0, "offset to resume pagination from")
	notesCmd.AddCommand(notesBackfillCmd)
	rootCmd.AddCommand(notesCmd)
}
