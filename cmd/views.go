package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var viewsDate string

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Manage the setter call-list smart views",
}

var viewsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebuild the HOT/WARM/COLD call lists",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := initApp(cfg)
		if err != nil {
			return err
		}

		ref := time.Now()
		if viewsDate != "" {
			ref, err = time.Parse("2006-01-02", viewsDate)
			if err != nil {
				return eris.Wrap(err, "parse --date")
			}
		}

		results, err := a.engine.SyncCallListsAt(cmd.Context(), ref)
		if err != nil {
			return err
		}
		return printJSON(results)
	},
}

func init() {
	viewsSyncCmd.Flags().StringVar(&viewsDate, "date", "", "reference date (YYYY-MM-DD, default today)")
	viewsCmd.AddCommand(viewsSyncCmd)
	rootCmd.AddCommand(viewsCmd)
}
