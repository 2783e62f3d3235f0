package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var webinarCmd = &cobra.Command{
	Use:   "webinar",
	Short: "Process webinar attendance into leads",
}

var webinarProcessCmd = &cobra.Command{
	Use:   "process <webinar-id>",
	Short: "Process one webinar's participants and absentees",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := initApp(cfg)
		if err != nil {
			return err
		}

		summary, err := a.engine.ProcessWebinar(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(summary)
	},
}

var webinarRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Process all recent past webinars",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := initApp(cfg)
		if err != nil {
			return err
		}

		summary, err := a.engine.ProcessRecent(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(summary)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	webinarCmd.AddCommand(webinarProcessCmd)
	webinarCmd.AddCommand(webinarRecentCmd)
	rootCmd.AddCommand(webinarCmd)
}
