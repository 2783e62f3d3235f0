package main

import (
	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Manage CRM custom fields",
}

var fieldsProvisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Find or create the lead custom fields and print the binding",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := initApp(cfg)
		if err != nil {
			return err
		}

		binding, err := a.engine.Binding(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(map[string]string{
			"lead_source":        binding.LeadSource,
			"webinar_watch_time": binding.WatchTime,
			"priority":           binding.Priority,
			"webinar_date":       binding.WebinarDate,
		})
	},
}

func init() {
	fieldsCmd.AddCommand(fieldsProvisionCmd)
	rootCmd.AddCommand(fieldsCmd)
}
