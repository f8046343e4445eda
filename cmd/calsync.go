package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dateradar/pricing-cli/internal/calsync"
	"github.com/dateradar/pricing-cli/internal/catalog"
)

var calsyncCatalog string

var calsyncCmd = &cobra.Command{
	Use:   "calsync",
	Short: "Push listing reminders for upcoming key dates to Google Calendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("calsync"); err != nil {
			return err
		}

		catalogPath := calsyncCatalog
		if catalogPath == "" {
			catalogPath = cfg.Rules.CatalogPath
		}
		cat, err := catalog.Load(catalogPath)
		if err != nil {
			return err
		}

		s := calsync.New(initCalendar(), cfg.Calendar.CalendarID, cfg.Calendar.LeadDays)
		res, err := s.Sync(cmd.Context(), cat)
		if err != nil {
			return err
		}
		fmt.Printf("reminders created: %d, skipped: %d\n", res.Created, res.Skipped)
		return nil
	},
}

func init() {
	calsyncCmd.Flags().StringVar(&calsyncCatalog, "catalog", "", "catalog YAML path (default from config)")
	rootCmd.AddCommand(calsyncCmd)
}
