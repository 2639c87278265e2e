package commands

import (
	"os"

	"github.com/spf13/cobra"

	"newsletter-scrapers/internal/di"
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Runs scrape, curate and notify now and then on $SCHEDULE_CRON until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if os.Getenv("LOG_FORMAT") == "" {
			cfg.LogFormat = "json"
		}

		application, cleanup, err := di.InitializeScheduler(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		return application.Run(cmd.Context())
	},
}
