package main

import (
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the reprice pass on a recurring schedule",
	Long:  "Starts a long-lived process that executes the reprice pass on the configured cron expression. Whether runs apply changes or stay dry follows schedule.live.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("schedule"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c := cron.New()
		_, err := c.AddFunc(cfg.Schedule.Cron, func() {
			log, err := repriceRun(ctx, cfg.Schedule.Live)
			if err != nil {
				zap.L().Error("schedule: reprice run failed", zap.Error(err))
				return
			}
			zap.L().Info("schedule: reprice run complete",
				zap.String("log_id", log.ID),
				zap.Bool("dry_run", log.DryRun),
				zap.Int("planned", len(log.Entries)),
				zap.Int("applied", len(log.Succeeded())),
			)
		})
		if err != nil {
			return eris.Wrapf(err, "invalid cron expression %q", cfg.Schedule.Cron)
		}

		zap.L().Info("schedule: started",
			zap.String("cron", cfg.Schedule.Cron),
			zap.Bool("live", cfg.Schedule.Live),
		)
		c.Start()

		<-ctx.Done()
		zap.L().Info("schedule: stopping")
		<-c.Stop().Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}
