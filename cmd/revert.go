package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dateradar/pricing-cli/internal/executor"
	"github.com/dateradar/pricing-cli/internal/model"
)

var revertLive bool

var revertCmd = &cobra.Command{
	Use:   "revert [log-id]",
	Short: "Undo a previous price update run",
	Long:  "Replays a run's log with old and new prices swapped, restoring every successfully applied price. Without a log id, the most recent run is reverted.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("revert"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var prior *model.UpdateLog
		if len(args) == 1 {
			prior, err = st.GetUpdateLog(ctx, args[0])
			if err != nil {
				return eris.Wrapf(err, "load log %s", args[0])
			}
		} else {
			prior, err = st.LatestUpdateLog(ctx)
			if err != nil {
				return eris.Wrap(err, "load latest log")
			}
			if prior == nil {
				return eris.New("no update logs recorded")
			}
		}

		if len(prior.Succeeded()) == 0 {
			zap.L().Info("revert: log has no applied entries, nothing to revert",
				zap.String("log_id", prior.ID))
			return nil
		}

		exec := executor.New(initEbay(), st)
		log, err := exec.Revert(ctx, prior, !revertLive)
		if err != nil {
			return eris.Wrap(err, "execute reversal")
		}
		printRunSummary(log)
		return nil
	},
}

func init() {
	revertCmd.Flags().BoolVar(&revertLive, "live", false, "apply the reversal instead of planning only")
	rootCmd.AddCommand(revertCmd)
}
