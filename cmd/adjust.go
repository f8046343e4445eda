package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dateradar/pricing-cli/internal/executor"
	"github.com/dateradar/pricing-cli/internal/fetcher"
	"github.com/dateradar/pricing-cli/internal/reconcile"
)

var (
	adjustIDs   []string
	adjustType  string
	adjustValue float64
	adjustLive  bool
)

var adjustCmd = &cobra.Command{
	Use:   "adjust",
	Short: "Apply a manual bulk price adjustment to selected listings",
	Long:  "Adjusts the given listings by percent or fixed amount, or sets an absolute price. Results are floored at $0.99 and sub-cent changes are skipped. Dry-run by default.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("adjust"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		ebayClient := initEbay()
		listings, err := fetcher.FetchListings(ctx, ebayClient)
		if err != nil {
			return err
		}

		plan, err := reconcile.BuildBulkPlan(listings, adjustIDs, reconcile.Adjustment{
			Type:  reconcile.AdjustmentType(adjustType),
			Value: adjustValue,
		})
		if err != nil {
			return err
		}
		if len(plan) == 0 {
			zap.L().Info("adjust: nothing to change",
				zap.Int("requested", len(adjustIDs)))
			return nil
		}

		exec := executor.New(ebayClient, st)
		log, err := exec.Execute(ctx, plan, executor.RunMeta{
			ListingCount: len(listings),
		}, !adjustLive)
		if err != nil {
			return eris.Wrap(err, "execute adjustment")
		}
		printRunSummary(log)
		return nil
	},
}

func init() {
	adjustCmd.Flags().StringSliceVar(&adjustIDs, "ids", nil, "listing ids to adjust (required)")
	adjustCmd.Flags().StringVar(&adjustType, "type", "percent_increase", "percent_increase|percent_decrease|fixed_increase|fixed_decrease|set_price")
	adjustCmd.Flags().Float64Var(&adjustValue, "value", 0, "adjustment value (percent or dollars)")
	adjustCmd.Flags().BoolVar(&adjustLive, "live", false, "apply the adjustment instead of planning only")
	_ = adjustCmd.MarkFlagRequired("ids")
	_ = adjustCmd.MarkFlagRequired("value")
	rootCmd.AddCommand(adjustCmd)
}
