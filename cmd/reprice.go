package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dateradar/pricing-cli/internal/executor"
	"github.com/dateradar/pricing-cli/internal/fetcher"
	"github.com/dateradar/pricing-cli/internal/model"
	"github.com/dateradar/pricing-cli/internal/reconcile"
)

var repriceLive bool

var repriceCmd = &cobra.Command{
	Use:   "reprice",
	Short: "Plan and apply rule-driven price updates",
	Long:  "Matches active listings against currently open pricing windows and raises prices accordingly. Dry-run by default; pass --live to apply.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("reprice"); err != nil {
			return err
		}
		log, err := repriceRun(cmd.Context(), repriceLive)
		if err != nil {
			return err
		}
		printRunSummary(log)
		return nil
	},
}

// repriceRun is the full reprice pass: fetch listings, resolve active
// rules, build the plan, execute, persist the log. Shared with the
// scheduler.
func repriceRun(ctx context.Context, live bool) (*model.UpdateLog, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	ebayClient := initEbay()
	listings, err := fetcher.FetchListings(ctx, ebayClient)
	if err != nil {
		return nil, err
	}

	repo := initRepository(st)
	active := repo.ActiveRules(ctx, time.Now())

	plan := reconcile.BuildPlan(listings, active)
	zap.L().Info("reprice: plan built",
		zap.Int("listings", len(listings)),
		zap.Int("active_rules", len(active)),
		zap.Int("planned_updates", len(plan)),
		zap.Bool("live", live),
	)

	exec := executor.New(ebayClient, st)
	log, err := exec.Execute(ctx, plan, executor.RunMeta{
		ListingCount:    len(listings),
		ActiveRuleCount: len(active),
	}, !live)
	if err != nil {
		return nil, eris.Wrap(err, "execute plan")
	}
	return log, nil
}

func printRunSummary(log *model.UpdateLog) {
	mode := "LIVE"
	if log.DryRun {
		mode = "DRY RUN"
	}
	fmt.Printf("%s  listings=%d  active_rules=%d  planned=%d\n",
		mode, log.ListingCount, log.ActiveRuleCount, len(log.Entries))

	for _, e := range log.Entries {
		fmt.Printf("  %-6s | $%8.2f -> $%8.2f | %-10s | %s\n",
			e.Tier, e.OldPrice, e.NewPrice, e.Outcome, truncateTitle(e.Title))
		if e.FailureInfo != "" {
			fmt.Printf("           %s\n", e.FailureInfo)
		}
	}
	fmt.Printf("log id: %s\n", log.ID)
}

func truncateTitle(s string) string {
	if len(s) <= 50 {
		return s
	}
	return s[:50]
}

func init() {
	repriceCmd.Flags().BoolVar(&repriceLive, "live", false, "apply price changes instead of planning only")
	rootCmd.AddCommand(repriceCmd)
}
