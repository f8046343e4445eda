package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dateradar/pricing-cli/internal/catalog"
	"github.com/dateradar/pricing-cli/internal/model"
	"github.com/dateradar/pricing-cli/internal/rules"
)

var (
	rulesActiveOnly bool
	rulesGenCSVOut  string
	rulesGenCatalog string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and generate pricing rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pricing rules from the source or store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("rules-list"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		repo := initRepository(st)
		var list []model.PricingRule
		if rulesActiveOnly {
			list = repo.ActiveRules(ctx, time.Now())
		} else {
			list = repo.AllRules(ctx)
		}

		if len(list) == 0 {
			fmt.Println("no rules found")
			return nil
		}
		for _, r := range list {
			status := "disabled"
			if r.Enabled {
				status = "enabled"
			}
			fmt.Printf("%-32s | %-6s | +%2d%% | %s .. %s | %s | %s\n",
				truncateTitle(r.ItemLabel), r.Tier, r.IncreasePercent,
				r.Window.PriceStart.Format(model.DateOnly),
				r.Window.PriceEnd.Format(model.DateOnly),
				status, r.EventName)
		}
		return nil
	},
}

var rulesGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate rules from the item/event catalog via oracle consensus",
	Long:  "Pairs every catalog event with the items it lifts, classifies each pairing with the oracle panel, and persists the resulting rules. Optionally writes a repricer-tool CSV.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("rules-gen"); err != nil {
			return err
		}
		ctx := cmd.Context()

		catalogPath := rulesGenCatalog
		if catalogPath == "" {
			catalogPath = cfg.Rules.CatalogPath
		}
		cat, err := catalog.Load(catalogPath)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		generated := rules.Generate(ctx, cat, initClassifier(), time.Now())
		if len(generated) == 0 {
			return eris.New("catalog produced no item/event pairings")
		}

		modelRules := make([]model.PricingRule, len(generated))
		for i, g := range generated {
			modelRules[i] = g.Rule
		}
		if err := rules.NewRepository(nil, st).Persist(ctx, modelRules); err != nil {
			return eris.Wrap(err, "persist generated rules")
		}

		for _, g := range generated {
			majority := ""
			if !g.Consensus.HasMajority {
				majority = " (no majority)"
			}
			fmt.Printf("%-6s +%2d%% | %-28s | %s%s\n",
				g.Rule.Tier, g.Rule.IncreasePercent,
				truncateTitle(g.Rule.ItemLabel), g.Rule.EventName, majority)
		}
		zap.L().Info("rules: generation complete", zap.Int("rules", len(generated)))

		if rulesGenCSVOut != "" {
			if err := os.WriteFile(rulesGenCSVOut, []byte(rules.ExportCSV(generated)+"\n"), 0o644); err != nil {
				return eris.Wrapf(err, "write csv %s", rulesGenCSVOut)
			}
			fmt.Printf("csv written: %s\n", rulesGenCSVOut)
		}
		return nil
	},
}

func init() {
	rulesListCmd.Flags().BoolVar(&rulesActiveOnly, "active", false, "only rules whose window contains today")
	rulesGenCmd.Flags().StringVar(&rulesGenCatalog, "catalog", "", "catalog YAML path (default from config)")
	rulesGenCmd.Flags().StringVar(&rulesGenCSVOut, "csv-out", "", "also write a repricer-tool import CSV")
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesGenCmd)
	rootCmd.AddCommand(rulesCmd)
}
