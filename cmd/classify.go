package main

import (
	"encoding/json"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dateradar/pricing-cli/internal/catalog"
	"github.com/dateradar/pricing-cli/internal/consensus"
	"github.com/dateradar/pricing-cli/internal/model"
	"github.com/dateradar/pricing-cli/internal/window"
)

var (
	classifyItem     string
	classifyTitle    string
	classifyCategory string
	classifyEvent    string
	classifyDate     string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify one item/event pairing with the oracle panel",
	Long:  "Queries every configured LLM provider for a significance tier, tallies the votes, and prints the consensus with the pricing window it implies. Passing --title infers the category and base price from the catalog's keyword tables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("classify"); err != nil {
			return err
		}

		item := classifyItem
		category := classifyCategory
		var basePrice float64

		if classifyTitle != "" {
			cat, err := catalog.Load(cfg.Rules.CatalogPath)
			if err != nil {
				return err
			}
			category, basePrice = cat.Categorize(classifyTitle)
			if item == "" {
				item = classifyTitle
			}
			zap.L().Debug("classify: categorized title",
				zap.String("title", classifyTitle),
				zap.String("category", category),
				zap.Float64("base_price", basePrice),
			)
		}

		cls := initClassifier()
		cons := cls.Classify(cmd.Context(), consensus.Request{
			ItemLabel: item,
			Category:  category,
			EventName: classifyEvent,
			EventDate: classifyDate,
		})

		out := struct {
			model.Consensus
			Category         string  `json:"category"`
			IncreasePercent  int     `json:"increase_percent"`
			PriceStart       string  `json:"price_start,omitempty"`
			PriceEnd         string  `json:"price_end,omitempty"`
			BasePrice        float64 `json:"base_price,omitempty"`
			RecommendedPrice float64 `json:"recommended_price,omitempty"`
		}{
			Consensus:       cons,
			Category:        category,
			IncreasePercent: cons.Tier.Policy().IncreasePercent,
		}
		if win, ok := window.Compute(classifyDate, cons.Tier, time.Now()); ok {
			out.PriceStart = win.PriceStart.Format(model.DateOnly)
			out.PriceEnd = win.PriceEnd.Format(model.DateOnly)
		}
		if basePrice > 0 {
			out.BasePrice = basePrice
			out.RecommendedPrice = roundCents(basePrice * (1 + float64(out.IncreasePercent)/100))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyItem, "item", "", "item label")
	classifyCmd.Flags().StringVar(&classifyTitle, "title", "", "listing title to categorize via the catalog")
	classifyCmd.Flags().StringVar(&classifyCategory, "category", "default", "item category")
	classifyCmd.Flags().StringVar(&classifyEvent, "event", "", "event name (required)")
	classifyCmd.Flags().StringVar(&classifyDate, "date", "", "event date, e.g. \"December 8\" (required)")
	classifyCmd.MarkFlagsOneRequired("item", "title")
	_ = classifyCmd.MarkFlagRequired("event")
	_ = classifyCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(classifyCmd)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
