package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/dateradar/pricing-cli/internal/consensus"
	"github.com/dateradar/pricing-cli/internal/oracle"
	"github.com/dateradar/pricing-cli/internal/rules"
	"github.com/dateradar/pricing-cli/internal/store"
	"github.com/dateradar/pricing-cli/pkg/anthropic"
	"github.com/dateradar/pricing-cli/pkg/ebay"
	"github.com/dateradar/pricing-cli/pkg/gcal"
	"github.com/dateradar/pricing-cli/pkg/gemini"
	"github.com/dateradar/pricing-cli/pkg/openai"
)

func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.Path)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func initEbay() ebay.Client {
	return ebay.NewClient(ebay.Credentials{
		ClientID:     cfg.Ebay.ClientID,
		ClientSecret: cfg.Ebay.ClientSecret,
		RefreshToken: cfg.Ebay.RefreshToken,
	},
		ebay.WithTradingURL(cfg.Ebay.TradingURL),
		ebay.WithEntriesPerPage(cfg.Ebay.EntriesPerPage),
	)
}

// initClassifier builds the oracle panel from whichever provider keys are
// configured. No keys means an empty panel, which classifies everything
// with the fallback tier.
func initClassifier() *consensus.Classifier {
	var oracles []consensus.Oracle
	if cfg.Oracles.Anthropic.Key != "" {
		oracles = append(oracles, oracle.NewAnthropic(
			anthropic.NewClient(cfg.Oracles.Anthropic.Key), cfg.Oracles.Anthropic.Model))
	}
	if cfg.Oracles.OpenAI.Key != "" {
		oracles = append(oracles, oracle.NewOpenAI(
			openai.NewClient(cfg.Oracles.OpenAI.Key), cfg.Oracles.OpenAI.Model))
	}
	if cfg.Oracles.Gemini.Key != "" {
		oracles = append(oracles, oracle.NewGemini(
			gemini.NewClient(cfg.Oracles.Gemini.Key), cfg.Oracles.Gemini.Model))
	}
	return consensus.New(oracles, time.Duration(cfg.Oracles.TimeoutSecs)*time.Second)
}

func initRepository(st store.Store) *rules.Repository {
	var src rules.Source
	if cfg.Rules.SourcePath != "" || cfg.Rules.SourceURL != "" {
		src = &rules.XLSXSource{
			Path:      cfg.Rules.SourcePath,
			URL:       cfg.Rules.SourceURL,
			SheetName: cfg.Rules.SheetName,
			SkipRows:  cfg.Rules.SkipRows,
		}
	}
	return rules.NewRepository(src, st)
}

func initCalendar() gcal.Client {
	return gcal.NewClient(gcal.Credentials{
		ClientID:     cfg.Calendar.ClientID,
		ClientSecret: cfg.Calendar.ClientSecret,
		RefreshToken: cfg.Calendar.RefreshToken,
	})
}
