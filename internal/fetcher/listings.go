package fetcher

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dateradar/pricing-cli/internal/model"
	"github.com/dateradar/pricing-cli/internal/resilience"
	"github.com/dateradar/pricing-cli/pkg/ebay"
)

// FetchListings pulls the full set of active listings from the
// marketplace and converts them to the domain model. The listing
// snapshot is the input to every plan, so transient fetch failures are
// retried before giving up.
func FetchListings(ctx context.Context, client ebay.Client) ([]model.Listing, error) {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("ebay", "active_listings")

	raw, err := resilience.Do(ctx, cfg, func(ctx context.Context) ([]ebay.Listing, error) {
		return client.ActiveListings(ctx)
	})
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: active listings")
	}

	listings := make([]model.Listing, 0, len(raw))
	for _, l := range raw {
		listings = append(listings, model.Listing{
			ID:           l.ItemID,
			Title:        l.Title,
			CurrentPrice: l.CurrentPrice,
			Quantity:     l.Quantity,
		})
	}

	zap.L().Info("fetcher: active listings loaded", zap.Int("count", len(listings)))
	return listings, nil
}
