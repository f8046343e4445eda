// Package store persists the pricing engine's durable state: the rules
// fallback copy and the per-run update logs.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/dateradar/pricing-cli/internal/model"
)

// ErrLogNotFound is returned by GetUpdateLog when no log has the given id.
var ErrLogNotFound = eris.New("store: update log not found")

// Store defines the persistence interface for rules and update logs.
type Store interface {
	// Rules fallback copy. ReplaceRules overwrites the whole set; it is
	// called only after a successful primary-source read (write-through,
	// not TTL-based).
	ReplaceRules(ctx context.Context, rules []model.PricingRule) error
	ListRules(ctx context.Context) ([]model.PricingRule, error)

	// Update logs. One write-once record per executor run.
	SaveUpdateLog(ctx context.Context, log *model.UpdateLog) error
	GetUpdateLog(ctx context.Context, id string) (*model.UpdateLog, error)
	LatestUpdateLog(ctx context.Context) (*model.UpdateLog, error)
	ListUpdateLogs(ctx context.Context, limit int) ([]model.UpdateLog, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
