package rules

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dateradar/pricing-cli/internal/model"
	"github.com/dateradar/pricing-cli/internal/store"
)

// Repository serves the current rule set. Reads go to the primary source
// first; every successful read overwrites the local fallback copy, so the
// fallback is never more stale than the last good read. When the primary
// is down the fallback serves, and when that is empty too the repository
// returns no rules. That is a valid state, not an error.
type Repository struct {
	source Source
	store  store.Store
}

// NewRepository creates a rule repository over a primary source and a
// local fallback store. Either may be nil: a nil source always falls back,
// a nil store disables the fallback copy.
func NewRepository(source Source, st store.Store) *Repository {
	return &Repository{source: source, store: st}
}

// AllRules returns every rule the repository knows about, including
// disabled and expired ones (retained for audit).
func (r *Repository) AllRules(ctx context.Context) []model.PricingRule {
	if r.source != nil {
		raws, err := r.source.Fetch(ctx)
		if err == nil {
			rules := normalizeAll(raws)
			r.writeThrough(ctx, rules)
			return rules
		}
		zap.L().Warn("rules: primary source read failed, using fallback", zap.Error(err))
	}

	if r.store != nil {
		rules, err := r.store.ListRules(ctx)
		if err != nil {
			zap.L().Warn("rules: fallback read failed, treating as empty", zap.Error(err))
			return nil
		}
		return rules
	}
	return nil
}

// ActiveRules filters AllRules to entries that are enabled and whose
// window contains today. Order is stable for one call (source order).
func (r *Repository) ActiveRules(ctx context.Context, today time.Time) []model.PricingRule {
	var active []model.PricingRule
	for _, rule := range r.AllRules(ctx) {
		if rule.Active(today) {
			active = append(active, rule)
			continue
		}
		if rule.Enabled && rule.Window.Expired(today) {
			// Expired-but-enabled rules are filtered by date only; the
			// enabled flag is intentionally left unreconciled.
			zap.L().Debug("rules: enabled rule past its window",
				zap.String("item", rule.ItemLabel),
				zap.String("event", rule.EventName),
				zap.Time("price_end", rule.Window.PriceEnd),
			)
		}
	}
	return active
}

// Persist overwrites the fallback copy with the given rules. Used by rule
// generation, which creates rules locally rather than reading a source.
func (r *Repository) Persist(ctx context.Context, rules []model.PricingRule) error {
	if r.store == nil {
		return nil
	}
	return r.store.ReplaceRules(ctx, rules)
}

func (r *Repository) writeThrough(ctx context.Context, rules []model.PricingRule) {
	if r.store == nil {
		return
	}
	if err := r.store.ReplaceRules(ctx, rules); err != nil {
		// A failed backup sync must not fail the load.
		zap.L().Warn("rules: fallback sync failed", zap.Error(err))
	}
}

func normalizeAll(raws []RawRule) []model.PricingRule {
	var rules []model.PricingRule
	dropped := 0
	for _, raw := range raws {
		rule, ok := Normalize(raw)
		if !ok {
			dropped++
			continue
		}
		rules = append(rules, rule)
	}
	if dropped > 0 {
		zap.L().Warn("rules: dropped unusable rows", zap.Int("dropped", dropped))
	}
	return rules
}
