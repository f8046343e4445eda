// Package executor applies update plans against the marketplace and
// records every run as a durable, reversible log.
package executor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dateradar/pricing-cli/internal/model"
	"github.com/dateradar/pricing-cli/internal/store"
)

// PriceMutator applies a new price to one live listing. A non-nil error
// means the listing keeps its old price.
type PriceMutator interface {
	UpdatePrice(ctx context.Context, listingID string, newPrice float64) error
}

// RunMeta carries context counts into the log for reporting.
type RunMeta struct {
	ListingCount    int
	ActiveRuleCount int
}

// Executor runs update plans and persists their logs.
type Executor struct {
	mutator PriceMutator
	store   store.Store
	now     func() time.Time
}

// New creates an executor. The store is required; every run must leave an
// auditable trace.
func New(mutator PriceMutator, st store.Store) *Executor {
	return &Executor{mutator: mutator, store: st, now: time.Now}
}

// WithNow sets a fixed clock for testing.
func (e *Executor) WithNow(now func() time.Time) *Executor {
	e.now = now
	return e
}

// Execute applies the plan. In dry-run mode no mutator calls are made and
// every entry is logged as planned, so reporting is uniform between modes.
// In live mode entries are applied sequentially and one failure never
// aborts the rest. The log is persisted before returning regardless of
// the outcome mix.
func (e *Executor) Execute(ctx context.Context, plan []model.UpdatePlanEntry, meta RunMeta, dryRun bool) (*model.UpdateLog, error) {
	log := &model.UpdateLog{
		Timestamp:       e.now().UTC(),
		DryRun:          dryRun,
		ListingCount:    meta.ListingCount,
		ActiveRuleCount: meta.ActiveRuleCount,
		Entries:         make([]model.UpdatePlanEntry, 0, len(plan)),
	}

	applied, failed := 0, 0
	for _, entry := range plan {
		if dryRun {
			entry.Outcome = model.OutcomePlanned
			log.Entries = append(log.Entries, entry)
			continue
		}

		if err := e.mutator.UpdatePrice(ctx, entry.ListingID, entry.NewPrice); err != nil {
			entry.Outcome = model.OutcomeFailed
			entry.FailureInfo = err.Error()
			failed++
			zap.L().Warn("executor: price update failed",
				zap.String("listing_id", entry.ListingID),
				zap.Float64("new_price", entry.NewPrice),
				zap.Error(err),
			)
		} else {
			entry.Outcome = model.OutcomeApplied
			applied++
		}
		log.Entries = append(log.Entries, entry)
	}

	var saveErr error
	if e.store != nil {
		saveErr = e.store.SaveUpdateLog(ctx, log)
	}

	zap.L().Info("executor: run complete",
		zap.Bool("dry_run", dryRun),
		zap.Int("planned", len(plan)),
		zap.Int("applied", applied),
		zap.Int("failed", failed),
		zap.String("log_id", log.ID),
	)

	return log, saveErr
}

// ReversalPlan builds the plan that undoes a prior run: each successfully
// applied entry gets its old price back. Reversal is replaying the log
// with the prices swapped, nothing more.
func ReversalPlan(log *model.UpdateLog) []model.UpdatePlanEntry {
	var plan []model.UpdatePlanEntry
	for _, entry := range log.Succeeded() {
		plan = append(plan, model.UpdatePlanEntry{
			ListingID: entry.ListingID,
			Title:     entry.Title,
			OldPrice:  entry.NewPrice,
			NewPrice:  entry.OldPrice,
			RuleLabel: entry.RuleLabel,
			EventName: entry.EventName,
			Tier:      entry.Tier,
		})
	}
	return plan
}

// Revert executes the reversal of a prior log through the normal path.
func (e *Executor) Revert(ctx context.Context, prior *model.UpdateLog, dryRun bool) (*model.UpdateLog, error) {
	plan := ReversalPlan(prior)
	return e.Execute(ctx, plan, RunMeta{
		ListingCount:    prior.ListingCount,
		ActiveRuleCount: prior.ActiveRuleCount,
	}, dryRun)
}
