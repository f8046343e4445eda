package executor

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dateradar/pricing-cli/internal/model"
	"github.com/dateradar/pricing-cli/internal/store"
)

type mockMutator struct {
	calls   []call
	failIDs map[string]error
}

type call struct {
	listingID string
	newPrice  float64
}

func (m *mockMutator) UpdatePrice(_ context.Context, listingID string, newPrice float64) error {
	m.calls = append(m.calls, call{listingID, newPrice})
	if err, ok := m.failIDs[listingID]; ok {
		return err
	}
	return nil
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(t.TempDir() + "/test.db")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func testPlan() []model.UpdatePlanEntry {
	return []model.UpdatePlanEntry{
		{ListingID: "110", Title: "1966 Topps Batman card", OldPrice: 200, NewPrice: 250, RuleLabel: "batman-day", EventName: "Batman Day", Tier: model.TierMajor},
		{ListingID: "111", Title: "Vintage Star Wars lobby card", OldPrice: 80, NewPrice: 92, RuleLabel: "may-the-fourth", EventName: "Star Wars Day", Tier: model.TierMedium},
	}
}

func TestExecute_DryRunMakesNoCalls(t *testing.T) {
	mut := &mockMutator{}
	st := newTestStore(t)
	exec := New(mut, st)

	log, err := exec.Execute(context.Background(), testPlan(), RunMeta{ListingCount: 10, ActiveRuleCount: 2}, true)
	require.NoError(t, err)

	assert.Empty(t, mut.calls)
	assert.True(t, log.DryRun)
	require.Len(t, log.Entries, 2)
	for _, e := range log.Entries {
		assert.Equal(t, model.OutcomePlanned, e.Outcome)
	}
	assert.Empty(t, log.Succeeded())
}

func TestExecute_LiveAppliesSequentially(t *testing.T) {
	mut := &mockMutator{}
	st := newTestStore(t)
	exec := New(mut, st)

	log, err := exec.Execute(context.Background(), testPlan(), RunMeta{ListingCount: 10, ActiveRuleCount: 2}, false)
	require.NoError(t, err)

	require.Len(t, mut.calls, 2)
	assert.Equal(t, call{"110", 250}, mut.calls[0])
	assert.Equal(t, call{"111", 92}, mut.calls[1])
	assert.Len(t, log.Succeeded(), 2)
}

func TestExecute_FailureDoesNotAbortRun(t *testing.T) {
	mut := &mockMutator{failIDs: map[string]error{
		"110": eris.New("Item cannot be revised while an offer is pending"),
	}}
	st := newTestStore(t)
	exec := New(mut, st)

	log, err := exec.Execute(context.Background(), testPlan(), RunMeta{}, false)
	require.NoError(t, err)

	require.Len(t, mut.calls, 2, "second entry must still be attempted")
	require.Len(t, log.Entries, 2)
	assert.Equal(t, model.OutcomeFailed, log.Entries[0].Outcome)
	assert.Contains(t, log.Entries[0].FailureInfo, "offer is pending")
	assert.Equal(t, model.OutcomeApplied, log.Entries[1].Outcome)
	assert.Len(t, log.Succeeded(), 1)
}

func TestExecute_LogPersistedEvenWithFailures(t *testing.T) {
	mut := &mockMutator{failIDs: map[string]error{
		"110": eris.New("api unavailable"),
		"111": eris.New("api unavailable"),
	}}
	st := newTestStore(t)
	exec := New(mut, st)

	log, err := exec.Execute(context.Background(), testPlan(), RunMeta{ListingCount: 10, ActiveRuleCount: 2}, false)
	require.NoError(t, err)
	require.NotEmpty(t, log.ID)

	stored, err := st.GetUpdateLog(context.Background(), log.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Entries, 2)
	assert.Equal(t, 10, stored.ListingCount)
	assert.Empty(t, stored.Succeeded())
}

func TestExecute_EmptyPlan(t *testing.T) {
	mut := &mockMutator{}
	st := newTestStore(t)
	exec := New(mut, st)

	log, err := exec.Execute(context.Background(), nil, RunMeta{ListingCount: 4}, false)
	require.NoError(t, err)
	assert.Empty(t, mut.calls)
	assert.Empty(t, log.Entries)
	assert.NotEmpty(t, log.ID)
}

func TestReversalPlan_SwapsPricesForAppliedOnly(t *testing.T) {
	prior := &model.UpdateLog{
		Entries: []model.UpdatePlanEntry{
			{ListingID: "110", Title: "Batman card", OldPrice: 200, NewPrice: 250, Outcome: model.OutcomeApplied},
			{ListingID: "111", Title: "Lobby card", OldPrice: 80, NewPrice: 92, Outcome: model.OutcomeFailed},
			{ListingID: "112", Title: "Pennant", OldPrice: 40, NewPrice: 46, Outcome: model.OutcomePlanned},
		},
	}

	plan := ReversalPlan(prior)
	require.Len(t, plan, 1, "failed and dry-run entries must not be reverted")
	assert.Equal(t, "110", plan[0].ListingID)
	assert.Equal(t, 250.0, plan[0].OldPrice)
	assert.Equal(t, 200.0, plan[0].NewPrice)
}

func TestRevert_RestoresOldPrices(t *testing.T) {
	mut := &mockMutator{}
	st := newTestStore(t)
	exec := New(mut, st).WithNow(func() time.Time {
		return time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	})

	applied, err := exec.Execute(context.Background(), testPlan(), RunMeta{}, false)
	require.NoError(t, err)

	mut.calls = nil
	reverted, err := exec.Revert(context.Background(), applied, false)
	require.NoError(t, err)

	require.Len(t, mut.calls, 2)
	assert.Equal(t, call{"110", 200}, mut.calls[0])
	assert.Equal(t, call{"111", 80}, mut.calls[1])
	assert.Len(t, reverted.Succeeded(), 2)
	assert.NotEqual(t, applied.ID, reverted.ID)
}
