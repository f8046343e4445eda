package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dateradar/pricing-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

func TestPostgresStore_LatestUpdateLog_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, ts, dry_run, listings, rules, entries FROM update_logs ORDER BY ts DESC LIMIT 1`).
		WillReturnError(pgx.ErrNoRows)

	latest, err := s.LatestUpdateLog(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetUpdateLog(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	entries, err := json.Marshal([]model.UpdatePlanEntry{
		{ListingID: "A1", OldPrice: 100, NewPrice: 125, Outcome: model.OutcomeApplied},
	})
	require.NoError(t, err)

	ts := time.Date(2026, time.July, 6, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, ts, dry_run, listings, rules, entries FROM update_logs WHERE id = \$1`).
		WithArgs("log-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "ts", "dry_run", "listings", "rules", "entries"}).
			AddRow("log-1", ts, false, 5, 2, entries))

	got, err := s.GetUpdateLog(context.Background(), "log-1")
	require.NoError(t, err)
	assert.Equal(t, "log-1", got.ID)
	assert.Equal(t, 5, got.ListingCount)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, 125.0, got.Entries[0].NewPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceRules(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM pricing_rules`).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"pricing_rules"}, ruleColumns).
		WillReturnResult(1)
	mock.ExpectCommit()
	mock.ExpectRollback()

	err := s.ReplaceRules(context.Background(), []model.PricingRule{testRule("Lennon Portrait", model.TierMajor)})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveUpdateLog(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO update_logs`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), true, 3, 1, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	log := &model.UpdateLog{
		Timestamp:       time.Now(),
		DryRun:          true,
		ListingCount:    3,
		ActiveRuleCount: 1,
		Entries:         []model.UpdatePlanEntry{},
	}
	require.NoError(t, s.SaveUpdateLog(context.Background(), log))
	assert.NotEmpty(t, log.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
