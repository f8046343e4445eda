package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/dateradar/pricing-cli/internal/db"
	"github.com/dateradar/pricing-cli/internal/model"
)

// ruleColumns is the COPY column order for pricing_rules.
var ruleColumns = []string{"id", "item", "event", "tier", "price_start", "price_end", "enabled", "rule", "synced_at"}

// pgPool is the subset of pgxpool.Pool used by PostgresStore. pgxmock
// satisfies it in tests.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool pgPool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 5
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS pricing_rules (
	id          TEXT PRIMARY KEY,
	item        TEXT NOT NULL,
	event       TEXT NOT NULL,
	tier        TEXT NOT NULL,
	price_start DATE NOT NULL,
	price_end   DATE NOT NULL,
	enabled     BOOLEAN NOT NULL DEFAULT true,
	rule        JSONB NOT NULL,
	synced_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS update_logs (
	id       TEXT PRIMARY KEY,
	ts       TIMESTAMPTZ NOT NULL,
	dry_run  BOOLEAN NOT NULL,
	listings INTEGER NOT NULL,
	rules    INTEGER NOT NULL,
	entries  JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pricing_rules_window ON pricing_rules(price_start, price_end);
CREATE INDEX IF NOT EXISTS idx_update_logs_ts ON update_logs(ts);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ReplaceRules(ctx context.Context, rules []model.PricingRule) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace rules")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM pricing_rules`); err != nil {
		return eris.Wrap(err, "postgres: clear rules")
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(rules))
	for _, r := range rules {
		ruleJSON, err := json.Marshal(r)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal rule %s", r.ItemLabel)
		}
		rows = append(rows, []any{
			uuid.New().String(), r.ItemLabel, r.EventName, string(r.Tier),
			r.Window.PriceStart, r.Window.PriceEnd, r.Enabled, string(ruleJSON), now,
		})
	}
	_, err = db.CopyFrom(ctx, tx, "pricing_rules", ruleColumns, rows)
	if err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace rules")
}

func (s *PostgresStore) ListRules(ctx context.Context) ([]model.PricingRule, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT rule FROM pricing_rules ORDER BY price_start, item`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list rules")
	}
	defer rows.Close()

	var rules []model.PricingRule
	for rows.Next() {
		var ruleJSON []byte
		if err := rows.Scan(&ruleJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan rule")
		}
		var r model.PricingRule
		if err := json.Unmarshal(ruleJSON, &r); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal rule")
		}
		rules = append(rules, r)
	}
	return rules, eris.Wrap(rows.Err(), "postgres: list rules iterate")
}

func (s *PostgresStore) SaveUpdateLog(ctx context.Context, log *model.UpdateLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	entriesJSON, err := json.Marshal(log.Entries)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal log entries")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO update_logs (id, ts, dry_run, listings, rules, entries) VALUES ($1, $2, $3, $4, $5, $6)`,
		log.ID, log.Timestamp.UTC(), log.DryRun, log.ListingCount, log.ActiveRuleCount, string(entriesJSON),
	)
	return eris.Wrap(err, "postgres: insert update log")
}

func (s *PostgresStore) GetUpdateLog(ctx context.Context, id string) (*model.UpdateLog, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, ts, dry_run, listings, rules, entries FROM update_logs WHERE id = $1`, id,
	)
	l, err := scanPgUpdateLog(row)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, ErrLogNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get update log %s", id)
	}
	return l, nil
}

func (s *PostgresStore) LatestUpdateLog(ctx context.Context) (*model.UpdateLog, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, ts, dry_run, listings, rules, entries FROM update_logs ORDER BY ts DESC LIMIT 1`,
	)
	l, err := scanPgUpdateLog(row)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest update log")
	}
	return l, nil
}

func (s *PostgresStore) ListUpdateLogs(ctx context.Context, limit int) ([]model.UpdateLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, ts, dry_run, listings, rules, entries FROM update_logs ORDER BY ts DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list update logs")
	}
	defer rows.Close()

	var logs []model.UpdateLog
	for rows.Next() {
		l, err := scanPgUpdateLog(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan update log")
		}
		logs = append(logs, *l)
	}
	return logs, eris.Wrap(rows.Err(), "postgres: list update logs iterate")
}

func scanPgUpdateLog(row scannable) (*model.UpdateLog, error) {
	var l model.UpdateLog
	var entriesJSON []byte

	if err := row.Scan(&l.ID, &l.Timestamp, &l.DryRun, &l.ListingCount, &l.ActiveRuleCount, &entriesJSON); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(entriesJSON, &l.Entries); err != nil {
		return nil, eris.Wrap(err, "unmarshal log entries")
	}
	return &l, nil
}
