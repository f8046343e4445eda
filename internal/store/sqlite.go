package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/dateradar/pricing-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS pricing_rules (
	id          TEXT PRIMARY KEY,
	item        TEXT NOT NULL,
	event       TEXT NOT NULL,
	tier        TEXT NOT NULL,
	price_start TEXT NOT NULL,
	price_end   TEXT NOT NULL,
	enabled     INTEGER NOT NULL DEFAULT 1,
	rule        TEXT NOT NULL,
	synced_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS update_logs (
	id          TEXT PRIMARY KEY,
	ts          DATETIME NOT NULL,
	dry_run     INTEGER NOT NULL,
	listings    INTEGER NOT NULL,
	rules       INTEGER NOT NULL,
	entries     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pricing_rules_window ON pricing_rules(price_start, price_end);
CREATE INDEX IF NOT EXISTS idx_update_logs_ts ON update_logs(ts);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ReplaceRules overwrites the fallback rule set in one transaction so a
// reader never observes a partial sync.
func (s *SQLiteStore) ReplaceRules(ctx context.Context, rules []model.PricingRule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace rules")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM pricing_rules`); err != nil {
		return eris.Wrap(err, "sqlite: clear rules")
	}

	now := time.Now().UTC()
	for _, r := range rules {
		ruleJSON, err := json.Marshal(r)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal rule %s", r.ItemLabel)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO pricing_rules (id, item, event, tier, price_start, price_end, enabled, rule, synced_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), r.ItemLabel, r.EventName, string(r.Tier),
			r.Window.PriceStart.Format(model.DateOnly), r.Window.PriceEnd.Format(model.DateOnly),
			boolToInt(r.Enabled), string(ruleJSON), now,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert rule %s", r.ItemLabel)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace rules")
}

func (s *SQLiteStore) ListRules(ctx context.Context) ([]model.PricingRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rule FROM pricing_rules ORDER BY price_start, item`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rules")
	}
	defer rows.Close()

	var rules []model.PricingRule
	for rows.Next() {
		var ruleJSON string
		if err := rows.Scan(&ruleJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rule")
		}
		var r model.PricingRule
		if err := json.Unmarshal([]byte(ruleJSON), &r); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal rule")
		}
		rules = append(rules, r)
	}
	return rules, eris.Wrap(rows.Err(), "sqlite: list rules iterate")
}

func (s *SQLiteStore) SaveUpdateLog(ctx context.Context, log *model.UpdateLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	entriesJSON, err := json.Marshal(log.Entries)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal log entries")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO update_logs (id, ts, dry_run, listings, rules, entries) VALUES (?, ?, ?, ?, ?, ?)`,
		log.ID, log.Timestamp.UTC(), boolToInt(log.DryRun),
		log.ListingCount, log.ActiveRuleCount, string(entriesJSON),
	)
	return eris.Wrap(err, "sqlite: insert update log")
}

func (s *SQLiteStore) GetUpdateLog(ctx context.Context, id string) (*model.UpdateLog, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, ts, dry_run, listings, rules, entries FROM update_logs WHERE id = ?`, id,
	)
	return scanUpdateLog(row)
}

func (s *SQLiteStore) LatestUpdateLog(ctx context.Context) (*model.UpdateLog, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, ts, dry_run, listings, rules, entries FROM update_logs ORDER BY ts DESC LIMIT 1`,
	)
	l, err := scanUpdateLog(row)
	if err != nil && eris.Is(err, ErrLogNotFound) {
		return nil, nil
	}
	return l, err
}

func (s *SQLiteStore) ListUpdateLogs(ctx context.Context, limit int) ([]model.UpdateLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, dry_run, listings, rules, entries FROM update_logs ORDER BY ts DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list update logs")
	}
	defer rows.Close()

	var logs []model.UpdateLog
	for rows.Next() {
		l, err := scanUpdateLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, eris.Wrap(rows.Err(), "sqlite: list update logs iterate")
}

// helpers

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanUpdateLog(row scannable) (*model.UpdateLog, error) {
	var l model.UpdateLog
	var dryRun int
	var entriesJSON string

	err := row.Scan(&l.ID, &l.Timestamp, &dryRun, &l.ListingCount, &l.ActiveRuleCount, &entriesJSON)
	if err == sql.ErrNoRows {
		return nil, ErrLogNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan update log")
	}

	l.DryRun = dryRun != 0
	if err := json.Unmarshal([]byte(entriesJSON), &l.Entries); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal log entries")
	}
	return &l, nil
}
