package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/prospect-cli/internal/model"
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
CREATE TABLE IF NOT EXISTS campaigns (
	id         TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL,
	type       TEXT NOT NULL DEFAULT 'import',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS campaign_leads (
	campaign_id TEXT NOT NULL REFERENCES campaigns(id),
	position    INTEGER NOT NULL,
	lead        TEXT NOT NULL,
	PRIMARY KEY (campaign_id, position)
);

CREATE TABLE IF NOT EXISTS industry_mappings (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	learned_from TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS intent_verdicts (
	signature  TEXT NOT NULL,
	label      TEXT NOT NULL,
	verdict    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (signature, label)
);

CREATE INDEX IF NOT EXISTS idx_campaigns_client ON campaigns(client_id, created_at, id);
CREATE INDEX IF NOT EXISTS idx_campaign_leads_campaign ON campaign_leads(campaign_id);
CREATE INDEX IF NOT EXISTS idx_intent_verdicts_signature ON intent_verdicts(signature);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveCampaign upserts the campaign row and replaces its lead set. A blank
// ID or zero CreatedAt is assigned before writing; timestamps are stored in
// UTC so campaign ordering stays stable across timezones.
func (s *SQLiteStore) SaveCampaign(ctx context.Context, c *model.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.CreatedAt = c.CreatedAt.UTC()
	if c.Type == "" {
		c.Type = model.CampaignTypeImport
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, client_id, type, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET client_id = excluded.client_id, type = excluded.type, created_at = excluded.created_at`,
		c.ID, c.ClientID, string(c.Type), c.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save campaign %s", c.ID)
	}

	return s.ReplaceLeads(ctx, c.ID, c.Leads)
}

func (s *SQLiteStore) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, client_id, type, created_at FROM campaigns WHERE id = ?`,
		id,
	)
	c, err := scanCampaign(row)
	if err != nil {
		return nil, err
	}
	c.Leads, err = s.loadLeads(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SQLiteStore) ListCampaigns(ctx context.Context, clientID string) ([]model.Campaign, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, client_id, type, created_at FROM campaigns
		 WHERE client_id = ? ORDER BY created_at ASC, id ASC`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list campaigns")
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list campaigns iterate")
	}

	for i := range campaigns {
		campaigns[i].Leads, err = s.loadLeads(ctx, campaigns[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return campaigns, nil
}

// ReplaceLeads swaps the campaign's lead set inside one transaction so a
// concurrent reader never sees a half-written set.
func (s *SQLiteStore) ReplaceLeads(ctx context.Context, campaignID string, leads []model.Lead) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace leads")
	}
	defer tx.Rollback() //nolint:errcheck

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM campaigns WHERE id = ?`, campaignID).Scan(&one)
	if err == sql.ErrNoRows {
		return eris.Errorf("campaign not found: %s", campaignID)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: check campaign %s", campaignID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM campaign_leads WHERE campaign_id = ?`, campaignID); err != nil {
		return eris.Wrapf(err, "sqlite: clear leads for %s", campaignID)
	}

	for i, lead := range leads {
		leadJSON, err := json.Marshal(lead)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal lead")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO campaign_leads (campaign_id, position, lead) VALUES (?, ?, ?)`,
			campaignID, i, string(leadJSON),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert lead %d for %s", i, campaignID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace leads")
}

func (s *SQLiteStore) ResolveIndustries(ctx context.Context, ids []string) (map[string]string, []string, error) {
	distinct := distinctIDs(ids)
	found := make(map[string]string, len(distinct))
	if len(distinct) == 0 {
		return found, nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(distinct)), ",")
	args := make([]any, len(distinct))
	for i, id := range distinct {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM industry_mappings WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: resolve industries")
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, nil, eris.Wrap(err, "sqlite: scan industry mapping")
		}
		found[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: resolve industries iterate")
	}

	var missing []string
	for _, id := range distinct {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return found, missing, nil
}

// AddIndustryMapping records an identifier to name pair. The table is
// append-only: a later write for an existing identifier is ignored. Blank
// pairs are dropped without error.
func (s *SQLiteStore) AddIndustryMapping(ctx context.Context, id, name, learnedFrom string) error {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO industry_mappings (id, name, learned_from, created_at) VALUES (?, ?, ?, ?)`,
		id, name, learnedFrom, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: add industry mapping %s", id)
}

// ImportIndustryMappings bulk-loads mapping rows, keeping first-write-wins
// semantics, and returns how many were new.
func (s *SQLiteStore) ImportIndustryMappings(ctx context.Context, mappings []IndustryMapping) (int, error) {
	if len(mappings) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import mappings")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	added := 0
	for _, m := range mappings {
		id := strings.TrimSpace(m.ID)
		name := strings.TrimSpace(m.Name)
		if id == "" || name == "" {
			continue
		}
		createdAt := m.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO industry_mappings (id, name, learned_from, created_at) VALUES (?, ?, ?, ?)`,
			id, name, m.LearnedFrom, createdAt.UTC(),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: import mapping %s", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: rows affected")
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import mappings")
	}
	return added, nil
}

func (s *SQLiteStore) ListIndustryMappings(ctx context.Context) ([]IndustryMapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, learned_from, created_at FROM industry_mappings ORDER BY id ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list industry mappings")
	}
	defer rows.Close()

	var mappings []IndustryMapping
	for rows.Next() {
		var m IndustryMapping
		if err := rows.Scan(&m.ID, &m.Name, &m.LearnedFrom, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan industry mapping")
		}
		mappings = append(mappings, m)
	}
	return mappings, eris.Wrap(rows.Err(), "sqlite: list industry mappings iterate")
}

func (s *SQLiteStore) GetVerdicts(ctx context.Context, signature string, labels []string) (map[string]model.Verdict, error) {
	distinct := distinctIDs(labels)
	out := make(map[string]model.Verdict, len(distinct))
	if len(distinct) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(distinct)), ",")
	args := make([]any, 0, len(distinct)+1)
	args = append(args, signature)
	for _, l := range distinct {
		args = append(args, l)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT label, verdict FROM intent_verdicts WHERE signature = ? AND label IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get verdicts")
	}
	defer rows.Close()

	for rows.Next() {
		var label, raw string
		if err := rows.Scan(&label, &raw); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan verdict")
		}
		if v, ok := model.ParseVerdict(raw); ok {
			out[label] = v
		}
	}
	return out, eris.Wrap(rows.Err(), "sqlite: get verdicts iterate")
}

func (s *SQLiteStore) PutVerdicts(ctx context.Context, signature string, verdicts map[string]model.Verdict) error {
	if len(verdicts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin put verdicts")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for _, label := range sortedVerdictLabels(verdicts) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO intent_verdicts (signature, label, verdict, created_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(signature, label) DO UPDATE SET verdict = excluded.verdict, created_at = excluded.created_at`,
			signature, label, string(verdicts[label]), now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: put verdict %q", label)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit put verdicts")
}

func (s *SQLiteStore) loadLeads(ctx context.Context, campaignID string) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lead FROM campaign_leads WHERE campaign_id = ? ORDER BY position ASC`,
		campaignID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load leads for %s", campaignID)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var leadJSON string
		if err := rows.Scan(&leadJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		var lead model.Lead
		if err := json.Unmarshal([]byte(leadJSON), &lead); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal lead")
		}
		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: load leads iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanCampaign(row scannable) (*model.Campaign, error) {
	var c model.Campaign
	var typ string

	err := row.Scan(&c.ID, &c.ClientID, &typ, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("campaign not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan campaign")
	}
	c.Type = model.CampaignType(typ)
	return &c, nil
}

// distinctIDs trims, drops empties, and dedupes while keeping first-seen
// order, so missing lists come back in the order callers asked.
func distinctIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func sortedVerdictLabels(verdicts map[string]model.Verdict) []string {
	labels := make([]string, 0, len(verdicts))
	for l := range verdicts {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
