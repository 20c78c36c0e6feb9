package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/db"
	"github.com/sells-group/prospect-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"save_campaign":      `INSERT INTO campaigns (id, client_id, type, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO UPDATE SET client_id = EXCLUDED.client_id, type = EXCLUDED.type, created_at = EXCLUDED.created_at`,
	"get_campaign":       `SELECT id, client_id, type, created_at FROM campaigns WHERE id = $1`,
	"list_campaigns":     `SELECT id, client_id, type, created_at FROM campaigns WHERE client_id = $1 ORDER BY created_at ASC, id ASC`,
	"load_leads":         `SELECT lead FROM campaign_leads WHERE campaign_id = $1 ORDER BY position ASC`,
	"resolve_industries": `SELECT id, name FROM industry_mappings WHERE id = ANY($1)`,
	"add_mapping":        `INSERT INTO industry_mappings (id, name, learned_from, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`,
	"get_verdicts":       `SELECT label, verdict FROM intent_verdicts WHERE signature = $1 AND label = ANY($2)`,
	"put_verdict":        `INSERT INTO intent_verdicts (signature, label, verdict, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (signature, label) DO UPDATE SET verdict = EXCLUDED.verdict, created_at = EXCLUDED.created_at`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS campaigns (
	id         TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL,
	type       TEXT NOT NULL DEFAULT 'import',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS campaign_leads (
	campaign_id TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	lead        JSONB NOT NULL,
	PRIMARY KEY (campaign_id, position)
);

CREATE TABLE IF NOT EXISTS industry_mappings (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	learned_from TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS intent_verdicts (
	signature  TEXT NOT NULL,
	label      TEXT NOT NULL,
	verdict    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (signature, label)
);

CREATE INDEX IF NOT EXISTS idx_campaigns_client ON campaigns(client_id, created_at, id);
CREATE INDEX IF NOT EXISTS idx_campaign_leads_campaign ON campaign_leads(campaign_id);
CREATE INDEX IF NOT EXISTS idx_intent_verdicts_signature ON intent_verdicts(signature);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveCampaign upserts the campaign row and replaces its lead set. A blank
// ID or zero CreatedAt is assigned before writing; timestamps are stored in
// UTC so campaign ordering stays stable across timezones.
func (s *PostgresStore) SaveCampaign(ctx context.Context, c *model.Campaign) error {
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

	_, err := s.pool.Exec(ctx,
		`INSERT INTO campaigns (id, client_id, type, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO UPDATE SET client_id = EXCLUDED.client_id, type = EXCLUDED.type, created_at = EXCLUDED.created_at`,
		c.ID, c.ClientID, string(c.Type), c.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save campaign %s", c.ID)
	}

	return s.ReplaceLeads(ctx, c.ID, c.Leads)
}

func (s *PostgresStore) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	var c model.Campaign
	var typ string

	err := s.pool.QueryRow(ctx,
		`SELECT id, client_id, type, created_at FROM campaigns WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.ClientID, &typ, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("campaign not found: %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get campaign %s", id)
	}
	c.Type = model.CampaignType(typ)

	c.Leads, err = s.loadLeads(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) ListCampaigns(ctx context.Context, clientID string) ([]model.Campaign, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, client_id, type, created_at FROM campaigns WHERE client_id = $1 ORDER BY created_at ASC, id ASC`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list campaigns")
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		var c model.Campaign
		var typ string
		if err := rows.Scan(&c.ID, &c.ClientID, &typ, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan campaign")
		}
		c.Type = model.CampaignType(typ)
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list campaigns iterate")
	}

	for i := range campaigns {
		campaigns[i].Leads, err = s.loadLeads(ctx, campaigns[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return campaigns, nil
}

// ReplaceLeads swaps the campaign's lead set through the transactional
// COPY-based replace helper, so readers never see a half-written set.
func (s *PostgresStore) ReplaceLeads(ctx context.Context, campaignID string, leads []model.Lead) error {
	var one int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM campaigns WHERE id = $1`, campaignID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return eris.Errorf("campaign not found: %s", campaignID)
		}
		return eris.Wrapf(err, "postgres: check campaign %s", campaignID)
	}

	rows := make([][]any, 0, len(leads))
	for i, lead := range leads {
		leadJSON, err := json.Marshal(lead)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal lead")
		}
		rows = append(rows, []any{campaignID, i, leadJSON})
	}

	_, err = db.ReplaceRows(ctx, s.pool, "campaign_leads", "campaign_id", campaignID,
		[]string{"campaign_id", "position", "lead"}, rows)
	if err != nil {
		return eris.Wrapf(err, "postgres: replace leads for %s", campaignID)
	}
	return nil
}

func (s *PostgresStore) ResolveIndustries(ctx context.Context, ids []string) (map[string]string, []string, error) {
	distinct := distinctIDs(ids)
	found := make(map[string]string, len(distinct))
	if len(distinct) == 0 {
		return found, nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, name FROM industry_mappings WHERE id = ANY($1)`,
		distinct,
	)
	if err != nil {
		return nil, nil, eris.Wrap(err, "postgres: resolve industries")
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, nil, eris.Wrap(err, "postgres: scan industry mapping")
		}
		found[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, nil, eris.Wrap(err, "postgres: resolve industries iterate")
	}

	var missing []string
	for _, id := range distinct {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return found, missing, nil
}

// AddIndustryMapping records an identifier to name pair. ON CONFLICT DO
// NOTHING keeps the table append-only under concurrent learners: the first
// name recorded for an identifier wins. Blank pairs are dropped without
// error.
func (s *PostgresStore) AddIndustryMapping(ctx context.Context, id, name, learnedFrom string) error {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return nil
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO industry_mappings (id, name, learned_from, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`,
		id, name, learnedFrom, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: add industry mapping %s", id)
}

// ImportIndustryMappings bulk-loads mapping rows through the temp-table
// upsert in insert-only mode and returns how many were new.
func (s *PostgresStore) ImportIndustryMappings(ctx context.Context, mappings []IndustryMapping) (int, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(mappings))
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
		rows = append(rows, []any{id, name, m.LearnedFrom, createdAt.UTC()})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "industry_mappings",
		Columns:      []string{"id", "name", "learned_from", "created_at"},
		ConflictKeys: []string{"id"},
		InsertOnly:   true,
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import industry mappings")
	}
	return int(n), nil
}

func (s *PostgresStore) ListIndustryMappings(ctx context.Context) ([]IndustryMapping, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, learned_from, created_at FROM industry_mappings ORDER BY id ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list industry mappings")
	}
	defer rows.Close()

	var mappings []IndustryMapping
	for rows.Next() {
		var m IndustryMapping
		if err := rows.Scan(&m.ID, &m.Name, &m.LearnedFrom, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan industry mapping")
		}
		mappings = append(mappings, m)
	}
	return mappings, eris.Wrap(rows.Err(), "postgres: list industry mappings iterate")
}

func (s *PostgresStore) GetVerdicts(ctx context.Context, signature string, labels []string) (map[string]model.Verdict, error) {
	distinct := distinctIDs(labels)
	out := make(map[string]model.Verdict, len(distinct))
	if len(distinct) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT label, verdict FROM intent_verdicts WHERE signature = $1 AND label = ANY($2)`,
		signature, distinct,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get verdicts")
	}
	defer rows.Close()

	for rows.Next() {
		var label, raw string
		if err := rows.Scan(&label, &raw); err != nil {
			return nil, eris.Wrap(err, "postgres: scan verdict")
		}
		if v, ok := model.ParseVerdict(raw); ok {
			out[label] = v
		}
	}
	return out, eris.Wrap(rows.Err(), "postgres: get verdicts iterate")
}

func (s *PostgresStore) PutVerdicts(ctx context.Context, signature string, verdicts map[string]model.Verdict) error {
	if len(verdicts) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, label := range sortedVerdictLabels(verdicts) {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO intent_verdicts (signature, label, verdict, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (signature, label) DO UPDATE SET verdict = EXCLUDED.verdict, created_at = EXCLUDED.created_at`,
			signature, label, string(verdicts[label]), now,
		); err != nil {
			return eris.Wrapf(err, "postgres: put verdict %q", label)
		}
	}
	return nil
}

func (s *PostgresStore) loadLeads(ctx context.Context, campaignID string) ([]model.Lead, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT lead FROM campaign_leads WHERE campaign_id = $1 ORDER BY position ASC`,
		campaignID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load leads for %s", campaignID)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var leadJSON []byte
		if err := rows.Scan(&leadJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		var lead model.Lead
		if err := json.Unmarshal(leadJSON, &lead); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal lead")
		}
		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: load leads iterate")
}
