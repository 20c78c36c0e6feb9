package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetCampaign_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, client_id, type, created_at FROM campaigns WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetCampaign(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCampaign_WithLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	createdAt := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, client_id, type, created_at FROM campaigns WHERE id = \$1`).
		WithArgs("camp-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "client_id", "type", "created_at"}).
			AddRow("camp-1", "client-1", "scrape", createdAt))
	mock.ExpectQuery(`SELECT lead FROM campaign_leads WHERE campaign_id = \$1`).
		WithArgs("camp-1").
		WillReturnRows(pgxmock.NewRows([]string{"lead"}).
			AddRow([]byte(`{"email":"ada@acme.com","source":"apollo"}`)).
			AddRow([]byte(`{"email":"bo@acme.com","source":"apollo"}`)))

	got, err := s.GetCampaign(context.Background(), "camp-1")
	require.NoError(t, err)
	assert.Equal(t, "client-1", got.ClientID)
	assert.Equal(t, model.CampaignTypeScrape, got.Type)
	require.Len(t, got.Leads, 2)
	assert.Equal(t, "ada@acme.com", got.Leads[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveCampaign_UpsertsAndReplacesLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO campaigns`).
		WithArgs("camp-1", "client-1", "import", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT 1 FROM campaigns WHERE id = \$1`).
		WithArgs("camp-1").
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "campaign_leads"`).
		WithArgs("camp-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"campaign_leads"}, []string{"campaign_id", "position", "lead"}).
		WillReturnResult(1)
	mock.ExpectCommit()

	c := &model.Campaign{
		ID:       "camp-1",
		ClientID: "client-1",
		Leads:    []model.Lead{{Email: "ada@acme.com", Source: "apollo"}},
	}
	require.NoError(t, s.SaveCampaign(context.Background(), c))
	assert.Equal(t, model.CampaignTypeImport, c.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceLeads_CampaignNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT 1 FROM campaigns WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	err := s.ReplaceLeads(context.Background(), "nonexistent", []model.Lead{{Email: "ada@acme.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ResolveIndustries(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name FROM industry_mappings WHERE id = ANY\(\$1\)`).
		WithArgs([]string{"5567", "96"}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow("5567", "Computer Software"))

	found, missing, err := s.ResolveIndustries(context.Background(), []string{"5567", "96"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"5567": "Computer Software"}, found)
	assert.Equal(t, []string{"96"}, missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddIndustryMapping_InsertIgnore(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \(id\) DO NOTHING`).
		WithArgs("5567", "Computer Software", "apollo", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := s.AddIndustryMapping(context.Background(), "5567", "Computer Software", "apollo")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddIndustryMapping_BlankPairSkipsWrite(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	require.NoError(t, s.AddIndustryMapping(context.Background(), "  ", "Retail", "apollo"))
	require.NoError(t, s.AddIndustryMapping(context.Background(), "104", "", "apollo"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ImportIndustryMappings_BulkInsertOnly(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_industry_mappings"}, []string{"id", "name", "learned_from", "created_at"}).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	added, err := s.ImportIndustryMappings(context.Background(), []IndustryMapping{
		{ID: "5567", Name: "Computer Software"},
		{ID: "104", Name: "Retail"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetVerdicts(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT label, verdict FROM intent_verdicts WHERE signature = \$1 AND label = ANY\(\$2\)`).
		WithArgs("sig-1", []string{"Retail", "Fintech"}).
		WillReturnRows(pgxmock.NewRows([]string{"label", "verdict"}).
			AddRow("Retail", "irrelevant"))

	got, err := s.GetVerdicts(context.Background(), "sig-1", []string{"Retail", "Fintech"})
	require.NoError(t, err)
	assert.Equal(t, map[string]model.Verdict{"Retail": model.VerdictIrrelevant}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutVerdicts_WritesLabelsInSortedOrder(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO intent_verdicts`).
		WithArgs("sig-1", "Fintech", "relevant", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO intent_verdicts`).
		WithArgs("sig-1", "Retail", "irrelevant", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.PutVerdicts(context.Background(), "sig-1", map[string]model.Verdict{
		"Retail":  model.VerdictIrrelevant,
		"Fintech": model.VerdictRelevant,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS campaigns`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Ping(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`SELECT 1`).WillReturnResult(pgxmock.NewResult("SELECT", 1))

	require.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
