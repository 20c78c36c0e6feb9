package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testLead(email, first string) model.Lead {
	return model.Lead{
		FirstName:   first,
		LastName:    "Vance",
		Title:       "Director of Operations",
		Email:       email,
		CompanyName: "Acme GmbH",
		Industry:    "Computer Software",
		Source:      "apollo",
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("SaveAndGetCampaign", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		c := &model.Campaign{
			ClientID: "client-1",
			Type:     model.CampaignTypeScrape,
			Leads: []model.Lead{
				testLead("ada@acme.com", "Ada"),
				testLead("bo@acme.com", "Bo"),
			},
		}

		require.NoError(t, s.SaveCampaign(ctx, c))
		assert.NotEmpty(t, c.ID)
		assert.False(t, c.CreatedAt.IsZero())

		got, err := s.GetCampaign(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ID)
		assert.Equal(t, "client-1", got.ClientID)
		assert.Equal(t, model.CampaignTypeScrape, got.Type)
		require.Len(t, got.Leads, 2)
		assert.Equal(t, "ada@acme.com", got.Leads[0].Email)
		assert.Equal(t, "bo@acme.com", got.Leads[1].Email)
	})

	t.Run("SaveCampaign_KeepsExplicitID", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		c := &model.Campaign{
			ID:        "camp-explicit",
			ClientID:  "client-1",
			CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		}
		require.NoError(t, s.SaveCampaign(ctx, c))

		got, err := s.GetCampaign(ctx, "camp-explicit")
		require.NoError(t, err)
		assert.Equal(t, "camp-explicit", got.ID)
		assert.True(t, got.CreatedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	})

	t.Run("SaveCampaign_ResaveReplacesLeads", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		c := &model.Campaign{
			ID:       "camp-1",
			ClientID: "client-1",
			Leads: []model.Lead{
				testLead("ada@acme.com", "Ada"),
				testLead("bo@acme.com", "Bo"),
				testLead("cy@acme.com", "Cy"),
			},
		}
		require.NoError(t, s.SaveCampaign(ctx, c))

		c.Leads = []model.Lead{testLead("dee@acme.com", "Dee")}
		require.NoError(t, s.SaveCampaign(ctx, c))

		got, err := s.GetCampaign(ctx, "camp-1")
		require.NoError(t, err)
		require.Len(t, got.Leads, 1)
		assert.Equal(t, "dee@acme.com", got.Leads[0].Email)
	})

	t.Run("GetCampaign_NotFound", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.GetCampaign(ctx, "nonexistent")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("ListCampaigns_OrderedByCreation", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
		// Saved out of order on purpose.
		for _, c := range []*model.Campaign{
			{ID: "camp-c", ClientID: "client-1", CreatedAt: base.Add(48 * time.Hour)},
			{ID: "camp-a", ClientID: "client-1", CreatedAt: base},
			{ID: "camp-b", ClientID: "client-1", CreatedAt: base.Add(24 * time.Hour)},
		} {
			require.NoError(t, s.SaveCampaign(ctx, c))
		}

		campaigns, err := s.ListCampaigns(ctx, "client-1")
		require.NoError(t, err)
		require.Len(t, campaigns, 3)
		assert.Equal(t, "camp-a", campaigns[0].ID)
		assert.Equal(t, "camp-b", campaigns[1].ID)
		assert.Equal(t, "camp-c", campaigns[2].ID)
	})

	t.Run("ListCampaigns_TiesBrokenByID", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		at := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
		for _, id := range []string{"camp-z", "camp-a", "camp-m"} {
			require.NoError(t, s.SaveCampaign(ctx, &model.Campaign{ID: id, ClientID: "client-1", CreatedAt: at}))
		}

		campaigns, err := s.ListCampaigns(ctx, "client-1")
		require.NoError(t, err)
		require.Len(t, campaigns, 3)
		assert.Equal(t, "camp-a", campaigns[0].ID)
		assert.Equal(t, "camp-m", campaigns[1].ID)
		assert.Equal(t, "camp-z", campaigns[2].ID)
	})

	t.Run("ListCampaigns_FiltersByClient", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.SaveCampaign(ctx, &model.Campaign{ID: "camp-1", ClientID: "client-1"}))
		require.NoError(t, s.SaveCampaign(ctx, &model.Campaign{ID: "camp-2", ClientID: "client-2"}))

		campaigns, err := s.ListCampaigns(ctx, "client-1")
		require.NoError(t, err)
		require.Len(t, campaigns, 1)
		assert.Equal(t, "camp-1", campaigns[0].ID)
	})

	t.Run("ListCampaigns_Empty", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		campaigns, err := s.ListCampaigns(ctx, "client-none")
		require.NoError(t, err)
		assert.Empty(t, campaigns)
	})

	t.Run("ListCampaigns_IncludesLeads", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.SaveCampaign(ctx, &model.Campaign{
			ID:       "camp-1",
			ClientID: "client-1",
			Leads:    []model.Lead{testLead("ada@acme.com", "Ada")},
		}))

		campaigns, err := s.ListCampaigns(ctx, "client-1")
		require.NoError(t, err)
		require.Len(t, campaigns, 1)
		require.Len(t, campaigns[0].Leads, 1)
		assert.Equal(t, "ada@acme.com", campaigns[0].Leads[0].Email)
	})

	t.Run("ReplaceLeads_SwapsSet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.SaveCampaign(ctx, &model.Campaign{
			ID:       "camp-1",
			ClientID: "client-1",
			Leads: []model.Lead{
				testLead("ada@acme.com", "Ada"),
				testLead("bo@acme.com", "Bo"),
				testLead("cy@acme.com", "Cy"),
			},
		}))

		err := s.ReplaceLeads(ctx, "camp-1", []model.Lead{
			testLead("dee@acme.com", "Dee"),
			testLead("eli@acme.com", "Eli"),
		})
		require.NoError(t, err)

		got, err := s.GetCampaign(ctx, "camp-1")
		require.NoError(t, err)
		require.Len(t, got.Leads, 2)
		assert.Equal(t, "dee@acme.com", got.Leads[0].Email)
		assert.Equal(t, "eli@acme.com", got.Leads[1].Email)
	})

	t.Run("ReplaceLeads_EmptyClears", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.SaveCampaign(ctx, &model.Campaign{
			ID:       "camp-1",
			ClientID: "client-1",
			Leads:    []model.Lead{testLead("ada@acme.com", "Ada")},
		}))

		require.NoError(t, s.ReplaceLeads(ctx, "camp-1", nil))

		got, err := s.GetCampaign(ctx, "camp-1")
		require.NoError(t, err)
		assert.Empty(t, got.Leads)
	})

	t.Run("ReplaceLeads_CampaignNotFound", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.ReplaceLeads(ctx, "nonexistent", []model.Lead{testLead("ada@acme.com", "Ada")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("LeadsKeepOrderAndFields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		leads := make([]model.Lead, 20)
		for i := range leads {
			leads[i] = testLead("", "Person")
			leads[i].ProfileURL = fmt.Sprintf("https://linkedin.com/in/person-%02d", i)
			leads[i].Provenance = model.Provenance{CampaignID: "camp-1"}
		}
		require.NoError(t, s.SaveCampaign(ctx, &model.Campaign{ID: "camp-1", ClientID: "client-1", Leads: leads}))

		got, err := s.GetCampaign(ctx, "camp-1")
		require.NoError(t, err)
		require.Len(t, got.Leads, 20)
		for i := range got.Leads {
			assert.Equal(t, leads[i].ProfileURL, got.Leads[i].ProfileURL)
		}
		assert.Equal(t, "camp-1", got.Leads[0].Provenance.CampaignID)
	})

	t.Run("ResolveIndustries", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddIndustryMapping(ctx, "5567", "Computer Software", "apollo"))
		require.NoError(t, s.AddIndustryMapping(ctx, "104", "Retail", "apollo"))

		found, missing, err := s.ResolveIndustries(ctx, []string{"5567", "104", "96"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"5567": "Computer Software", "104": "Retail"}, found)
		assert.Equal(t, []string{"96"}, missing)
	})

	t.Run("ResolveIndustries_Empty", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		found, missing, err := s.ResolveIndustries(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, found)
		assert.Empty(t, missing)
	})

	t.Run("ResolveIndustries_DedupesInput", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddIndustryMapping(ctx, "5567", "Computer Software", ""))

		found, missing, err := s.ResolveIndustries(ctx, []string{"5567", " 5567 ", "96", "96", ""})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"5567": "Computer Software"}, found)
		assert.Equal(t, []string{"96"}, missing)
	})

	t.Run("AddIndustryMapping_FirstWriteWins", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddIndustryMapping(ctx, "5567", "Computer Software", "apollo"))
		require.NoError(t, s.AddIndustryMapping(ctx, "5567", "Renamed Software", "salesnav"))

		found, _, err := s.ResolveIndustries(ctx, []string{"5567"})
		require.NoError(t, err)
		assert.Equal(t, "Computer Software", found["5567"])
	})

	t.Run("AddIndustryMapping_IgnoresBlankPairs", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddIndustryMapping(ctx, "", "Retail", "apollo"))
		require.NoError(t, s.AddIndustryMapping(ctx, "104", "  ", "apollo"))

		mappings, err := s.ListIndustryMappings(ctx)
		require.NoError(t, err)
		assert.Empty(t, mappings)
	})

	t.Run("ImportIndustryMappings_CountsNewOnly", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddIndustryMapping(ctx, "5567", "Computer Software", "apollo"))

		added, err := s.ImportIndustryMappings(ctx, []IndustryMapping{
			{ID: "5567", Name: "Shadowed Name", LearnedFrom: "seed"},
			{ID: "104", Name: "Retail", LearnedFrom: "seed"},
			{ID: "96", Name: "Farming", LearnedFrom: "seed"},
			{ID: "", Name: "No ID", LearnedFrom: "seed"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, added)

		found, _, err := s.ResolveIndustries(ctx, []string{"5567", "104", "96"})
		require.NoError(t, err)
		assert.Equal(t, "Computer Software", found["5567"])
		assert.Equal(t, "Retail", found["104"])
		assert.Equal(t, "Farming", found["96"])
	})

	t.Run("ListIndustryMappings_SortedByID", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddIndustryMapping(ctx, "96", "Farming", "apollo"))
		require.NoError(t, s.AddIndustryMapping(ctx, "104", "Retail", "salesnav"))

		mappings, err := s.ListIndustryMappings(ctx)
		require.NoError(t, err)
		require.Len(t, mappings, 2)
		assert.Equal(t, "104", mappings[0].ID)
		assert.Equal(t, "Retail", mappings[0].Name)
		assert.Equal(t, "salesnav", mappings[0].LearnedFrom)
		assert.Equal(t, "96", mappings[1].ID)
	})

	t.Run("VerdictsRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := map[string]model.Verdict{
			"Retail":  model.VerdictIrrelevant,
			"Fintech": model.VerdictRelevant,
		}
		require.NoError(t, s.PutVerdicts(ctx, "sig-1", in))

		got, err := s.GetVerdicts(ctx, "sig-1", []string{"Retail", "Fintech"})
		require.NoError(t, err)
		assert.Equal(t, in, got)
	})

	t.Run("GetVerdicts_ReturnsOnlyKnownLabels", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.PutVerdicts(ctx, "sig-1", map[string]model.Verdict{
			"Retail": model.VerdictIrrelevant,
		}))

		got, err := s.GetVerdicts(ctx, "sig-1", []string{"Retail", "Farming"})
		require.NoError(t, err)
		assert.Equal(t, map[string]model.Verdict{"Retail": model.VerdictIrrelevant}, got)
	})

	t.Run("GetVerdicts_SignatureIsolation", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.PutVerdicts(ctx, "sig-1", map[string]model.Verdict{
			"Retail": model.VerdictRelevant,
		}))

		got, err := s.GetVerdicts(ctx, "sig-2", []string{"Retail"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("PutVerdicts_Overwrites", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.PutVerdicts(ctx, "sig-1", map[string]model.Verdict{
			"Retail": model.VerdictMaybe,
		}))
		require.NoError(t, s.PutVerdicts(ctx, "sig-1", map[string]model.Verdict{
			"Retail": model.VerdictIrrelevant,
		}))

		got, err := s.GetVerdicts(ctx, "sig-1", []string{"Retail"})
		require.NoError(t, err)
		assert.Equal(t, model.VerdictIrrelevant, got["Retail"])
	})

	t.Run("PutVerdicts_EmptyIsNoop", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.PutVerdicts(ctx, "sig-1", nil))

		got, err := s.GetVerdicts(ctx, "sig-1", []string{"Retail"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}
