package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/dedupe"
	"github.com/sells-group/prospect-cli/internal/model"
)

var (
	dedupClient string
	dedupCommit bool
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Cross-campaign dedup over a client's stored history",
	Long:  "Orders the client's stored campaigns oldest-first and removes from each later campaign every lead an earlier campaign already owns. The baseline campaign is never touched. Prints per-campaign reports; --commit rewrites the non-baseline lead sets.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		campaigns, err := st.ListCampaigns(ctx, dedupClient)
		if err != nil {
			return eris.Wrapf(err, "list campaigns for client %q", dedupClient)
		}
		if len(campaigns) == 0 {
			cmd.Printf("client %s has no stored campaigns\n", dedupClient)
			return nil
		}

		deduper := dedupe.NewDeduper()
		sets, reports, err := deduper.DedupeCampaigns(model.Client{ID: dedupClient, Campaigns: campaigns})
		if err != nil {
			return err
		}

		printCampaignReports(cmd.OutOrStdout(), reports)

		if !dedupCommit {
			cmd.Println("\ndry run: pass --commit to rewrite the deduplicated campaigns")
			return nil
		}

		for _, cr := range reports {
			if cr.Baseline || cr.Removed == 0 {
				continue
			}
			if err := st.ReplaceLeads(ctx, cr.CampaignID, sets[cr.CampaignID]); err != nil {
				return eris.Wrapf(err, "replace leads for campaign %q", cr.CampaignID)
			}
			zap.L().Info("dedup: campaign rewritten",
				zap.String("campaign", cr.CampaignID),
				zap.Int("kept", cr.Kept),
				zap.Int("removed", cr.Removed),
			)
		}
		cmd.Println("\ncommitted")
		return nil
	},
}

func init() {
	dedupCmd.Flags().StringVar(&dedupClient, "client", "", "client whose campaigns to deduplicate")
	dedupCmd.Flags().BoolVar(&dedupCommit, "commit", false, "rewrite non-baseline campaigns after review")
	_ = dedupCmd.MarkFlagRequired("client")
	rootCmd.AddCommand(dedupCmd)
}
