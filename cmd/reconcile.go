package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/fetcher"
	"github.com/sells-group/prospect-cli/internal/filter"
	"github.com/sells-group/prospect-cli/internal/mapper"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/pipeline"
	"github.com/sells-group/prospect-cli/internal/relevance"
	"github.com/sells-group/prospect-cli/internal/resilience"
	anthropicpkg "github.com/sells-group/prospect-cli/pkg/anthropic"
)

var (
	reconcileSource         string
	reconcileIn             string
	reconcileClient         string
	reconcileCampaign       string
	reconcileIntent         string
	reconcileFormat         string
	reconcileAgainstHistory bool
	reconcileCommit         bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Normalize, deduplicate, and filter one scraper drop",
	Long:  "Reads a raw scraper export, maps it onto the canonical lead schema, collapses duplicates (optionally against the client's stored campaign history), runs the filter pipeline, and prints the stage-by-stage report. Nothing is persisted unless --commit is set.",
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

		var intent *model.IndustryIntent
		if reconcileIntent != "" {
			intent, err = loadIntent(reconcileIntent)
			if err != nil {
				return err
			}
		}

		opener := fetcher.NewOpener(
			fetcher.HTTPOptions{
				UserAgent:  cfg.Fetch.UserAgent,
				Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
				MaxRetries: cfg.Fetch.MaxRetries,
			},
			fetcher.FTPOptions{
				User:     cfg.Fetch.FTPUser,
				Password: cfg.Fetch.FTPPassword,
				Timeout:  time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			},
		)

		batch, err := opener.ReadBatch(ctx, reconcileSource, reconcileIn, fetcher.BatchOptions{
			Format: fetcher.Format(reconcileFormat),
		})
		if err != nil {
			return err
		}

		filters := filter.New(filterOptions(st, intent)...)
		reconciler := pipeline.New(mapper.NewRegistry(), filters,
			pipeline.WithHistory(st),
			pipeline.WithMappingAppender(st),
		)

		againstHistory := cfg.Dedupe.AgainstHistory
		if cmd.Flags().Changed("against-history") {
			againstHistory = reconcileAgainstHistory
		}

		result, err := reconciler.ReconcileBatch(ctx, batch, pipeline.Options{
			ClientID:       reconcileClient,
			CampaignID:     reconcileCampaign,
			AgainstHistory: againstHistory,
			Filter:         filterConfig(intent),
			Workers:        cfg.Pipeline.Workers,
		})
		if err != nil {
			return err
		}

		printResult(cmd.OutOrStdout(), result)

		if !reconcileCommit {
			cmd.Println("\ndry run: pass --commit to persist the kept leads")
			return nil
		}

		campaign := &model.Campaign{
			ID:       reconcileCampaign,
			ClientID: reconcileClient,
			Type:     model.CampaignTypeScrape,
			Leads:    result.Leads,
		}
		if err := st.SaveCampaign(ctx, campaign); err != nil {
			return eris.Wrap(err, "save campaign")
		}
		zap.L().Info("reconcile: campaign committed",
			zap.String("campaign", campaign.ID),
			zap.Int("leads", len(campaign.Leads)),
		)
		cmd.Printf("\ncommitted %d leads to campaign %s\n", len(campaign.Leads), campaign.ID)
		return nil
	},
}

// filterOptions wires the relevance scorer when an Anthropic key is
// configured and an intent is present. Without both, the relevance form of
// industry-include reports itself skipped and the run stays fully offline.
func filterOptions(cache relevance.VerdictCache, intent *model.IndustryIntent) []filter.Option {
	if cfg.Anthropic.Key == "" || intent == nil {
		return nil
	}

	client := anthropicpkg.NewClient(cfg.Anthropic.Key,
		anthropicpkg.WithRateLimit(cfg.Anthropic.RequestsPerSecond),
	)
	scorer := relevance.New(client,
		relevance.WithCache(cache),
		relevance.WithModel(cfg.Anthropic.Model),
		relevance.WithRetry(resilience.FromRetryConfig(
			cfg.Relevance.MaxAttempts,
			cfg.Relevance.InitialBackoffMs,
			cfg.Relevance.MaxBackoffMs,
			cfg.Relevance.Multiplier,
			cfg.Relevance.JitterFraction,
		)),
	)
	return []filter.Option{filter.WithScorer(scorer)}
}

// filterConfig merges the configured stage arming with the run's intent.
func filterConfig(intent *model.IndustryIntent) filter.Config {
	return filter.Config{
		RequireEmail:          cfg.Pipeline.RequireEmail,
		PhoneCountries:        cfg.Pipeline.PhoneCountries,
		ExcludeTitles:         cfg.Pipeline.ExcludeTitles,
		IncludeIndustries:     cfg.Pipeline.IncludeIndustries,
		ExcludeIndustries:     cfg.Pipeline.ExcludeIndustries,
		Countries:             cfg.Pipeline.Countries,
		ExcludeForeignDomains: cfg.Pipeline.ExcludeForeignDomains,
		RequireWebsite:        cfg.Pipeline.RequireWebsite,
		CheckPhoneConsistency: cfg.Pipeline.CheckPhoneConsistency,
		Intent:                intent,
	}
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileSource, "source", "", "source tag of the drop (apollo, salesnav, snov, ...)")
	reconcileCmd.Flags().StringVar(&reconcileIn, "in", "", "drop reference: local path, http(s):// or ftp:// URL")
	reconcileCmd.Flags().StringVar(&reconcileClient, "client", "", "client the campaign belongs to")
	reconcileCmd.Flags().StringVar(&reconcileCampaign, "campaign", "", "campaign id for the batch")
	reconcileCmd.Flags().StringVar(&reconcileIntent, "intent", "", "intent yaml for relevance scoring (optional)")
	reconcileCmd.Flags().StringVar(&reconcileFormat, "format", "", "drop format override: json, csv, or xlsx")
	reconcileCmd.Flags().BoolVar(&reconcileAgainstHistory, "against-history", false, "dedupe against the client's stored campaigns")
	reconcileCmd.Flags().BoolVar(&reconcileCommit, "commit", false, "persist the kept leads after review")
	_ = reconcileCmd.MarkFlagRequired("source")
	_ = reconcileCmd.MarkFlagRequired("in")
	_ = reconcileCmd.MarkFlagRequired("client")
	_ = reconcileCmd.MarkFlagRequired("campaign")
	rootCmd.AddCommand(reconcileCmd)
}
