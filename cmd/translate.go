package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/prospect-cli/internal/translate"
)

var (
	translateIntent string
	translateDest   string
	translateOut    string
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate an intent into one destination's filter payload",
	Long:  "Converts an audience intent yaml into the named destination scraper's filter vocabulary. Translation fails closed: a company-size bucket outside the destination's table or an industry identifier the mapping store cannot resolve aborts with no payload rather than scraping unfiltered.",
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

		intent, err := loadIntent(translateIntent)
		if err != nil {
			return err
		}

		translator := translate.New(st)
		payload, err := translator.Translate(ctx, *intent, translateDest)
		if err != nil {
			var unresolved *translate.UnresolvedIndustryError
			if errors.As(err, &unresolved) {
				cmd.PrintErrf("unresolved industry identifiers for %s:\n", unresolved.Destination)
				for _, id := range unresolved.IDs {
					cmd.PrintErrf("  %s\n", id)
				}
				cmd.PrintErrln("add them with: prospect-cli mappings add <id> <name>")
			}
			return err
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return eris.Wrap(err, "encode payload")
		}

		if translateOut == "" {
			cmd.Println(string(data))
			return nil
		}
		if err := os.WriteFile(translateOut, append(data, '\n'), 0o644); err != nil {
			return eris.Wrapf(err, "write payload %s", translateOut)
		}
		cmd.Printf("wrote %s payload to %s\n", payload.Destination, translateOut)
		return nil
	},
}

func init() {
	translateCmd.Flags().StringVar(&translateIntent, "intent", "", "intent yaml file")
	translateCmd.Flags().StringVar(&translateDest, "dest", "", "destination scraper (apollo, salesnav)")
	translateCmd.Flags().StringVar(&translateOut, "out", "", "write the payload json here instead of stdout")
	_ = translateCmd.MarkFlagRequired("intent")
	_ = translateCmd.MarkFlagRequired("dest")
	rootCmd.AddCommand(translateCmd)
}
