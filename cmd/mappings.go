package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/prospect-cli/internal/store"
)

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Maintain the learned industry mapping store",
	Long:  "The mapping store resolves opaque industry identifiers to human-readable names. It is append-only: the first name recorded for an identifier wins, and every recorded pair benefits all future translations.",
}

var mappingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all recorded industry mappings",
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

		mappings, err := st.ListIndustryMappings(ctx)
		if err != nil {
			return err
		}
		if len(mappings) == 0 {
			cmd.Println("no mappings recorded")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tLEARNED FROM")
		for _, m := range mappings {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Name, m.LearnedFrom)
		}
		return w.Flush()
	},
}

var mappingsAddCmd = &cobra.Command{
	Use:   "add <id> <name>",
	Short: "Record one industry identifier/name pair",
	Args:  cobra.ExactArgs(2),
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

		if err := st.AddIndustryMapping(ctx, args[0], args[1], "manual"); err != nil {
			return err
		}
		cmd.Printf("recorded %s -> %s\n", args[0], args[1])
		return nil
	},
}

var mappingsImportCmd = &cobra.Command{
	Use:   "import <seed.yaml>",
	Short: "Bulk-import mappings from a yaml seed file",
	Long:  "The seed file maps identifier to name, one pair per line. Identifiers already in the store keep their recorded name.",
	Args:  cobra.ExactArgs(1),
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

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read seed %s", args[0])
		}
		var seed map[string]string
		if err := yaml.Unmarshal(data, &seed); err != nil {
			return eris.Wrapf(err, "parse seed %s", args[0])
		}

		mappings := make([]store.IndustryMapping, 0, len(seed))
		for id, name := range seed {
			mappings = append(mappings, store.IndustryMapping{ID: id, Name: name, LearnedFrom: "seed"})
		}
		added, err := st.ImportIndustryMappings(ctx, mappings)
		if err != nil {
			return err
		}
		cmd.Printf("imported %d new mapping(s), %d already recorded\n", added, len(mappings)-added)
		return nil
	},
}

func init() {
	mappingsCmd.AddCommand(mappingsListCmd, mappingsAddCmd, mappingsImportCmd)
	rootCmd.AddCommand(mappingsCmd)
}
