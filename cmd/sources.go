package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/prospect-cli/internal/mapper"
	"github.com/sells-group/prospect-cli/internal/model"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered source schemas and their field coverage",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := mapper.NewRegistry()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tCOVERED\tMISSING")
		for _, tag := range registry.Sources() {
			schema, _ := registry.Schema(tag)

			var missing []string
			for _, field := range model.FieldNames() {
				if field == "source" {
					continue
				}
				if len(schema.Fields[field]) == 0 {
					missing = append(missing, field)
				}
			}
			sort.Strings(missing)
			covered := len(model.FieldNames()) - 1 - len(missing)
			fmt.Fprintf(w, "%s\t%d/%d\t%s\n", tag, covered, len(model.FieldNames())-1, strings.Join(missing, ", "))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
