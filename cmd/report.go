package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/sells-group/prospect-cli/internal/dedupe"
	"github.com/sells-group/prospect-cli/internal/pipeline"
)

// printResult writes the full reviewable breakdown of one reconcile run:
// dropped records, intra-batch merges, cross-campaign removals, and the
// filter stage table.
func printResult(out io.Writer, result *pipeline.Result) {
	fmt.Fprintf(out, "mapped %d records", result.Mapped)
	if len(result.Dropped) > 0 {
		fmt.Fprintf(out, ", dropped %d", len(result.Dropped))
	}
	fmt.Fprintln(out)

	for _, d := range result.Dropped {
		fmt.Fprintf(out, "  record %d dropped: %s\n", d.Index, d.Reason)
	}

	br := result.BatchReport
	fmt.Fprintf(out, "intra-batch dedup: %d in, %d out, %d merged\n", br.Input, br.Output, br.Merged)

	if len(result.CampaignReports) > 0 {
		fmt.Fprintln(out, "\ncross-campaign dedup:")
		printCampaignReports(out, result.CampaignReports)
	}

	if len(result.Learned) > 0 {
		fmt.Fprintf(out, "\nlearned %d industry mapping(s)\n", len(result.Learned))
	}

	if result.FilterReport != nil {
		fmt.Fprintln(out, "\nfilter pipeline:")
		result.FilterReport.Render(out)
		if result.FilterReport.Input != result.FilterReport.Output {
			fmt.Fprintln(out)
			result.FilterReport.RenderRemovals(out)
		}
	}
}

func printCampaignReports(out io.Writer, reports []dedupe.CampaignReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CAMPAIGN\tIN\tKEPT\tREMOVED\tREMOVED BY")
	for _, cr := range reports {
		name := cr.CampaignID
		if cr.Baseline {
			name += " (baseline)"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", name, cr.Input, cr.Kept, cr.Removed, formatRemovedBy(cr.RemovedBy))
	}
	_ = w.Flush()
}

func formatRemovedBy(removedBy map[string]int) string {
	if len(removedBy) == 0 {
		return ""
	}
	ids := make([]string, 0, len(removedBy))
	for id := range removedBy {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	s := ""
	for i, id := range ids {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s:%d", id, removedBy[id])
	}
	return s
}
