package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/stockscout/internal/agent/core"
	"github.com/spf13/cobra"
)

func researchCMD(cfgPath *string) *cobra.Command {
	var (
		maxLinks      int
		maxSubqueries int
		asJSON        bool
	)
	cmd := &cobra.Command{
		Use:   "research [topic]",
		Short: "Run one research pass and print the findings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.orch.Run(cmd.Context(), core.Request{
				Topic:            strings.Join(args, " "),
				MaxLinksPerQuery: maxLinks,
				MaxSubqueries:    maxSubqueries,
			})
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			for _, f := range report.Findings {
				fmt.Fprintln(out, "=== SUBQUERY ===")
				fmt.Fprintln(out, "Query:", f.Query)
				fmt.Fprintln(out, "Link:", f.Link)
				fmt.Fprintf(out, "Summary:\n%s\n\n", f.Summary)
			}
			s := report.Stats
			fmt.Fprintf(out, "%d findings from %d subqueries (%d without links, %d empty pages, %d empty summaries) in %v\n",
				s.Findings, s.Subqueries, s.SubqueriesWithoutLinks, s.EmptyFetches, s.EmptySummaries, report.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().IntVar(&maxLinks, "max-links", 0, "links visited per subquery (default research.max_links_per_query)")
	cmd.Flags().IntVar(&maxSubqueries, "max-subqueries", 0, "subqueries generated (default research.max_subqueries)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	return cmd
}
