// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-dashboard/internal/report"
	"github.com/pdiddy/research-dashboard/internal/search"
)

var showCmd = &cobra.Command{
	Use:   "show <query-file>",
	Short: "Reprint the results of a saved search",
	Long: `Show reads a query file written by "search --save" and prints its results
without contacting any provider. Use --report to render it as Markdown or
HTML instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().Bool("json", false, "output results as JSON")
	showCmd.Flags().Bool("csl", false, "output results as CSL-YAML")
	showCmd.Flags().String("report", "", "write a report (.md or .html)")

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cslOutput, _ := cmd.Flags().GetBool("csl")
	reportPath, _ := cmd.Flags().GetString("report")

	qf, err := search.ReadQueryFile(args[0])
	if err != nil {
		return err
	}

	if reportPath != "" {
		return report.WriteFile(reportPath, report.Report{
			Query:     qf.Query.FreeText,
			Keywords:  qf.Query.Keywords,
			Attempts:  qf.Attempts,
			Records:   qf.Results,
			Generated: qf.Summary.Timestamp,
		})
	}

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return search.FormatJSON(qf.Results, out)
	case cslOutput:
		return search.FormatCSL(qf.Results, out)
	}

	fmt.Fprintf(out, "Run %s  %s  provider=%s\n", qf.RunID, qf.Summary.Timestamp.Format("2006-01-02 15:04"), qf.Config.Provider)
	fmt.Fprintf(out, "Query: %s\n\n", qf.Query.FreeText)
	search.FormatTable(qf.Results, out)
	return nil
}
