// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-dashboard/internal/report"
	"github.com/pdiddy/research-dashboard/internal/search"
	"github.com/pdiddy/research-dashboard/internal/summarize"
	"github.com/pdiddy/research-dashboard/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search for publications and rank them",
	Long: `Search sends a free-text query to an academic provider and fuses the
results. When the verbatim query finds nothing, the keywords are tried as an
OR query, then the query without quotation marks. Missing abstracts are
recovered from the publisher page or synthesized from the title and topics.
Records are ranked by citation count, then by keyword similarity, and the
top results are printed.`,
	Example: `  research-dashboard search --query "self-inflating tire" --keywords "tire pressure,valve"
  research-dashboard search --query graphene --json
  research-dashboard search --query graphene --save graphene.yaml --report graphene.html --summarize trends`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "free-text research question (required)")
	searchCmd.Flags().String("keywords", "", "keywords for scoring and fallback (comma-separated)")
	searchCmd.Flags().String("provider", "openalex", "search provider: openalex, semantic or arxiv")
	searchCmd.Flags().Int("max-results", 0, "maximum number of results (at most 50)")
	searchCmd.Flags().Bool("no-backfill", false, "do not fetch publisher pages to recover abstracts")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("csl", false, "output results as CSL-YAML")
	searchCmd.Flags().String("save", "", "save the query and results to a YAML file")
	searchCmd.Flags().String("report", "", "write a report (.md or .html)")
	searchCmd.Flags().String("summarize", "", "add a model-written summary: overview, trends, or gaps")
	searchCmd.Flags().String("patents", "", "also search patents with this question and include them in the report")
	_ = searchCmd.MarkFlagRequired("query")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("provide a search query with --query")
	}
	keywordList, _ := cmd.Flags().GetString("keywords")
	keywords := splitList(keywordList)
	providerName, _ := cmd.Flags().GetString("provider")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	noBackfill, _ := cmd.Flags().GetBool("no-backfill")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cslOutput, _ := cmd.Flags().GetBool("csl")
	savePath, _ := cmd.Flags().GetString("save")
	reportPath, _ := cmd.Flags().GetString("report")
	summaryKind, _ := cmd.Flags().GetString("summarize")
	patentQuestion, _ := cmd.Flags().GetString("patents")

	if jsonOutput && cslOutput {
		return fmt.Errorf("--json and --csl are mutually exclusive")
	}

	cfg := dashboardConfig()
	if maxResults > 0 {
		cfg.Fusion.MaxResults = maxResults
	}

	// Validate the summarizer before spending time on the search.
	var summarizer *summarize.Summarizer
	var kind summarize.Kind
	if summaryKind != "" {
		k, err := summarize.ParseKind(summaryKind)
		if err != nil {
			return err
		}
		s, err := summarize.NewAnthropicSummarizer(cfg.AI, nil)
		if err != nil {
			return err
		}
		kind, summarizer = k, s
	}

	var patentSrc *search.PatentSource
	if strings.TrimSpace(patentQuestion) != "" {
		src, err := newPatentSource(cfg)
		if err != nil {
			return err
		}
		patentSrc = src
	}

	provider, err := newProvider(providerName, cfg)
	if err != nil {
		return err
	}
	engine := newEngine(provider, cfg, cfg.Fusion.BackfillDocuments && !noBackfill)

	ctx := cmd.Context()
	records, rep := engine.FuseWithReport(ctx, query, keywords)
	if rep.Err != nil {
		return fmt.Errorf("search abandoned: %w", rep.Err)
	}

	var summary string
	if summarizer != nil {
		summary, err = summarizer.Summarize(ctx, kind, query, records)
		if err != nil {
			return err
		}
	}

	var patents []types.Patent
	if patentSrc != nil {
		patents = patentSrc.Search(ctx, patentQuestion, 0)
	}

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		if err := search.FormatJSON(records, out); err != nil {
			return err
		}
	case cslOutput:
		if err := search.FormatCSL(records, out); err != nil {
			return err
		}
	default:
		search.FormatTable(records, out)
		if patentSrc != nil {
			fmt.Fprintln(out)
			search.FormatPatents(patents, out)
		}
		if summary != "" {
			fmt.Fprintf(out, "\n%s\n", summary)
		}
	}

	if savePath != "" {
		qf := search.NewQueryFile(query, keywords, search.QueryFileConfig{
			Provider:   provider.Name(),
			PageSize:   cfg.Fusion.PageSize,
			MaxResults: cfg.Fusion.MaxResults,
		}, rep.Attempts, records)
		qf.Summary.Abstracts = rep.Abstracts
		if err := search.WriteQueryFile(savePath, qf); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d results to %s\n", len(records), savePath)
	}

	if reportPath != "" {
		err := report.WriteFile(reportPath, report.Report{
			Query:     query,
			Keywords:  keywords,
			Attempts:  rep.Attempts,
			Records:   records,
			Patents:   patents,
			Summary:   summary,
			Generated: time.Now(),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote report to %s\n", reportPath)
	}
	return nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
