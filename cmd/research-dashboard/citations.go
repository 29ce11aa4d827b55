// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-dashboard/internal/search"
	"github.com/pdiddy/research-dashboard/pkg/types"
)

var citationsCmd = &cobra.Command{
	Use:   "citations [identifiers...]",
	Short: "List the works citing each DOI or provider ID",
	Long: `Citations looks up the works that cite each identifier, most cited
first. Identifiers may be DOIs or provider-specific IDs. Lookups share one
rate-limited connection per provider.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCitations,
}

func init() {
	citationsCmd.Flags().String("provider", "openalex", "search provider: openalex, semantic or arxiv")
	citationsCmd.Flags().Int("concurrency", 4, "identifiers looked up in parallel")
	citationsCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(citationsCmd)
}

// citationResult pairs an identifier with its citing works.
type citationResult struct {
	Identifier string               `json:"identifier"`
	CitedBy    []types.CitationStub `json:"cited_by"`
}

func runCitations(cmd *cobra.Command, args []string) error {
	providerName, _ := cmd.Flags().GetString("provider")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1")
	}

	cfg := dashboardConfig()
	provider, err := newProvider(providerName, cfg)
	if err != nil {
		return err
	}
	engine := newEngine(provider, cfg, false)

	results := make([]citationResult, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(concurrency)
	for i, id := range args {
		g.Go(func() error {
			results[i] = citationResult{Identifier: id, CitedBy: engine.Citations(ctx, types.BareDOI(id))}
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return search.FormatJSON(results, out)
	}
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		search.FormatCitations(r.Identifier, r.CitedBy, out)
	}
	return nil
}
