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
)

var patentsCmd = &cobra.Command{
	Use:   "patents",
	Short: "Search patents with a natural-language question",
	Long: `Patents sends a question to the configured patent search service and
prints the matching patents. The service endpoint comes from patent.endpoint
in the config file or --endpoint; the API key from .secrets/patent-api-key,
patent.api_key, or PATENT_API_KEY.`,
	RunE: runPatents,
}

func init() {
	patentsCmd.Flags().String("question", "", "natural-language question (required)")
	patentsCmd.Flags().Int("limit", 0, "maximum number of patents (default 20)")
	patentsCmd.Flags().String("endpoint", "", "patent search URL (overrides config)")
	patentsCmd.Flags().Bool("json", false, "output results as JSON")
	patentsCmd.Flags().String("report", "", "write a report (.md or .html)")
	_ = patentsCmd.MarkFlagRequired("question")

	rootCmd.AddCommand(patentsCmd)
}

func runPatents(cmd *cobra.Command, args []string) error {
	question, _ := cmd.Flags().GetString("question")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("provide a question with --question")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	endpoint, _ := cmd.Flags().GetString("endpoint")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	reportPath, _ := cmd.Flags().GetString("report")

	cfg := dashboardConfig()
	if endpoint != "" {
		cfg.Patent.Endpoint = endpoint
	}

	src, err := newPatentSource(cfg)
	if err != nil {
		return err
	}

	patents := src.Search(cmd.Context(), question, limit)
	if jsonOutput {
		if err := search.FormatJSON(patents, cmd.OutOrStdout()); err != nil {
			return err
		}
	} else {
		search.FormatPatents(patents, cmd.OutOrStdout())
	}

	if reportPath != "" {
		err := report.WriteFile(reportPath, report.Report{
			Query:     question,
			Patents:   patents,
			Generated: time.Now(),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote report to %s\n", reportPath)
	}
	return nil
}
