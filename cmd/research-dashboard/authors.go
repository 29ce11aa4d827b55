// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-dashboard/internal/search"
)

var authorsCmd = &cobra.Command{
	Use:   "authors",
	Short: "Look up researchers in the ORCID registry",
	RunE:  runAuthors,
}

func init() {
	authorsCmd.Flags().String("name", "", "researcher name to look up (required)")
	authorsCmd.Flags().Int("rows", 10, "maximum number of entries")
	authorsCmd.Flags().Bool("json", false, "output results as JSON")
	_ = authorsCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(authorsCmd)
}

func runAuthors(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("provide a name with --name")
	}
	rows, _ := cmd.Flags().GetInt("rows")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	authors := search.NewORCIDSource(newFetcher(dashboardConfig())).Search(cmd.Context(), name, rows)
	if jsonOutput {
		return search.FormatJSON(authors, cmd.OutOrStdout())
	}
	search.FormatAuthors(authors, cmd.OutOrStdout())
	return nil
}
