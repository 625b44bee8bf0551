package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/project"
	"github.com/pdiddy/research-assistant/internal/pubmed"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [keywords...]",
	Short: "Search PubMed and save the results as a new project",
	Long: `Search queries PubMed for papers matching the keywords, creates a new
project directory, and persists the result list there. Every search gets
its own project; rerun the same keywords and you get a second project.

A publication date range is applied only when both --from-year and
--to-year are given; a single bound is ignored.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("from-year", 0, "publication year range start")
	searchCmd.Flags().Int("to-year", 0, "publication year range end")
	searchCmd.Flags().Int("max-results", 10, "maximum number of results (capped at 50)")
	searchCmd.Flags().String("owner", defaultOwner, "owner recorded in project metadata")
	searchCmd.Flags().String("base-dir", "", "project store directory (default research_projects)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	keywords := strings.TrimSpace(strings.Join(args, " "))
	if keywords == "" {
		return fmt.Errorf("%w: provide search keywords", types.ErrInvalidInput)
	}

	fromYear, _ := cmd.Flags().GetInt("from-year")
	toYear, _ := cmd.Flags().GetInt("to-year")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	owner, _ := cmd.Flags().GetString("owner")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg := types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultTimeout,
			UserAgent: defaultUserAgent,
		},
		APIKey: loadedSecrets["ncbi-api-key"],
	}

	query := pubmed.Query{
		Keywords:   keywords,
		YearFrom:   fromYear,
		YearTo:     toYear,
		MaxResults: maxResults,
	}
	if err := query.Validate(); err != nil {
		return err
	}

	store, err := project.NewStore(types.StoreConfig{BaseDir: baseDir(cmd)})
	if err != nil {
		return err
	}

	meta, err := store.Create(keywords, owner)
	if err != nil {
		return err
	}

	client := pubmed.NewClient(&http.Client{Timeout: cfg.Timeout}, cfg)
	papers, err := client.Search(cmd.Context(), query)
	if err != nil {
		// Upstream trouble degrades to an empty result; the project
		// directory stays at status created.
		fmt.Fprintf(os.Stderr, "warning: search failed: %v\n", err)
		papers = nil
	}

	if len(papers) == 0 {
		fmt.Printf("No papers found for: %s\n", keywords)
		fmt.Printf("Project: %s\n", meta.ProjectID)
		return nil
	}

	if err := store.SaveResults(meta.ProjectID, papers); err != nil {
		return err
	}
	if err := store.Update(meta.ProjectID, map[string]any{
		"papers_found": len(papers),
		"status":       types.StatusSearchComplete,
	}); err != nil {
		return err
	}

	if asJSON {
		return printJSON(os.Stdout, papers)
	}
	printPaperTable(os.Stdout, papers)
	fmt.Printf("\nProject: %s\n", meta.ProjectID)
	fmt.Printf("Run `research-assistant download %s` to fetch PDFs.\n", meta.ProjectID)
	return nil
}
