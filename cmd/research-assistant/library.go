package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/library"
	"github.com/pdiddy/research-assistant/internal/project"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Index and query saved paper metadata across projects",
	Long: `Library maintains a local SQLite full-text index over the paper
metadata saved by all projects. Index it after searches, then query by
keyword, project, or year. Indexing reads only the saved metadata, never
PDF contents.`,
}

var libraryIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index saved results from all projects",
	RunE:  runLibraryIndex,
}

var libraryQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the indexed library",
	RunE:  runLibraryQuery,
}

var libraryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the indexed library to YAML and JSON",
	RunE:  runLibraryExport,
}

func init() {
	for _, c := range []*cobra.Command{libraryIndexCmd, libraryQueryCmd, libraryExportCmd} {
		c.Flags().String("base-dir", "", "project store directory (default research_projects)")
	}
	libraryQueryCmd.Flags().String("query", "", "full-text search over titles and abstracts")
	libraryQueryCmd.Flags().String("project", "", "filter by project ID")
	libraryQueryCmd.Flags().String("year", "", "filter by publication year")
	libraryQueryCmd.Flags().Int("max-results", 0, "maximum number of results (default 20)")
	libraryQueryCmd.Flags().Bool("json", false, "output results as JSON")

	libraryCmd.AddCommand(libraryIndexCmd, libraryQueryCmd, libraryExportCmd)
	rootCmd.AddCommand(libraryCmd)
}

func openLibrary(cmd *cobra.Command) (*project.Store, *library.Store, error) {
	dir := baseDir(cmd)
	ps, err := project.NewStore(types.StoreConfig{BaseDir: dir})
	if err != nil {
		return nil, nil, err
	}
	ls, err := library.NewStore(types.LibraryConfig{BaseDir: dir})
	if err != nil {
		return nil, nil, err
	}
	return ps, ls, nil
}

func runLibraryIndex(cmd *cobra.Command, args []string) error {
	ps, ls, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer ls.Close()

	_, err = ls.Ingest(cmd.Context(), ps, os.Stdout)
	return err
}

func runLibraryQuery(cmd *cobra.Command, args []string) error {
	_, ls, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer ls.Close()

	queryStr, _ := cmd.Flags().GetString("query")
	projectID, _ := cmd.Flags().GetString("project")
	year, _ := cmd.Flags().GetString("year")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	asJSON, _ := cmd.Flags().GetBool("json")

	opts := library.QueryOptions{
		Query:      queryStr,
		ProjectID:  projectID,
		Year:       year,
		MaxResults: maxResults,
	}
	if opts.IsEmpty() {
		return fmt.Errorf("%w: provide --query, --project, or --year", types.ErrInvalidInput)
	}

	results, err := ls.Query(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(os.Stdout, results)
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	fmt.Printf("%-60s  %-7s  %-8s  %s\n", "Title", "Year", "PMID", "Project")
	fmt.Println(strings.Repeat("-", 110))
	for _, r := range results {
		fmt.Printf("%-60s  %-7s  %-8s  %s\n",
			truncate(r.Title, 60), r.Year, orNA(r.PMID), r.ProjectID)
	}
	fmt.Printf("\n%d match(es)\n", len(results))
	return nil
}

func runLibraryExport(cmd *cobra.Command, args []string) error {
	_, ls, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer ls.Close()

	ctx := cmd.Context()
	if err := ls.ExportYAML(ctx, library.QueryOptions{}); err != nil {
		return err
	}
	if err := ls.ExportJSON(ctx, library.QueryOptions{}); err != nil {
		return err
	}
	fmt.Println("Exported library to index/export.yaml and index/export.json")
	return nil
}
