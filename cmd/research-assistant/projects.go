package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/project"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List saved research projects",
	Long: `Projects lists every project directory with a valid metadata document:
the query it was created for, when, how many papers were found and
downloaded, and its lifecycle status.`,
	RunE: runProjects,
}

func init() {
	projectsCmd.Flags().String("base-dir", "", "project store directory (default research_projects)")
	projectsCmd.Flags().Bool("json", false, "output projects as JSON")

	rootCmd.AddCommand(projectsCmd)
}

func runProjects(cmd *cobra.Command, args []string) error {
	store, err := project.NewStore(types.StoreConfig{BaseDir: baseDir(cmd)})
	if err != nil {
		return err
	}

	entries, err := store.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No projects found.")
		return nil
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(os.Stdout, entries)
	}

	fmt.Printf("%-32s  %-30s  %-20s  %-12s  %s\n",
		"Project", "Query", "Created", "Found/Saved", "Status")
	fmt.Println(strings.Repeat("-", 110))
	for _, e := range entries {
		m := e.Metadata
		fmt.Printf("%-32s  %-30s  %-20s  %-12s  %s\n",
			e.ProjectID, truncate(m.Query, 30), m.CreatedAt,
			fmt.Sprintf("%d/%d", m.PapersFound, m.PapersDownloaded), m.Status)
	}
	fmt.Printf("\n%d project(s)\n", len(entries))
	return nil
}
