package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/acquire"
	"github.com/pdiddy/research-assistant/internal/project"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download <project-id>",
	Short: "Download open-access PDFs for a project's saved results",
	Long: `Download loads the paper list saved by a previous search and attempts
to fetch an open-access PDF for each record, one at a time. For records
with a DOI the Unpaywall lookup is tried first, then the PMC article PDF
by PMID. Papers already on disk are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().Duration("delay", 1*time.Second, "delay between consecutive download attempts")
	downloadCmd.Flags().String("base-dir", "", "project store directory (default research_projects)")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	projectID := args[0]
	delay, _ := cmd.Flags().GetDuration("delay")

	store, err := project.NewStore(types.StoreConfig{BaseDir: baseDir(cmd)})
	if err != nil {
		return err
	}

	if _, err := store.Metadata(projectID); err != nil {
		return err
	}
	papers, err := store.LoadResults(projectID)
	if err != nil {
		return err
	}

	cfg := types.AcquisitionConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultTimeout,
			UserAgent: defaultUserAgent,
		},
		Email:         loadedSecrets["unpaywall-email"],
		DownloadDelay: delay,
	}

	fmt.Printf("Attempting to download %d papers...\n", len(papers))

	acquirer := acquire.NewAcquirer(&http.Client{Timeout: cfg.Timeout}, cfg)
	result := acquirer.FetchBatch(cmd.Context(), papers, store.PapersDir(projectID), os.Stdout)

	if err := store.Update(projectID, map[string]any{
		"papers_downloaded": result.Succeeded(),
		"status":            types.StatusDownloadComplete,
	}); err != nil {
		return err
	}

	fmt.Printf("\nDownload complete: %d succeeded, %d failed\n", result.Succeeded(), result.Failed)
	fmt.Printf("Saved to: %s\n", store.PapersDir(projectID))
	return nil
}
