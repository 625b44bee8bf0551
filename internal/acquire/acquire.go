// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads open-access PDFs for paper records. Each
// record yields an ordered list of candidate sources; candidates are
// tried in order and the first confirmed PDF stream wins.
package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// pmcPDFBase is the PubMed Central PDF endpoint prefix. Declared as a var
// so tests can substitute an httptest server.
var pmcPDFBase = "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC"

// downloadChunkSize is the buffer size for streaming PDF bodies to disk.
const downloadChunkSize = 8192

// maxTitleLen caps the sanitized title portion of a PDF filename.
const maxTitleLen = 50

// Outcome describes how a single acquisition attempt ended.
type Outcome int

const (
	// OutcomeDownloaded means a candidate produced a PDF and it was written.
	OutcomeDownloaded Outcome = iota

	// OutcomeSkipped means the target file already existed; treated as
	// success without re-downloading.
	OutcomeSkipped

	// OutcomeFailed means no candidate produced a PDF.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Acquirer fetches PDFs for paper records.
type Acquirer struct {
	http *http.Client
	cfg  types.AcquisitionConfig
}

// NewAcquirer returns an Acquirer using the given HTTP client and settings.
func NewAcquirer(httpClient *http.Client, cfg types.AcquisitionConfig) *Acquirer {
	return &Acquirer{http: httpClient, cfg: cfg}
}

// Filename derives the deterministic target filename for a record: the
// PMID (or "unknown"), an underscore, the title stripped to letters,
// digits, whitespace, and hyphens and capped at 50 characters, then ".pdf".
func Filename(paper types.PaperRecord) string {
	id := paper.PMID
	if id == "" {
		id = "unknown"
	}
	return id + "_" + sanitizeTitle(paper.Title) + ".pdf"
}

func sanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	// Truncate by runes, not bytes, so a multi-byte letter is never
	// split into invalid UTF-8.
	if r := []rune(b.String()); len(r) > maxTitleLen {
		return string(r[:maxTitleLen])
	}
	return b.String()
}

// candidate is one source URL to try, in order.
type candidate struct {
	url    string
	source string
}

// candidates returns the ordered source list for a record: the Unpaywall
// lookup keyed by DOI first, then the PMC article PDF keyed by PMID.
func (a *Acquirer) candidates(paper types.PaperRecord) []candidate {
	var cands []candidate
	if paper.DOI != "" {
		cands = append(cands, candidate{url: unpaywallURL(paper.DOI, a.cfg.Email), source: "unpaywall"})
	}
	if paper.PMID != "" {
		cands = append(cands, candidate{url: pmcPDFBase + paper.PMID + "/pdf/", source: "pmc"})
	}
	return cands
}

// Fetch tries each candidate source for the record and writes the first
// confirmed PDF to targetDir. If the target file already exists the
// download is skipped and reported as success. A record with neither DOI
// nor PMID fails without any network call. Per-candidate failures
// (non-200, unexpected content type, timeout) move on to the next
// candidate; the returned error is non-nil only when the outcome is
// OutcomeFailed and explains why.
func (a *Acquirer) Fetch(ctx context.Context, paper types.PaperRecord, targetDir string) (Outcome, error) {
	path := filepath.Join(targetDir, Filename(paper))
	if _, err := os.Stat(path); err == nil {
		return OutcomeSkipped, nil
	}

	if !paper.HasIdentifiers() {
		return OutcomeFailed, fmt.Errorf("record has neither DOI nor PMID")
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return OutcomeFailed, fmt.Errorf("creating target directory: %w", err)
	}

	var lastErr error
	for _, cand := range a.candidates(paper) {
		if err := a.tryCandidate(ctx, cand, path); err != nil {
			lastErr = fmt.Errorf("%s: %w", cand.source, err)
			continue
		}
		return OutcomeDownloaded, nil
	}
	return OutcomeFailed, fmt.Errorf("all candidate sources failed, last: %w", lastErr)
}

// tryCandidate issues one GET and branches on the response content type:
// a PDF body is streamed to path, a JSON body is interpreted as an
// Unpaywall record pointing at a second-hop PDF URL, anything else fails
// the candidate.
func (a *Acquirer) tryCandidate(ctx context.Context, cand candidate, path string) error {
	resp, err := a.get(ctx, cand.url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, "application/pdf"):
		return writePDF(resp.Body, path)

	case strings.Contains(contentType, "application/json"):
		pdfURL, err := parseUnpaywall(resp.Body)
		if err != nil {
			return err
		}
		if pdfURL == "" {
			return fmt.Errorf("no open-access PDF location")
		}
		return a.downloadDirect(ctx, pdfURL, path)

	default:
		return fmt.Errorf("unexpected content type %q", contentType)
	}
}

// downloadDirect fetches a resolved PDF URL and streams it to path.
func (a *Acquirer) downloadDirect(ctx context.Context, url, path string) error {
	resp, err := a.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return writePDF(resp.Body, path)
}

func (a *Acquirer) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)
	return a.http.Do(req)
}

// writePDF streams body to path in fixed-size chunks through a temporary
// file, renaming on success so a failed download leaves nothing behind.
func writePDF(body io.Reader, path string) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".acquire-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	buf := make([]byte, downloadChunkSize)
	_, copyErr := io.CopyBuffer(tmpFile, body, buf)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// BatchResult holds the outcome of a batch acquisition run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the number of records processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// Succeeded returns the count of records with a PDF on disk afterwards.
func (r BatchResult) Succeeded() int {
	return r.Downloaded + r.Skipped
}

// FetchBatch processes records sequentially, one attempt at a time, so
// outbound connections stay bounded and the progress counts are
// meaningful at every checkpoint. It prints per-record status, a
// checkpoint line every five records, and a final summary. Individual
// failures do not stop the batch; a cancelled context does, at the next
// inter-record delay, returning the counts accumulated so far.
func (a *Acquirer) FetchBatch(ctx context.Context, papers []types.PaperRecord, targetDir string, w io.Writer) BatchResult {
	var result BatchResult
	for i, paper := range papers {
		if i > 0 && a.cfg.DownloadDelay > 0 {
			select {
			case <-ctx.Done():
				fmt.Fprintf(w, "cancelled after %d/%d\n", i, len(papers))
				return result
			case <-time.After(a.cfg.DownloadDelay):
			}
		}

		outcome, err := a.Fetch(ctx, paper, targetDir)
		switch outcome {
		case OutcomeDownloaded:
			result.Downloaded++
			fmt.Fprintf(w, "downloaded: %s\n", Filename(paper))
		case OutcomeSkipped:
			result.Skipped++
			fmt.Fprintf(w, "skipped: %s (already exists)\n", Filename(paper))
		default:
			result.Failed++
			fmt.Fprintf(w, "failed: %s (%v)\n", Filename(paper), err)
		}

		if (i+1)%5 == 0 || i == len(papers)-1 {
			fmt.Fprintf(w, "progress: %d/%d (%d downloaded, %d skipped, %d failed)\n",
				i+1, len(papers), result.Downloaded, result.Skipped, result.Failed)
		}
	}
	return result
}
