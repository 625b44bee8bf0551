// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed queries the NCBI E-utilities API and parses responses
// into normalized PaperRecords. A search runs in two sequential phases:
// ESearch resolves up to MaxResultsCap PMIDs for a term, then a single
// EFetch request retrieves the detail records for all of them.
package pubmed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// eutilsBase is the E-utilities endpoint prefix. Declared as a var so
// tests can substitute an httptest server.
var eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// Year bounds accepted before a search goes to the network.
const (
	minYear = 1900
	maxYear = 2100
)

// Query holds the search parameters. YearFrom and YearTo are zero when
// no bound was given.
type Query struct {
	Keywords   string
	YearFrom   int
	YearTo     int
	MaxResults int
}

// Validate rejects input before any network call: empty keywords,
// out-of-range years, and non-positive result counts all wrap
// types.ErrInvalidInput.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Keywords) == "" {
		return fmt.Errorf("%w: keywords are empty", types.ErrInvalidInput)
	}
	if q.MaxResults <= 0 {
		return fmt.Errorf("%w: max results must be positive, got %d", types.ErrInvalidInput, q.MaxResults)
	}
	for _, y := range []int{q.YearFrom, q.YearTo} {
		if y != 0 && (y < minYear || y > maxYear) {
			return fmt.Errorf("%w: year %d outside %d-%d", types.ErrInvalidInput, y, minYear, maxYear)
		}
	}
	return nil
}

// BuildTerm constructs the ESearch term from the query. A publication
// date range clause is appended only when BOTH year bounds are set; a
// single bound is ignored entirely. Tests pin this behavior, so do not
// apply one-sided bounds without revisiting them.
func (q Query) BuildTerm() string {
	term := q.Keywords
	if q.YearFrom != 0 && q.YearTo != 0 {
		term += fmt.Sprintf(" AND %d[PDAT]:%d[PDAT]", q.YearFrom, q.YearTo)
	}
	return term
}

// Client searches PubMed. The zero value is not usable; construct with
// NewClient so the HTTP client and config are scoped explicitly.
type Client struct {
	http *http.Client
	cfg  types.SearchConfig
}

// NewClient returns a Client using the given HTTP client and settings.
func NewClient(httpClient *http.Client, cfg types.SearchConfig) *Client {
	return &Client{http: httpClient, cfg: cfg}
}

// Search resolves PMIDs for the query and fetches their detail records.
// Zero resolved PMIDs yields an empty slice and a nil error. Upstream
// failures are returned as errors so the caller can distinguish "no
// results" from "PubMed was unreachable"; the command layer degrades
// them to an empty result instead of aborting.
func (c *Client) Search(ctx context.Context, query Query) ([]types.PaperRecord, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	maxResults := query.MaxResults
	if maxResults > types.MaxResultsCap {
		maxResults = types.MaxResultsCap
	}

	pmids, err := c.resolvePMIDs(ctx, query.BuildTerm(), maxResults)
	if err != nil {
		return nil, err
	}
	if len(pmids) == 0 {
		return []types.PaperRecord{}, nil
	}

	return c.fetchDetails(ctx, pmids)
}

// resolvePMIDs runs the ESearch phase, returning PMIDs in upstream
// relevance order.
func (c *Client) resolvePMIDs(ctx context.Context, term string, maxResults int) ([]string, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", term)
	params.Set("retmax", strconv.Itoa(maxResults))
	params.Set("retmode", "xml")
	params.Set("sort", "relevance")
	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}

	body, err := c.get(ctx, eutilsBase+"/esearch.fcgi?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("resolving PMIDs: %w", err)
	}
	defer body.Close()

	var result esearchResult
	if err := xml.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parsing ESearch response: %w", err)
	}
	return result.IDs, nil
}

// fetchDetails runs the EFetch phase for all resolved PMIDs in one
// batched request, joining the identifiers with commas. Entries that
// fail to parse are skipped; one malformed article does not fail the
// batch.
func (c *Client) fetchDetails(ctx context.Context, pmids []string) ([]types.PaperRecord, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")
	params.Set("rettype", "abstract")
	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}

	body, err := c.get(ctx, eutilsBase+"/efetch.fcgi?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetching paper details: %w", err)
	}
	defer body.Close()

	return parseArticleSet(body)
}

// get issues a rate-limit-aware GET and returns the response body on 200.
func (c *Client) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return nil, fmt.Errorf("E-utilities request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("E-utilities returned HTTP %d", resp.StatusCode)
	}
	return resp.Body, nil
}
