// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func testCfg() types.SearchConfig {
	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "test/0.1",
		},
	}
}

// --- Query ---

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr bool
	}{
		{"valid", Query{Keywords: "CRISPR", MaxResults: 10}, false},
		{"valid with years", Query{Keywords: "CRISPR", YearFrom: 2020, YearTo: 2024, MaxResults: 5}, false},
		{"empty keywords", Query{Keywords: "", MaxResults: 10}, true},
		{"whitespace keywords", Query{Keywords: "   ", MaxResults: 10}, true},
		{"zero max results", Query{Keywords: "CRISPR", MaxResults: 0}, true},
		{"negative max results", Query{Keywords: "CRISPR", MaxResults: -3}, true},
		{"year too early", Query{Keywords: "CRISPR", YearFrom: 1850, MaxResults: 10}, true},
		{"year too late", Query{Keywords: "CRISPR", YearTo: 2200, MaxResults: 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, types.ErrInvalidInput) {
				t.Errorf("Validate() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestBuildTerm(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"keywords only", Query{Keywords: "gene editing"}, "gene editing"},
		{"both bounds", Query{Keywords: "gene editing", YearFrom: 2020, YearTo: 2024},
			"gene editing AND 2020[PDAT]:2024[PDAT]"},
		{"equal bounds", Query{Keywords: "gene editing", YearFrom: 2023, YearTo: 2023},
			"gene editing AND 2023[PDAT]:2023[PDAT]"},
		// Inverted bounds produce an inverted clause, not a swap.
		{"inverted bounds", Query{Keywords: "gene editing", YearFrom: 2024, YearTo: 2020},
			"gene editing AND 2024[PDAT]:2020[PDAT]"},
		// A single bound is ignored entirely. Inherited behavior, pinned here.
		{"from only ignored", Query{Keywords: "gene editing", YearFrom: 2020}, "gene editing"},
		{"to only ignored", Query{Keywords: "gene editing", YearTo: 2024}, "gene editing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.BuildTerm(); got != tt.want {
				t.Errorf("BuildTerm() = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- Search ---

// esearchXML builds an ESearch response listing the given PMIDs.
func esearchXML(pmids ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><eSearchResult><IdList>`)
	for _, id := range pmids {
		fmt.Fprintf(&b, "<Id>%s</Id>", id)
	}
	b.WriteString(`</IdList></eSearchResult>`)
	return b.String()
}

// articleXML builds one well-formed PubmedArticle entry.
func articleXML(pmid, title string) string {
	return fmt.Sprintf(`<PubmedArticle><MedlineCitation><PMID>%s</PMID><Article>
		<ArticleTitle>%s</ArticleTitle>
		<Abstract><AbstractText>Abstract for %s.</AbstractText></Abstract>
		<AuthorList>
			<Author><LastName>Smith</LastName><ForeName>Alice</ForeName></Author>
			<Author><LastName>Jones</LastName><ForeName>Bob</ForeName></Author>
		</AuthorList>
		<ELocationID EIdType="doi">10.1000/%s</ELocationID>
		<Journal><JournalIssue><PubDate><Year>2023</Year></PubDate></JournalIssue></Journal>
	</Article></MedlineCitation></PubmedArticle>`, pmid, title, pmid, pmid)
}

func articleSetXML(entries ...string) string {
	return `<?xml version="1.0"?><PubmedArticleSet>` + strings.Join(entries, "") + `</PubmedArticleSet>`
}

// newEutilsServer serves canned ESearch and EFetch responses and records
// request details for assertions.
func newEutilsServer(t *testing.T, esearchBody, efetchBody string) (*httptest.Server, *atomic.Int32, chan string) {
	t.Helper()
	fetchCalls := &atomic.Int32{}
	params := make(chan string, 8)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/esearch.fcgi"):
			params <- "esearch:" + r.URL.RawQuery
			w.Header().Set("Content-Type", "text/xml")
			fmt.Fprint(w, esearchBody)
		case strings.HasSuffix(r.URL.Path, "/efetch.fcgi"):
			fetchCalls.Add(1)
			params <- "efetch:" + r.URL.RawQuery
			w.Header().Set("Content-Type", "text/xml")
			fmt.Fprint(w, efetchBody)
		default:
			http.NotFound(w, r)
		}
	}))
	return ts, fetchCalls, params
}

func overrideBase(t *testing.T, url string) {
	t.Helper()
	old := eutilsBase
	eutilsBase = url
	t.Cleanup(func() { eutilsBase = old })
}

func TestSearchFiveResults(t *testing.T) {
	pmids := []string{"111", "222", "333", "444", "555"}
	var entries []string
	for _, id := range pmids {
		entries = append(entries, articleXML(id, "Paper "+id))
	}
	ts, fetchCalls, params := newEutilsServer(t, esearchXML(pmids...), articleSetXML(entries...))
	defer ts.Close()
	overrideBase(t, ts.URL)

	client := NewClient(ts.Client(), testCfg())
	papers, err := client.Search(context.Background(), Query{Keywords: "CRISPR gene editing", MaxResults: 5})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(papers) != 5 {
		t.Fatalf("len(papers) = %d, want 5", len(papers))
	}
	for i, p := range papers {
		if p.Title == "" || p.Title == types.DefaultTitle {
			t.Errorf("papers[%d].Title = %q, want non-empty upstream title", i, p.Title)
		}
		if p.PMID != pmids[i] {
			t.Errorf("papers[%d].PMID = %q, want %q (upstream order)", i, p.PMID, pmids[i])
		}
		if p.Year != "2023" {
			t.Errorf("papers[%d].Year = %q, want 2023", i, p.Year)
		}
		if want := types.CandidatePDFURL(p.PMID); p.PDFURL != want {
			t.Errorf("papers[%d].PDFURL = %q, want %q", i, p.PDFURL, want)
		}
		if len(p.Authors) != 2 || p.Authors[0] != "Alice Smith" {
			t.Errorf("papers[%d].Authors = %v, want [Alice Smith Bob Jones]", i, p.Authors)
		}
	}

	if got := fetchCalls.Load(); got != 1 {
		t.Errorf("efetch calls = %d, want 1 (batched)", got)
	}
	// The batched fetch joins all PMIDs with commas.
	close(params)
	var efetchQuery string
	for q := range params {
		if strings.HasPrefix(q, "efetch:") {
			efetchQuery = q
		}
	}
	if !strings.Contains(efetchQuery, "id="+strings.Join(pmids, "%2C")) {
		t.Errorf("efetch query = %q, want comma-joined id list", efetchQuery)
	}
}

func TestSearchZeroIDs(t *testing.T) {
	ts, fetchCalls, _ := newEutilsServer(t, esearchXML(), articleSetXML())
	defer ts.Close()
	overrideBase(t, ts.URL)

	client := NewClient(ts.Client(), testCfg())
	papers, err := client.Search(context.Background(), Query{Keywords: "nonexistent topic", MaxResults: 10})
	if err != nil {
		t.Fatalf("Search() error = %v, want nil for empty ID list", err)
	}
	if len(papers) != 0 {
		t.Errorf("len(papers) = %d, want 0", len(papers))
	}
	if got := fetchCalls.Load(); got != 0 {
		t.Errorf("efetch calls = %d, want 0 when no IDs resolve", got)
	}
}

func TestSearchClampsMaxResults(t *testing.T) {
	ts, _, params := newEutilsServer(t, esearchXML(), articleSetXML())
	defer ts.Close()
	overrideBase(t, ts.URL)

	client := NewClient(ts.Client(), testCfg())
	if _, err := client.Search(context.Background(), Query{Keywords: "CRISPR", MaxResults: 500}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	close(params)
	for q := range params {
		if strings.HasPrefix(q, "esearch:") && !strings.Contains(q, "retmax=50") {
			t.Errorf("esearch query = %q, want retmax=50", q)
		}
	}
}

func TestSearchSkipsMalformedEntry(t *testing.T) {
	efetch := articleSetXML(
		articleXML("111", "Good paper one"),
		// No PMID, no title: nothing identifies this entry.
		`<PubmedArticle><MedlineCitation><Garbage/></MedlineCitation></PubmedArticle>`,
		articleXML("333", "Good paper two"),
	)
	ts, _, _ := newEutilsServer(t, esearchXML("111", "222", "333"), efetch)
	defer ts.Close()
	overrideBase(t, ts.URL)

	client := NewClient(ts.Client(), testCfg())
	papers, err := client.Search(context.Background(), Query{Keywords: "CRISPR", MaxResults: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(papers) != 2 {
		t.Fatalf("len(papers) = %d, want 2 (malformed entry skipped)", len(papers))
	}
	if papers[0].PMID != "111" || papers[1].PMID != "333" {
		t.Errorf("PMIDs = %q, %q, want 111, 333", papers[0].PMID, papers[1].PMID)
	}
}

func TestSearchUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()
	overrideBase(t, ts.URL)

	client := NewClient(ts.Client(), testCfg())
	if _, err := client.Search(context.Background(), Query{Keywords: "CRISPR", MaxResults: 10}); err == nil {
		t.Fatal("Search() error = nil, want upstream failure")
	}
}

func TestSearchInvalidInputSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer ts.Close()
	overrideBase(t, ts.URL)

	client := NewClient(ts.Client(), testCfg())
	_, err := client.Search(context.Background(), Query{Keywords: "", MaxResults: 10})
	if !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("Search() error = %v, want ErrInvalidInput", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("network calls = %d, want 0 for invalid input", got)
	}
}
