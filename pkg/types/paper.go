// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-assistant core:
// the normalized PaperRecord extracted from PubMed responses, the on-disk
// project metadata document, per-stage configuration, and error sentinels.
package types

// Defaults applied when a PubMed detail entry omits a field.
const (
	DefaultTitle    = "No title"
	DefaultAbstract = "No abstract available"
	DefaultYear     = "Unknown"
)

// pmcArticleBase is the PubMed Central article URL prefix used to derive
// the candidate PDF location from a PMID.
const pmcArticleBase = "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC"

// PaperRecord is a normalized literature entry. It is constructed once at
// the parse boundary and not mutated afterwards.
type PaperRecord struct {
	// Title is the article title, or DefaultTitle when absent upstream.
	Title string `json:"title" yaml:"title"`

	// Authors lists authors as "First Last" in upstream author-list order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the article abstract, or DefaultAbstract when absent.
	Abstract string `json:"abstract" yaml:"abstract"`

	// DOI is the digital object identifier, empty when the entry has none.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// PMID is the PubMed record identifier. It is required to derive the
	// candidate PDF URL; entries without one cannot be fetched from PMC.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// Year is the publication year as reported upstream. Kept as a string
	// because upstream formats are inconsistent (ranges, missing values).
	Year string `json:"year" yaml:"year"`

	// PDFURL is the candidate PMC PDF location derived from PMID. It is a
	// guess validated at acquisition time, not at search time.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`
}

// CandidatePDFURL returns the PMC PDF URL for a PMID, or "" when the PMID
// is empty.
func CandidatePDFURL(pmid string) string {
	if pmid == "" {
		return ""
	}
	return pmcArticleBase + pmid + "/pdf/"
}

// HasIdentifiers reports whether the record carries at least one identifier
// usable for PDF acquisition. A record with neither DOI nor PMID can never
// be matched to a PDF source.
func (p PaperRecord) HasIdentifiers() bool {
	return p.DOI != "" || p.PMID != ""
}
