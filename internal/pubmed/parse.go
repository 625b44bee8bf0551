// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// ESearch response XML structures.
type esearchResult struct {
	XMLName xml.Name `xml:"eSearchResult"`
	IDs     []string `xml:"IdList>Id"`
}

// EFetch response XML structures. All leaf fields are strings so a
// surprising payload degrades to empty values instead of a decode error.
type articleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID    string        `xml:"MedlineCitation>PMID"`
	Article articleDetail `xml:"MedlineCitation>Article"`
}

type articleDetail struct {
	Title       string      `xml:"ArticleTitle"`
	Abstract    []string    `xml:"Abstract>AbstractText"`
	Authors     []author    `xml:"AuthorList>Author"`
	ELocationID []eLocation `xml:"ELocationID"`
	PubDate     articleDate `xml:"Journal>JournalIssue>PubDate"`
}

type author struct {
	LastName string `xml:"LastName"`
	ForeName string `xml:"ForeName"`
}

type eLocation struct {
	EIdType string `xml:"EIdType,attr"`
	Value   string `xml:",chardata"`
}

type articleDate struct {
	Year string `xml:"Year"`
}

// parseArticleSet decodes an EFetch batch response and extracts one
// PaperRecord per recognizable entry. Entries that cannot be extracted
// are skipped; one bad article does not fail the batch.
func parseArticleSet(r io.Reader) ([]types.PaperRecord, error) {
	var set articleSet
	if err := xml.NewDecoder(r).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing EFetch response: %w", err)
	}

	papers := make([]types.PaperRecord, 0, len(set.Articles))
	for _, a := range set.Articles {
		record, ok := extractRecord(a)
		if !ok {
			continue
		}
		papers = append(papers, record)
	}
	return papers, nil
}

// extractRecord normalizes one article entry, applying the defaulting
// rules for absent fields. It reports ok=false for entries carrying
// neither a PMID nor a title: nothing in such an entry identifies a
// paper, so it is treated as a parse failure rather than defaulted.
func extractRecord(a pubmedArticle) (types.PaperRecord, bool) {
	pmid := strings.TrimSpace(a.PMID)
	title := strings.TrimSpace(a.Article.Title)
	if pmid == "" && title == "" {
		return types.PaperRecord{}, false
	}
	if title == "" {
		title = types.DefaultTitle
	}

	// Author order follows the upstream author list. Authors without a
	// last name are dropped, matching the upstream record shape.
	var authors []string
	for _, au := range a.Article.Authors {
		last := strings.TrimSpace(au.LastName)
		if last == "" {
			continue
		}
		if first := strings.TrimSpace(au.ForeName); first != "" {
			authors = append(authors, first+" "+last)
			continue
		}
		authors = append(authors, last)
	}

	abstract := types.DefaultAbstract
	if len(a.Article.Abstract) > 0 && strings.TrimSpace(a.Article.Abstract[0]) != "" {
		abstract = strings.TrimSpace(a.Article.Abstract[0])
	}

	var doi string
	for _, loc := range a.Article.ELocationID {
		if loc.EIdType == "doi" {
			doi = strings.TrimSpace(loc.Value)
			break
		}
	}

	year := strings.TrimSpace(a.Article.PubDate.Year)
	if year == "" {
		year = types.DefaultYear
	}

	return types.PaperRecord{
		Title:    title,
		Authors:  authors,
		Abstract: abstract,
		DOI:      doi,
		PMID:     pmid,
		Year:     year,
		PDFURL:   types.CandidatePDFURL(pmid),
	}, true
}
