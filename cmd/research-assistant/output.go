// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// printPaperTable writes papers as a human-readable table to w.
func printPaperTable(w io.Writer, papers []types.PaperRecord) {
	if len(papers) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-24s  %-7s  %s\n",
		"Rank", "Title", "Authors", "Year", "PMID")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, p := range papers {
		title := truncate(p.Title, 60)
		fmt.Fprintf(w, "%-4d  %-60s  %-24s  %-7s  %s\n",
			i+1, title, formatAuthors(p.Authors), p.Year, orNA(p.PMID))
	}

	fmt.Fprintf(w, "\n%d results\n", len(papers))
}

// printJSON writes v as indented JSON to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 24)
	default:
		return truncate(authors[0], 18) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
