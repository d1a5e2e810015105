// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the arXiv API for candidate papers one page at a
// time and renders discovered items for the terminal.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Capability runs one bounded page query against a search service. Each
// call returns at most req.PageSize candidates starting at req.Offset; an
// empty slice means the result set is exhausted. Failures are
// *types.RequestError.
type Capability interface {
	Query(ctx context.Context, req Request) ([]types.Candidate, error)
}

// Request holds the parameters of a single page query.
type Request struct {
	Text        string
	PageSize    int
	Offset      int
	NewestFirst bool
}

// BuildQuery assembles an arXiv search_query from category facets and
// free-text terms. Categories are OR-ed as cat:X, terms are OR-ed with
// multi-word terms quoted, and the two groups are AND-ed.
//
//	BuildQuery([]string{"sparse autoencoder", "xai"}, []string{"cs.AI", "cs.LG"})
//	  == `(cat:cs.AI OR cat:cs.LG) AND ("sparse autoencoder" OR xai)`
func BuildQuery(terms, categories []string) string {
	var parts []string

	var cats []string
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, "cat:"+c)
		}
	}
	switch len(cats) {
	case 0:
	case 1:
		parts = append(parts, cats[0])
	default:
		parts = append(parts, "("+strings.Join(cats, " OR ")+")")
	}

	var quoted []string
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if strings.Contains(term, " ") {
			term = `"` + term + `"`
		}
		quoted = append(quoted, term)
	}
	switch len(quoted) {
	case 0:
	case 1:
		parts = append(parts, quoted[0])
	default:
		parts = append(parts, "("+strings.Join(quoted, " OR ")+")")
	}

	return strings.Join(parts, " AND ")
}

// QueryFor returns the configured raw query, or builds one from terms and
// categories when no raw query is set.
func QueryFor(cfg types.SearchConfig) string {
	if q := strings.TrimSpace(cfg.Query); q != "" {
		return q
	}
	return BuildQuery(cfg.Terms, cfg.Categories)
}

// FormatTable writes items as a human-readable table to w.
func FormatTable(items []types.Item, w io.Writer) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No new papers found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-12s  %-56s  %-20s  %-10s  %s\n",
		"#", "ID", "Title", "Authors", "Published", "Categories")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for i, it := range items {
		published := ""
		if !it.Published.IsZero() {
			published = it.Published.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%-4d  %-12s  %-56s  %-20s  %-10s  %s\n",
			i+1, it.ID, truncate(it.Title, 56), formatAuthors(it.Authors), published,
			strings.Join(it.Categories, ","))
	}

	fmt.Fprintf(w, "\n%d new papers\n", len(items))
}

// FormatJSON writes items as indented JSON to w.
func FormatJSON(items []types.Item, w io.Writer) error {
	if items == nil {
		items = []types.Item{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
