// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// Item is a discovered paper flowing through the pipeline. ID is assigned
// at discovery and never changes; the remaining fields are filled in as
// the item moves through search, summarization, and caching.
type Item struct {
	// ID is the arXiv identifier without version suffix (e.g. "2301.07041").
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Published is the first-version submission time.
	Published time.Time `json:"published" yaml:"published"`

	// Categories holds the arXiv category tags (e.g. "cs.LG").
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// URL is the abstract page.
	URL string `json:"url" yaml:"url"`

	// PDFURL is the document location handed to the summarization service.
	// Always https once the item has been built by FromCandidate.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	DOI     string `json:"doi,omitempty" yaml:"doi,omitempty"`
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty"`

	// Summary is the formatted structured summary. Empty means the paper
	// has not been summarized.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// SummarizedAt records when Summary was produced.
	SummarizedAt time.Time `json:"summarized_at,omitempty" yaml:"summarized_at,omitempty"`
}

// HasSummary reports whether the item carries a non-empty summary.
func (it Item) HasSummary() bool {
	return strings.TrimSpace(it.Summary) != ""
}

// FromCandidate converts a search hit into a pipeline Item. The PDF URL is
// rewritten to https.
func FromCandidate(c Candidate) Item {
	return Item{
		ID:         c.ID,
		Title:      c.Title,
		Authors:    append([]string(nil), c.Authors...),
		Published:  c.Published,
		Categories: append([]string(nil), c.Categories...),
		Abstract:   c.Abstract,
		URL:        c.URL,
		PDFURL:     SecureURL(c.PDFURL),
		DOI:        c.DOI,
		Comment:    c.Comment,
	}
}

// SecureURL rewrites an http:// URL to https://. Other URLs, including the
// empty string, are returned unchanged.
func SecureURL(u string) string {
	if len(u) >= 5 && strings.EqualFold(u[:5], "http:") {
		return "https:" + u[5:]
	}
	return u
}
