// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-digest pipeline:
// the Item that flows from discovery through summarization into the cache,
// the raw search Candidate, the RequestError returned by remote
// capabilities, and per-stage configuration.
package types

import "time"

// Candidate is one raw hit returned by a search capability, before the
// discovery stage has decided whether it is new.
type Candidate struct {
	ID         string    `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	Authors    []string  `json:"authors" yaml:"authors"`
	Published  time.Time `json:"published" yaml:"published"`
	Categories []string  `json:"categories" yaml:"categories"`
	Abstract   string    `json:"abstract" yaml:"abstract"`
	URL        string    `json:"url" yaml:"url"`
	PDFURL     string    `json:"pdf_url" yaml:"pdf_url"`
	DOI        string    `json:"doi,omitempty" yaml:"doi,omitempty"`
	Comment    string    `json:"comment,omitempty" yaml:"comment,omitempty"`
}
