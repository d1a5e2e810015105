package types

import (
	"testing"
	"time"
)

func TestSecureURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://arxiv.org/pdf/2301.07041v1", "https://arxiv.org/pdf/2301.07041v1"},
		{"HTTP://arxiv.org/pdf/1", "https://arxiv.org/pdf/1"},
		{"https://arxiv.org/pdf/1", "https://arxiv.org/pdf/1"},
		{"", ""},
		{"ftp://example.org/x.pdf", "ftp://example.org/x.pdf"},
	}
	for _, tt := range tests {
		if got := SecureURL(tt.in); got != tt.want {
			t.Errorf("SecureURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFromCandidate(t *testing.T) {
	published := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	c := Candidate{
		ID:         "2503.01234",
		Title:      "Sparse Autoencoders",
		Authors:    []string{"Ada", "Grace"},
		Published:  published,
		Categories: []string{"cs.LG"},
		URL:        "http://arxiv.org/abs/2503.01234v1",
		PDFURL:     "http://arxiv.org/pdf/2503.01234v1",
		DOI:        "10.1000/xyz",
	}

	it := FromCandidate(c)
	if it.ID != c.ID {
		t.Errorf("ID = %q, want %q", it.ID, c.ID)
	}
	if it.PDFURL != "https://arxiv.org/pdf/2503.01234v1" {
		t.Errorf("PDFURL = %q, want https scheme", it.PDFURL)
	}
	if it.HasSummary() {
		t.Error("new item should not have a summary")
	}

	// The item must not alias the candidate's slices.
	c.Authors[0] = "Mallory"
	if it.Authors[0] != "Ada" {
		t.Errorf("Authors aliased candidate slice: %v", it.Authors)
	}
}

func TestHasSummary(t *testing.T) {
	if (Item{Summary: "  \n"}).HasSummary() {
		t.Error("whitespace summary should not count")
	}
	if !(Item{Summary: "### Summary\nx"}).HasSummary() {
		t.Error("non-empty summary should count")
	}
}
