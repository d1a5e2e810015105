// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const (
	defaultPageSize  = 20
	rateLimitRetries = 3
)

// ArxivClient queries the arXiv Atom API one page at a time.
type ArxivClient struct {
	Client    *http.Client
	UserAgent string
}

// NewArxivClient returns a client using the timeout and user agent in cfg.
func NewArxivClient(cfg types.HTTPConfig) *ArxivClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ArxivClient{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: cfg.UserAgent,
	}
}

// Query fetches one page of results. HTTP 429 responses are retried with
// backoff inside httputil.DoWithRetry; every other failure is returned as a
// *types.RequestError.
func (c *ArxivClient) Query(ctx context.Context, req Request) ([]types.Candidate, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, &types.RequestError{Op: "arxiv query", Err: errors.New("empty query")}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	params := url.Values{}
	params.Set("search_query", req.Text)
	params.Set("start", strconv.Itoa(req.Offset))
	params.Set("max_results", strconv.Itoa(pageSize))
	if req.NewestFirst {
		params.Set("sortBy", "submittedDate")
	} else {
		params.Set("sortBy", "relevance")
	}
	params.Set("sortOrder", "descending")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &types.RequestError{Op: "arxiv query", Err: fmt.Errorf("creating request: %w", err)}
	}
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, httpReq, rateLimitRetries)
	if err != nil {
		return nil, &types.RequestError{Op: "arxiv query", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &types.RequestError{
			Op:         "arxiv query",
			StatusCode: resp.StatusCode,
			Err:        errors.New("unexpected status"),
		}
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, &types.RequestError{Op: "arxiv query", Err: fmt.Errorf("parsing response: %w", err)}
	}

	results := make([]types.Candidate, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if c, ok := entry.candidate(); ok {
			results = append(results, c)
		}
	}
	return results, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Links      []arxivLink     `xml:"link"`
	Categories []arxivCategory `xml:"category"`
	DOI        string          `xml:"http://arxiv.org/schemas/atom doi"`
	Comment    string          `xml:"http://arxiv.org/schemas/atom comment"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// candidate converts a feed entry. Entries without a recognizable arXiv ID
// (such as the API's error entries) are dropped.
func (e arxivEntry) candidate() (types.Candidate, bool) {
	id := extractArxivID(e.ID)
	if id == "" {
		return types.Candidate{}, false
	}

	c := types.Candidate{
		ID:       id,
		Title:    collapseSpace(e.Title),
		Abstract: strings.TrimSpace(e.Summary),
		DOI:      strings.TrimSpace(e.DOI),
		Comment:  collapseSpace(e.Comment),
	}

	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			c.Authors = append(c.Authors, name)
		}
	}
	for _, cat := range e.Categories {
		if cat.Term != "" {
			c.Categories = append(c.Categories, cat.Term)
		}
	}
	for _, l := range e.Links {
		switch {
		case l.Title == "pdf" || l.Type == "application/pdf":
			c.PDFURL = l.Href
		case l.Rel == "alternate":
			c.URL = l.Href
		}
	}
	if c.URL == "" {
		c.URL = strings.TrimSpace(e.ID)
	}
	if c.PDFURL == "" {
		c.PDFURL = "https://arxiv.org/pdf/" + id
	}
	c.PDFURL = types.SecureURL(c.PDFURL)

	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
		c.Published = t
	}
	return c, true
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" -> "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := strings.TrimSpace(idURL[idx+len(prefix):])

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
