// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discovery pages through a search capability, drops papers that
// were already seen, and stops once enough new papers are found or the
// upstream stops producing new ones.
package discovery

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-digest/internal/search"
	"github.com/pdiddy/paper-digest/internal/seen"
	"github.com/pdiddy/paper-digest/pkg/types"
)

const (
	DefaultPageSize      = 20
	DefaultMaxNew        = 10
	DefaultMaxStalePages = 3
	DefaultPoliteness    = time.Second
)

// sleep waits between page requests. Tests replace it to record delays.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// now stamps seen entries.
var now = time.Now

// Options bounds one discovery call.
type Options struct {
	Query           string
	PageSize        int
	MaxNew          int
	PolitenessDelay time.Duration

	// MaxStalePages is the number of consecutive pages without a new paper
	// after which discovery stops. Zero means DefaultMaxStalePages.
	MaxStalePages int
}

// OptionsFrom builds Options from the search configuration.
func OptionsFrom(cfg types.SearchConfig) Options {
	return Options{
		Query:           search.QueryFor(cfg),
		PageSize:        cfg.PageSize,
		MaxNew:          cfg.MaxNew,
		PolitenessDelay: cfg.PolitenessDelay,
		MaxStalePages:   cfg.MaxStalePages,
	}
}

// Result reports what one discovery call produced.
type Result struct {
	// Items are the new papers in the order the upstream returned them.
	Items []types.Item

	// Pages is the number of page requests sent.
	Pages int

	// Skipped counts candidates dropped as already seen or duplicated.
	Skipped int

	// StalePages is the length of the trailing run of pages with no new paper.
	StalePages int

	// Exhausted is true when the upstream returned an empty page.
	Exhausted bool

	// Err is the request error that cut discovery short, if any.
	Err error
}

// Discoverer finds papers not yet recorded in Seen.
type Discoverer struct {
	Search search.Capability
	Seen   *seen.Set
	Log    *zap.Logger
}

// Discover returns up to opts.MaxNew papers absent from the seen set.
// Emitted papers are marked seen and the set is flushed before returning,
// including when a request error or cancellation ends the loop early. The
// returned error is non-nil only for invalid options; request failures are
// reported in Result.Err alongside the partial result.
func (d *Discoverer) Discover(ctx context.Context, opts Options) (Result, error) {
	if opts.PageSize <= 0 {
		return Result{}, errors.New("discovery: page size must be positive")
	}
	if opts.MaxNew <= 0 {
		return Result{}, errors.New("discovery: max new must be positive")
	}
	if opts.MaxStalePages <= 0 {
		opts.MaxStalePages = DefaultMaxStalePages
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	var res Result
	emitted := make(map[string]bool)

	for offset := 0; ; offset += opts.PageSize {
		cands, err := d.Search.Query(ctx, search.Request{
			Text:        opts.Query,
			PageSize:    opts.PageSize,
			Offset:      offset,
			NewestFirst: true,
		})
		res.Pages++
		if err != nil {
			res.Err = err
			log.Warn("search request failed; keeping partial results",
				zap.Int("offset", offset), zap.Int("found", len(res.Items)), zap.Error(err))
			break
		}
		if len(cands) == 0 {
			res.Exhausted = true
			log.Debug("search results exhausted", zap.Int("offset", offset))
			break
		}

		fresh := 0
		for _, c := range cands {
			if c.ID == "" || emitted[c.ID] || d.Seen.Contains(c.ID) {
				res.Skipped++
				continue
			}
			emitted[c.ID] = true
			res.Items = append(res.Items, types.FromCandidate(c))
			fresh++
			if len(res.Items) >= opts.MaxNew {
				break
			}
		}

		if fresh == 0 {
			res.StalePages++
		} else {
			res.StalePages = 0
		}
		log.Debug("page scanned",
			zap.Int("offset", offset), zap.Int("results", len(cands)),
			zap.Int("new", fresh), zap.Int("stale_pages", res.StalePages))

		if len(res.Items) >= opts.MaxNew {
			break
		}
		if res.StalePages >= opts.MaxStalePages {
			log.Info("no new papers in consecutive pages; stopping",
				zap.Int("stale_pages", res.StalePages))
			break
		}

		if err := sleep(ctx, opts.PolitenessDelay); err != nil {
			res.Err = err
			log.Warn("discovery cancelled between pages", zap.Error(err))
			break
		}
	}

	d.record(ctx, res.Items, log)
	return res, nil
}

// record marks emitted papers as seen and persists the set. A failed flush
// is logged; the in-memory set still reflects the new papers.
func (d *Discoverer) record(ctx context.Context, items []types.Item, log *zap.Logger) {
	if len(items) == 0 {
		return
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	d.Seen.MarkAll(ids, now())
	if err := d.Seen.Flush(context.WithoutCancel(ctx)); err != nil {
		log.Warn("saving seen papers failed", zap.Error(err))
	}
}
