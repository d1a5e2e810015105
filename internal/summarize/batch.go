// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize turns discovered papers into structured summaries. A
// Worker handles one paper with retries; a Summarizer fans a batch out
// over a fixed number of workers and records results in the cache.
package summarize

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-digest/internal/cache"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// now stamps SummarizedAt.
var now = time.Now

// Failure records one item that could not be summarized.
type Failure struct {
	ID  string
	Err error
}

// BatchResult holds the outcome of one batch.
type BatchResult struct {
	// Items are cached hits first, then fresh summaries in completion order.
	Items []types.Item

	Cached     int
	Summarized int
	Skipped    int
	Failures   []Failure
}

// Failed returns the number of items that exhausted their attempts.
func (r BatchResult) Failed() int {
	return len(r.Failures)
}

// Summarizer runs a Worker over a batch with at most WorkerBudget calls
// in flight.
type Summarizer struct {
	Worker       *Worker
	Cache        *cache.Cache
	WorkerBudget int
	Log          *zap.Logger
}

// SummarizeBatch summarizes items. Cached summaries are reused without a
// remote call and items without a PDF URL are skipped. Each fresh summary
// is written to the cache as soon as it completes. Item IDs must be
// unique within the batch.
//
// The batch runs to completion once started: cancelling ctx makes the
// remaining calls fail fast but every item still ends up in Items or
// Failures.
func (s *Summarizer) SummarizeBatch(ctx context.Context, items []types.Item) BatchResult {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	budget := s.WorkerBudget
	if budget <= 0 {
		budget = DefaultWorkerBudget
	}

	var res BatchResult
	var pending []types.Item
	for _, it := range items {
		if s.Cache != nil {
			if hit, ok := s.Cache.Get(it.ID); ok && hit.HasSummary() {
				log.Debug("using cached summary", zap.String("id", it.ID))
				res.Items = append(res.Items, hit)
				res.Cached++
				continue
			}
		}
		if strings.TrimSpace(it.PDFURL) == "" {
			log.Warn("no PDF URL; skipping", zap.String("id", it.ID), zap.String("title", it.Title))
			res.Skipped++
			continue
		}
		pending = append(pending, it)
	}

	if len(pending) == 0 {
		return res
	}
	log.Info("summarizing papers",
		zap.Int("pending", len(pending)), zap.Int("cached", res.Cached), zap.Int("workers", budget))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(budget)

	for _, it := range pending {
		g.Go(func() error {
			summary, err := s.Worker.SummarizeOne(ctx, it)
			if err != nil {
				log.Error("summarization failed", zap.String("id", it.ID), zap.Error(err))
				mu.Lock()
				res.Failures = append(res.Failures, Failure{ID: it.ID, Err: err})
				mu.Unlock()
				return nil
			}
			if summary == "" {
				log.Warn("model output held no tagged sections", zap.String("id", it.ID))
			}

			it.Summary = summary
			it.SummarizedAt = now()
			if s.Cache != nil {
				if err := s.Cache.Put(context.WithoutCancel(ctx), it); err != nil {
					log.Warn("caching summary failed", zap.String("id", it.ID), zap.Error(err))
				}
			}

			mu.Lock()
			res.Items = append(res.Items, it)
			res.Summarized++
			mu.Unlock()
			log.Info("summarized", zap.String("id", it.ID))
			return nil
		})
	}
	_ = g.Wait()

	return res
}
