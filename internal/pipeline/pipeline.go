// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one discovery, summarization, and digest pass.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-digest/internal/digest"
	"github.com/pdiddy/paper-digest/internal/discovery"
	"github.com/pdiddy/paper-digest/internal/summarize"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// now dates the digest. Tests pin it.
var now = time.Now

// Report summarizes one run.
type Report struct {
	RunID string

	Discovered int
	Cached     int
	Summarized int
	Skipped    int
	Failed     int
	Failures   []summarize.Failure

	// DiscoveryErr is the request error that cut discovery short, if any.
	DiscoveryErr error

	Items       []types.Item
	DigestPaths []string
}

// Succeeded returns the number of items that ended with a summary.
func (r Report) Succeeded() int {
	return r.Cached + r.Summarized
}

// ExitCode is 1 when at least one item failed and none succeeded, else 0.
func (r Report) ExitCode() int {
	if r.Failed > 0 && r.Succeeded() == 0 {
		return 1
	}
	return 0
}

// Print writes a human-readable summary of the run to w.
func (r Report) Print(w io.Writer) {
	fmt.Fprintf(w, "run %s\n", r.RunID)
	if r.DiscoveryErr != nil {
		fmt.Fprintf(w, "warning: discovery stopped early: %v\n", r.DiscoveryErr)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(w, "failed  %s: %v\n", f.ID, f.Err)
	}
	for _, p := range r.DigestPaths {
		fmt.Fprintf(w, "wrote   %s\n", p)
	}
	fmt.Fprintf(w, "\n%d discovered, %d summarized, %d cached, %d skipped, %d failed\n",
		r.Discovered, r.Summarized, r.Cached, r.Skipped, r.Failed)
}

// Runner wires the stages of one pass.
type Runner struct {
	Discoverer *discovery.Discoverer
	Summarizer *summarize.Summarizer

	// DigestDir receives the rendered digest. Empty disables digest output.
	DigestDir string

	Log *zap.Logger
}

// Run discovers new papers, summarizes them, and writes the digest. Every
// log line of the pass carries the run ID. The error is non-nil only when
// the pass could not start; per-item problems are in the Report.
func (r *Runner) Run(ctx context.Context, opts discovery.Options) (Report, error) {
	rep := Report{RunID: uuid.NewString()}

	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("run_id", rep.RunID))

	d := *r.Discoverer
	d.Log = log
	s := *r.Summarizer
	s.Log = log
	if s.Worker != nil {
		w := *s.Worker
		w.Log = log
		s.Worker = &w
	}

	log.Info("run started", zap.String("query", opts.Query))

	found, err := d.Discover(ctx, opts)
	if err != nil {
		return rep, fmt.Errorf("discovering papers: %w", err)
	}
	rep.Discovered = len(found.Items)
	rep.DiscoveryErr = found.Err
	log.Info("discovery finished",
		zap.Int("new", len(found.Items)), zap.Int("pages", found.Pages), zap.Int("skipped", found.Skipped))

	batch := s.SummarizeBatch(ctx, found.Items)
	rep.Cached = batch.Cached
	rep.Summarized = batch.Summarized
	rep.Skipped = batch.Skipped
	rep.Failed = batch.Failed()
	rep.Failures = batch.Failures
	rep.Items = batch.Items

	if r.DigestDir != "" && len(batch.Items) > 0 {
		paths, err := digest.Write(r.DigestDir, now(), batch.Items)
		rep.DigestPaths = paths
		if err != nil {
			log.Warn("writing digest failed", zap.Error(err))
		} else {
			log.Info("digest written", zap.Strings("paths", paths))
		}
	}

	log.Info("run finished",
		zap.Int("summarized", rep.Summarized), zap.Int("cached", rep.Cached),
		zap.Int("skipped", rep.Skipped), zap.Int("failed", rep.Failed))
	return rep, nil
}
