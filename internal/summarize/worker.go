// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-digest/internal/extract"
	"github.com/pdiddy/paper-digest/internal/llm"
	"github.com/pdiddy/paper-digest/pkg/types"
)

const (
	DefaultMaxRetries      = 2
	DefaultBackoffUnit     = time.Second
	DefaultMaxOutputTokens = 5000
	DefaultWorkerBudget    = 3
)

// ErrNoDocument is returned for an item without a PDF URL.
var ErrNoDocument = errors.New("item has no document URL")

// sleep waits out the backoff between attempts. Tests replace it to
// record delays without waiting.
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

// SummarizationError is the final failure for one item after every
// attempt was used.
type SummarizationError struct {
	ID       string
	Attempts int
	Err      error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarizing %s failed after %d attempt(s): %v", e.ID, e.Attempts, e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// Worker summarizes one item at a time with bounded retries.
type Worker struct {
	Client llm.Summarizer

	// MaxRetries is the number of attempts after the first. Zero disables
	// retries.
	MaxRetries int

	// BackoffUnit scales the wait after failed attempt a to 2^a units.
	BackoffUnit time.Duration

	MaxOutputTokens int

	// PromptLimit caps the prompt size in bytes. Zero means MaxPromptBytes.
	PromptLimit int

	Log *zap.Logger
}

// NewWorker builds a Worker from cfg. A negative MaxRetries and
// non-positive durations or token counts take the defaults.
func NewWorker(client llm.Summarizer, cfg types.SummarizeConfig, log *zap.Logger) *Worker {
	w := &Worker{
		Client:          client,
		MaxRetries:      cfg.MaxRetries,
		BackoffUnit:     cfg.BackoffUnit,
		MaxOutputTokens: cfg.MaxOutputTokens,
		Log:             log,
	}
	if w.MaxRetries < 0 {
		w.MaxRetries = DefaultMaxRetries
	}
	if w.BackoffUnit <= 0 {
		w.BackoffUnit = DefaultBackoffUnit
	}
	if w.MaxOutputTokens <= 0 {
		w.MaxOutputTokens = DefaultMaxOutputTokens
	}
	return w
}

func (w *Worker) logger() *zap.Logger {
	if w.Log == nil {
		return zap.NewNop()
	}
	return w.Log
}

// SummarizeOne returns the formatted structured summary of item's PDF.
// An oversized prompt fails immediately with *SizeError. Otherwise the
// call is attempted up to MaxRetries+1 times, waiting 2^a * BackoffUnit
// after failed attempt a, and the last error is returned wrapped in a
// *SummarizationError.
func (w *Worker) SummarizeOne(ctx context.Context, item types.Item) (string, error) {
	prompt := Prompt()
	limit := w.PromptLimit
	if limit <= 0 {
		limit = MaxPromptBytes
	}
	if err := checkSize(prompt, limit); err != nil {
		return "", err
	}

	uri := types.SecureURL(strings.TrimSpace(item.PDFURL))
	if uri == "" {
		return "", &SummarizationError{ID: item.ID, Err: ErrNoDocument}
	}

	log := w.logger().With(zap.String("id", item.ID))
	extractor := extract.Extractor{Log: log}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= w.MaxRetries; attempt++ {
		attempts++
		raw, err := w.Client.SummarizeDocument(ctx, uri, prompt, w.MaxOutputTokens)
		if err == nil {
			return extract.Format(extractor.Extract(raw)), nil
		}
		lastErr = err

		if attempt == w.MaxRetries {
			break
		}
		backoff := time.Duration(math.Pow(2, float64(attempt))) * w.BackoffUnit
		log.Warn("summarization attempt failed; retrying",
			zap.Int("attempt", attempt+1), zap.Duration("backoff", backoff), zap.Error(err))
		if serr := sleep(ctx, backoff); serr != nil {
			lastErr = fmt.Errorf("%w (retry abandoned: %v)", lastErr, serr)
			break
		}
	}
	return "", &SummarizationError{ID: item.ID, Attempts: attempts, Err: lastErr}
}
