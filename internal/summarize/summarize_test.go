// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/paper-digest/internal/cache"
	"github.com/pdiddy/paper-digest/internal/kvstore"
	"github.com/pdiddy/paper-digest/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const taggedReply = `Planning first.
<summary>  A short summary.  </summary>
<methods>Probing.</methods>
<contributions>A dataset.</contributions>
<limitations>Small scale.</limitations>`

// fakeLLM fails the first failures[uri] calls for each document, then
// replies with reply.
type fakeLLM struct {
	mu       sync.Mutex
	calls    []string
	failures map[string]int
	always   bool
	reply    string
	hold     time.Duration

	inFlight    int32
	maxInFlight int32
}

func (f *fakeLLM) SummarizeDocument(ctx context.Context, uri, prompt string, maxTokens int) (string, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		m := atomic.LoadInt32(&f.maxInFlight)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxInFlight, m, n) {
			break
		}
	}
	if f.hold > 0 {
		time.Sleep(f.hold)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, uri)
	if f.always {
		return "", &types.RequestError{Op: "fake", StatusCode: 529, Err: errors.New("overloaded")}
	}
	if f.failures[uri] > 0 {
		f.failures[uri]--
		return "", &types.RequestError{Op: "fake", StatusCode: 500, Err: errors.New("transient")}
	}
	return f.reply, nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// recordSleep replaces the backoff wait and returns the recorded delays.
func recordSleep(t *testing.T) func() []time.Duration {
	t.Helper()
	var mu sync.Mutex
	var delays []time.Duration
	old := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		delays = append(delays, d)
		mu.Unlock()
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = old })
	return func() []time.Duration {
		mu.Lock()
		defer mu.Unlock()
		return append([]time.Duration(nil), delays...)
	}
}

func paper(id string) types.Item {
	return types.Item{ID: id, Title: "Paper " + id, PDFURL: "https://arxiv.org/pdf/" + id}
}

func TestSummarizeOne_PersistentFailure(t *testing.T) {
	delays := recordSleep(t)
	llm := &fakeLLM{always: true}
	w := &Worker{Client: llm, MaxRetries: 2, BackoffUnit: time.Second, MaxOutputTokens: 5000}

	_, err := w.SummarizeOne(context.Background(), paper("2401.00001"))
	require.Error(t, err)

	var sErr *SummarizationError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "2401.00001", sErr.ID)
	assert.Equal(t, 3, sErr.Attempts)

	var reqErr *types.RequestError
	require.ErrorAs(t, err, &reqErr, "the last transport error is wrapped")
	assert.Equal(t, 529, reqErr.StatusCode)

	assert.Equal(t, 3, llm.callCount())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays())
}

func TestSummarizeOne_SucceedsOnSecondAttempt(t *testing.T) {
	delays := recordSleep(t)
	uri := "https://arxiv.org/pdf/2401.00002"
	llm := &fakeLLM{failures: map[string]int{uri: 1}, reply: taggedReply}
	w := &Worker{Client: llm, MaxRetries: 2, BackoffUnit: time.Second}

	got, err := w.SummarizeOne(context.Background(), paper("2401.00002"))
	require.NoError(t, err)
	assert.Equal(t, "### Summary\nA short summary.\n### Methods\nProbing.\n### Contributions\nA dataset.\n### Limitations\nSmall scale.", got)
	assert.Equal(t, 2, llm.callCount())
	assert.Equal(t, []time.Duration{time.Second}, delays())
}

func TestSummarizeOne_UpgradesInsecureURL(t *testing.T) {
	recordSleep(t)
	llm := &fakeLLM{reply: "<summary>S</summary>"}
	w := NewWorker(llm, types.SummarizeConfig{}, nil)

	it := paper("2401.00003")
	it.PDFURL = "http://arxiv.org/pdf/2401.00003"
	_, err := w.SummarizeOne(context.Background(), it)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://arxiv.org/pdf/2401.00003"}, llm.calls)
}

func TestSummarizeOne_NoDocument(t *testing.T) {
	llm := &fakeLLM{reply: "x"}
	w := NewWorker(llm, types.SummarizeConfig{}, nil)

	_, err := w.SummarizeOne(context.Background(), types.Item{ID: "a"})
	assert.ErrorIs(t, err, ErrNoDocument)
	assert.Equal(t, 0, llm.callCount())
}

func TestSummarizeOne_CancelledDuringBackoff(t *testing.T) {
	old := sleep
	t.Cleanup(func() { sleep = old })
	ctx, cancel := context.WithCancel(context.Background())
	sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	llm := &fakeLLM{always: true}
	w := &Worker{Client: llm, MaxRetries: 2, BackoffUnit: time.Second}
	_, err := w.SummarizeOne(ctx, paper("c"))

	var sErr *SummarizationError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 1, sErr.Attempts)
	assert.Contains(t, err.Error(), "retry abandoned")
}

func TestSizeError(t *testing.T) {
	err := checkSize("abcd", 3)
	var sizeErr *SizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, 4, sizeErr.Size)
	assert.Equal(t, 3, sizeErr.Limit)

	assert.NoError(t, checkSize(Prompt(), MaxPromptBytes))
}

func TestSummarizeOne_OversizedPromptMakesNoCalls(t *testing.T) {
	delays := recordSleep(t)
	llm := &fakeLLM{reply: taggedReply}
	w := &Worker{Client: llm, MaxRetries: 2, BackoffUnit: time.Second, PromptLimit: 16}

	_, err := w.SummarizeOne(context.Background(), paper("2401.00007"))

	var sizeErr *SizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, len(Prompt()), sizeErr.Size)
	assert.Equal(t, 16, sizeErr.Limit)
	assert.Equal(t, 0, llm.callCount())
	assert.Empty(t, delays(), "a size failure is never retried")
}

func TestNewWorker_ZeroRetriesMakesOneAttempt(t *testing.T) {
	delays := recordSleep(t)
	llm := &fakeLLM{always: true}
	w := NewWorker(llm, types.SummarizeConfig{AIConfig: types.AIConfig{MaxRetries: 0}}, nil)
	require.Equal(t, 0, w.MaxRetries)

	_, err := w.SummarizeOne(context.Background(), paper("2401.00009"))

	var sErr *SummarizationError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 1, sErr.Attempts)
	assert.Equal(t, 1, llm.callCount())
	assert.Empty(t, delays())
}

func TestPromptAsksForEveryTag(t *testing.T) {
	for _, tag := range []string{"summary", "methods", "contributions", "limitations"} {
		assert.Contains(t, Prompt(), "<"+tag+"></"+tag+">")
	}
}

func TestNewWorkerDefaults(t *testing.T) {
	w := NewWorker(&fakeLLM{}, types.SummarizeConfig{AIConfig: types.AIConfig{MaxRetries: -1}}, nil)
	assert.Equal(t, DefaultMaxRetries, w.MaxRetries)
	assert.Equal(t, DefaultBackoffUnit, w.BackoffUnit)
	assert.Equal(t, DefaultMaxOutputTokens, w.MaxOutputTokens)

	w = NewWorker(&fakeLLM{}, types.SummarizeConfig{
		AIConfig:        types.AIConfig{MaxRetries: 4},
		BackoffUnit:     time.Millisecond,
		MaxOutputTokens: 100,
	}, nil)
	assert.Equal(t, 4, w.MaxRetries)
	assert.Equal(t, time.Millisecond, w.BackoffUnit)
	assert.Equal(t, 100, w.MaxOutputTokens)
}

func newCache(t *testing.T) (*cache.Cache, *kvstore.MemoryStore) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	return cache.Load(context.Background(), store, nil), store
}

func TestSummarizeBatch_BoundedConcurrency(t *testing.T) {
	recordSleep(t)
	llm := &fakeLLM{reply: taggedReply, hold: 20 * time.Millisecond}
	c, _ := newCache(t)
	s := &Summarizer{Worker: &Worker{Client: llm, MaxRetries: 2, BackoffUnit: time.Millisecond}, Cache: c, WorkerBudget: 3}

	var items []types.Item
	for i := 0; i < 10; i++ {
		items = append(items, paper(fmt.Sprintf("2401.%05d", i)))
	}
	res := s.SummarizeBatch(context.Background(), items)

	assert.Equal(t, 10, res.Summarized)
	assert.Len(t, res.Items, 10)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 10, llm.callCount())
	assert.LessOrEqual(t, atomic.LoadInt32(&llm.maxInFlight), int32(3))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&llm.maxInFlight), int32(1))
	assert.Equal(t, 10, c.Len())
}

func TestSummarizeBatch_CachedItemsMakeNoCalls(t *testing.T) {
	recordSleep(t)
	llm := &fakeLLM{reply: taggedReply}
	c, store := newCache(t)
	s := &Summarizer{Worker: &Worker{Client: llm, BackoffUnit: time.Millisecond}, Cache: c, WorkerBudget: 3}

	items := []types.Item{paper("a"), paper("b")}
	first := s.SummarizeBatch(context.Background(), items)
	require.Equal(t, 2, first.Summarized)
	require.Equal(t, 2, llm.callCount())

	// A fresh cache over the same store sees the persisted summaries.
	reloaded := cache.Load(context.Background(), store, nil)
	s.Cache = reloaded
	second := s.SummarizeBatch(context.Background(), items)

	assert.Equal(t, 2, second.Cached)
	assert.Equal(t, 0, second.Summarized)
	assert.Equal(t, 2, llm.callCount(), "cache hits must not reach the service")
	for _, it := range second.Items {
		assert.True(t, it.HasSummary())
		assert.False(t, it.SummarizedAt.IsZero())
	}
}

func TestSummarizeBatch_EmptyCachedSummaryIsRetried(t *testing.T) {
	recordSleep(t)
	llm := &fakeLLM{reply: taggedReply}
	c, _ := newCache(t)
	require.NoError(t, c.Put(context.Background(), paper("a")))

	s := &Summarizer{Worker: &Worker{Client: llm, BackoffUnit: time.Millisecond}, Cache: c}
	res := s.SummarizeBatch(context.Background(), []types.Item{paper("a")})
	assert.Equal(t, 0, res.Cached)
	assert.Equal(t, 1, res.Summarized)
}

func TestSummarizeBatch_SkipsMissingURL(t *testing.T) {
	recordSleep(t)
	core, logs := observer.New(zap.WarnLevel)
	llm := &fakeLLM{reply: taggedReply}
	s := &Summarizer{Worker: &Worker{Client: llm}, Log: zap.New(core)}

	res := s.SummarizeBatch(context.Background(), []types.Item{{ID: "nourl", Title: "No URL"}, paper("ok")})

	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Summarized)
	assert.Equal(t, []string{"https://arxiv.org/pdf/ok"}, llm.calls)
	entries := logs.FilterMessageSnippet("no PDF URL").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "nourl", entries[0].ContextMap()["id"])
}

func TestSummarizeBatch_RecordsFailures(t *testing.T) {
	delays := recordSleep(t)
	bad := "https://arxiv.org/pdf/bad"
	llm := &fakeLLM{failures: map[string]int{bad: 10}, reply: taggedReply}
	c, _ := newCache(t)
	s := &Summarizer{Worker: &Worker{Client: llm, MaxRetries: 2, BackoffUnit: time.Second}, Cache: c, WorkerBudget: 2}

	res := s.SummarizeBatch(context.Background(), []types.Item{paper("bad"), paper("good")})

	require.Len(t, res.Failures, 1)
	assert.Equal(t, 1, res.Failed())
	assert.Equal(t, "bad", res.Failures[0].ID)
	var sErr *SummarizationError
	assert.ErrorAs(t, res.Failures[0].Err, &sErr)
	assert.Equal(t, 1, res.Summarized)
	assert.Equal(t, "good", res.Items[0].ID)
	assert.False(t, c.Has("bad"), "failed items are not cached")
	assert.Len(t, delays(), 2)
}

func TestSummarizeBatch_CacheWriteFailureKeepsResult(t *testing.T) {
	recordSleep(t)
	core, logs := observer.New(zap.WarnLevel)
	c, store := newCache(t)
	store.WriteErr = errors.New("read-only")
	s := &Summarizer{Worker: &Worker{Client: &fakeLLM{reply: taggedReply}}, Cache: c, Log: zap.New(core)}

	res := s.SummarizeBatch(context.Background(), []types.Item{paper("a")})
	assert.Equal(t, 1, res.Summarized)
	assert.True(t, strings.HasPrefix(res.Items[0].Summary, "### Summary"))
	assert.Equal(t, 1, logs.FilterMessageSnippet("caching summary failed").Len())
}

func TestSummarizeBatch_Empty(t *testing.T) {
	s := &Summarizer{Worker: &Worker{Client: &fakeLLM{}}}
	res := s.SummarizeBatch(context.Background(), nil)
	assert.Empty(t, res.Items)
	assert.Zero(t, res.Summarized)
}
