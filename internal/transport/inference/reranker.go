package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
)

// Reranker defaults.
const (
	DefaultMaxBatch = 32
	DefaultWorkers  = 4
)

// RerankerConfig configures the cross-encoder endpoint.
type RerankerConfig struct {
	URL      string
	Token    string
	Timeout  time.Duration
	MaxBatch int
	Workers  int
}

// Reranker scores (query, text) pairs with a cross-encoder served behind a
// /rerank endpoint. Batches larger than MaxBatch are split into chunks that
// are scored concurrently on a shared worker pool.
type Reranker struct {
	http     *httpClient
	pool     *ants.Pool
	maxBatch int
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
}

type rerankScore struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewReranker creates a cross-encoder client. Call Release when done.
func NewReranker(cfg RerankerConfig) (*Reranker, error) {
	c, err := newHTTPClient(cfg.URL, cfg.Token, metrics.OracleReranker, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	// The pool is shared by all requests. It never queues: a chunk that finds
	// no idle worker is scored on the caller's goroutine under its own ctx.
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create reranker pool: %w", err)
	}
	return &Reranker{http: c, pool: pool, maxBatch: maxBatch}, nil
}

// Release stops the worker pool.
func (r *Reranker) Release() {
	r.pool.Release()
}

// Score satisfies rerank.PairScorer. Scores are returned in input order.
func (r *Reranker) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	scores := make([]float64, len(texts))
	if len(texts) == 0 {
		return scores, nil
	}
	if len(texts) <= r.maxBatch {
		if err := r.scoreChunk(ctx, query, texts, scores); err != nil {
			return nil, err
		}
		return scores, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for offset := 0; offset < len(texts); offset += r.maxBatch {
		if err := ctx.Err(); err != nil {
			setErr(fmt.Errorf("%w: %w", domain.ErrRerankerFailed, err))
			break
		}
		end := min(offset+r.maxBatch, len(texts))
		chunk, out := texts[offset:end], scores[offset:end]
		run := func() {
			if err := r.scoreChunk(ctx, query, chunk, out); err != nil {
				setErr(err)
			}
		}

		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			run()
		})
		switch {
		case err == nil:
		case errors.Is(err, ants.ErrPoolOverload):
			run()
			wg.Done()
		default:
			wg.Done()
			setErr(fmt.Errorf("%w: submit chunk: %w", domain.ErrRerankerFailed, err))
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return scores, nil
}

// scoreChunk scores one chunk and writes results into out by the returned index.
func (r *Reranker) scoreChunk(ctx context.Context, query string, texts []string, out []float64) error {
	req := rerankRequest{Query: query, Texts: texts, RawScores: true}

	var resp []rerankScore
	if err := r.http.postJSON(ctx, "/rerank", req, &resp); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRerankerFailed, err)
	}
	if len(resp) != len(texts) {
		return fmt.Errorf("%w: got %d scores for %d texts", domain.ErrRerankerFailed, len(resp), len(texts))
	}

	seen := make([]bool, len(texts))
	for _, s := range resp {
		if s.Index < 0 || s.Index >= len(texts) || seen[s.Index] {
			return fmt.Errorf("%w: invalid score index %d", domain.ErrRerankerFailed, s.Index)
		}
		seen[s.Index] = true
		out[s.Index] = s.Score
	}
	return nil
}
