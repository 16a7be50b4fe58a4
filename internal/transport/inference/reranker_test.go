package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/usecase/rerank"
)

var _ rerank.PairScorer = (*Reranker)(nil)

// scoreServer scores each text by parsing it as a number and answers in
// reverse index order, so tests verify that results are placed by index.
func scoreServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if calls != nil {
			calls.Add(1)
		}
		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if !req.RawScores {
			t.Error("expected raw_scores=true")
		}
		resp := make([]rerankScore, 0, len(req.Texts))
		for i := len(req.Texts) - 1; i >= 0; i-- {
			v, _ := strconv.ParseFloat(req.Texts[i], 64)
			resp = append(resp, rerankScore{Index: i, Score: v})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestReranker(t *testing.T, url string, maxBatch int) *Reranker {
	t.Helper()
	r, err := NewReranker(RerankerConfig{URL: url, MaxBatch: maxBatch, Workers: 2})
	if err != nil {
		t.Fatalf("NewReranker: %v", err)
	}
	t.Cleanup(r.Release)
	return r
}

func TestReranker_SingleBatch(t *testing.T) {
	var calls atomic.Int32
	srv := scoreServer(t, &calls)
	defer srv.Close()

	r := newTestReranker(t, srv.URL, 10)
	got, err := r.Score(context.Background(), "q", []string{"1", "2", "3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("score[%d] = %f, want %f", i, got[i], want[i])
		}
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestReranker_ChunksPreserveOrder(t *testing.T) {
	var calls atomic.Int32
	srv := scoreServer(t, &calls)
	defer srv.Close()

	texts := make([]string, 25)
	for i := range texts {
		texts[i] = strconv.Itoa(i)
	}

	r := newTestReranker(t, srv.URL, 4)
	got, err := r.Score(context.Background(), "q", texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(texts) {
		t.Fatalf("expected %d scores, got %d", len(texts), len(got))
	}
	for i := range got {
		if got[i] != float64(i) {
			t.Errorf("score[%d] = %f, want %d", i, got[i], i)
		}
	}
	if calls.Load() != 7 {
		t.Errorf("expected 7 chunk calls, got %d", calls.Load())
	}
}

func TestReranker_Empty(t *testing.T) {
	r := newTestReranker(t, "http://127.0.0.1:0", 4)
	got, err := r.Score(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no scores, got %v", got)
	}
}

func TestReranker_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"index":0,"score":1.5}]`))
	}))
	defer srv.Close()

	r := newTestReranker(t, srv.URL, 10)
	_, err := r.Score(context.Background(), "q", []string{"a", "b"})
	if !errors.Is(err, domain.ErrRerankerFailed) {
		t.Errorf("expected ErrRerankerFailed, got %v", err)
	}
}

func TestReranker_DuplicateIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"index":0,"score":1},{"index":0,"score":2}]`))
	}))
	defer srv.Close()

	r := newTestReranker(t, srv.URL, 10)
	_, err := r.Score(context.Background(), "q", []string{"a", "b"})
	if !errors.Is(err, domain.ErrRerankerFailed) {
		t.Errorf("expected ErrRerankerFailed, got %v", err)
	}
}

func TestReranker_ChunkFailureFailsWholeCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rerankRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if calls.Add(1) == 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		resp := make([]rerankScore, len(req.Texts))
		for i := range resp {
			resp[i] = rerankScore{Index: i}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	r := newTestReranker(t, srv.URL, 2)
	_, err := r.Score(context.Background(), "q", []string{"a", "b", "c", "d", "e", "f"})
	if !errors.Is(err, domain.ErrRerankerFailed) {
		t.Errorf("expected ErrRerankerFailed, got %v", err)
	}
}

func TestNewReranker_RequiresURL(t *testing.T) {
	if _, err := NewReranker(RerankerConfig{}); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestReranker_SaturatedPoolScoresInline(t *testing.T) {
	var calls atomic.Int32
	inner := scoreServer(t, &calls)
	defer inner.Close()
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		inner.Config.Handler.ServeHTTP(w, r)
	}))
	defer slow.Close()

	r, err := NewReranker(RerankerConfig{URL: slow.URL, MaxBatch: 1, Workers: 1})
	if err != nil {
		t.Fatalf("NewReranker: %v", err)
	}
	defer r.Release()

	texts := []string{"6", "5", "4", "3", "2", "1"}
	scores, err := r.Score(context.Background(), "q", texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []float64{6, 5, 4, 3, 2, 1} {
		if scores[i] != want {
			t.Errorf("scores[%d] = %v, want %v", i, scores[i], want)
		}
	}
	if got := calls.Load(); got != int32(len(texts)) {
		t.Errorf("expected %d calls, got %d", len(texts), got)
	}
}

func TestReranker_CancelledContextSkipsOracle(t *testing.T) {
	var calls atomic.Int32
	srv := scoreServer(t, &calls)
	defer srv.Close()

	r := newTestReranker(t, srv.URL, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Score(ctx, "q", []string{"1", "2", "3", "4"})
	if !errors.Is(err, domain.ErrRerankerFailed) {
		t.Errorf("expected ErrRerankerFailed, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("expected no oracle calls, got %d", got)
	}
}
