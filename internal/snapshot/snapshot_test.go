package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/catalog"
	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/vector"
)

const catalogJSONL = `{"product_id": "1", "title": "Air Zoom", "brand": "nike", "price": 49.5}
{"product_id": "2", "title": "Ultraboost", "brand": "adidas", "price": 180}
`

func writeFixtures(t *testing.T, dir string) (catalogPath, indexPath string) {
	t.Helper()
	catalogPath = filepath.Join(dir, "products.jsonl")
	indexPath = filepath.Join(dir, "products.flat")
	if err := os.WriteFile(catalogPath, []byte(catalogJSONL), 0o600); err != nil {
		t.Fatal(err)
	}
	x, err := vector.NewFlatIndex(2)
	if err != nil {
		t.Fatal(err)
	}
	if err := x.Add([]int64{1, 2}, [][]float32{{0, 1}, {1, 0}}); err != nil {
		t.Fatal(err)
	}
	if err := x.Save(indexPath); err != nil {
		t.Fatal(err)
	}
	return catalogPath, indexPath
}

type failingSource struct{ err error }

func (f failingSource) Open(_ context.Context) (domain.VectorIndex, error) { return nil, f.err }

func TestHolder_LoadAndSwap(t *testing.T) {
	h := NewHolder(nil)
	if _, ok := h.Load(); ok {
		t.Fatal("empty holder must report not loaded")
	}

	first := &Snapshot{Catalog: catalog.New(nil)}
	if prev := h.Swap(first); prev != nil {
		t.Errorf("expected no previous snapshot, got %v", prev)
	}
	second := &Snapshot{Catalog: catalog.New(nil)}
	if prev := h.Swap(second); prev != first {
		t.Error("Swap must return the previous snapshot")
	}
	if got, ok := h.Load(); !ok || got != second {
		t.Error("Load must return the latest snapshot")
	}
}

func TestHolder_ConcurrentReadersSeeWholePairs(t *testing.T) {
	a := &Snapshot{Catalog: catalog.New(nil), LoadedAt: time.Unix(1, 0)}
	b := &Snapshot{Catalog: catalog.New(nil), LoadedAt: time.Unix(2, 0)}
	h := NewHolder(a)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s, ok := h.Load()
				if !ok || (s != a && s != b) {
					t.Error("reader saw an unknown snapshot")
					return
				}
			}
		}()
	}
	for j := 0; j < 100; j++ {
		if j%2 == 0 {
			h.Swap(b)
		} else {
			h.Swap(a)
		}
	}
	wg.Wait()
}

func TestLoader_Load(t *testing.T) {
	catalogPath, indexPath := writeFixtures(t, t.TempDir())
	l := NewLoader(catalogPath, FileIndex{Path: indexPath, Dimensions: 2}, zap.NewNop())

	s, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Catalog.Len() != 2 || s.Index.Size() != 2 {
		t.Errorf("catalog=%d index=%d, want 2/2", s.Catalog.Len(), s.Index.Size())
	}
	if id, ok := s.Index.ProductID(2); !ok || id != "2" {
		t.Errorf("ProductID(2) = %q, %v", id, ok)
	}
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	catalogPath, indexPath := writeFixtures(t, dir)

	t.Run("missing catalog", func(t *testing.T) {
		l := NewLoader(filepath.Join(dir, "nope.jsonl"), FileIndex{Path: indexPath}, zap.NewNop())
		_, err := l.Load(context.Background())
		if !errors.Is(err, domain.ErrCatalogNotFound) {
			t.Errorf("expected ErrCatalogNotFound, got %v", err)
		}
	})
	t.Run("index dimension mismatch", func(t *testing.T) {
		l := NewLoader(catalogPath, FileIndex{Path: indexPath, Dimensions: 8}, zap.NewNop())
		if _, err := l.Load(context.Background()); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("index source failure", func(t *testing.T) {
		boom := errors.New("boom")
		l := NewLoader(catalogPath, failingSource{err: boom}, zap.NewNop())
		if _, err := l.Load(context.Background()); !errors.Is(err, boom) {
			t.Errorf("expected wrapped source error, got %v", err)
		}
	})
}

func TestLoader_ReloadKeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	catalogPath, indexPath := writeFixtures(t, dir)
	h := NewHolder(nil)

	l := NewLoader(catalogPath, FileIndex{Path: indexPath, Dimensions: 2}, zap.NewNop())
	if err := l.Reload(context.Background(), h); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	first, _ := h.Load()

	if err := os.WriteFile(catalogPath, []byte("{broken\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := l.Reload(context.Background(), h); err == nil {
		t.Fatal("expected reload error for malformed catalog")
	}
	if cur, _ := h.Load(); cur != first {
		t.Error("failed reload must keep the previous snapshot")
	}
}
