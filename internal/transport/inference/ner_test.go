package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/usecase/understand"
)

var _ understand.EntityRecognizer = (*NER)(nil)

func TestNER_Recognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer hf-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req nerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Inputs != "nike shoes" || req.Parameters.AggregationStrategy != "simple" {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"entity_group":"ORG","word":"nike","start":0,"end":4,"score":0.99}]`))
	}))
	defer srv.Close()

	ner, err := NewNER(NERConfig{URL: srv.URL, Token: "hf-token"})
	if err != nil {
		t.Fatalf("NewNER: %v", err)
	}

	got, err := ner.Recognize(context.Background(), "nike shoes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(got))
	}
	if got[0].Group != domain.EntityOrganization || got[0].Word != "nike" || got[0].Start != 0 || got[0].End != 4 {
		t.Errorf("unexpected entity: %+v", got[0])
	}
}

func TestNER_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ner, _ := NewNER(NERConfig{URL: srv.URL})
	got, err := ner.Recognize(context.Background(), "shoes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no entities, got %v", got)
	}
}

func TestNER_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, domain.ErrEntityRecognitionFailed},
		{"malformed json", http.StatusOK, `{not json`, domain.ErrEntityRecognitionFailed},
		{"invalid span", http.StatusOK, `[{"entity_group":"ORG","word":"x","start":5,"end":2}]`, domain.ErrEntityRecognitionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			ner, _ := NewNER(NERConfig{URL: srv.URL})
			_, err := ner.Recognize(context.Background(), "q")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNER_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release) // runs before Close so the handler returns

	ner, _ := NewNER(NERConfig{URL: srv.URL, Timeout: time.Minute})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := ner.Recognize(ctx, "q")
	if !errors.Is(err, domain.ErrEntityRecognitionFailed) {
		t.Errorf("expected ErrEntityRecognitionFailed, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded in chain, got %v", err)
	}
}

func TestNewNER_RequiresURL(t *testing.T) {
	if _, err := NewNER(NERConfig{}); err == nil {
		t.Fatal("expected error for empty url")
	}
}
