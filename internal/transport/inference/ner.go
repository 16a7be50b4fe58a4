package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
)

// NERConfig configures the token-classification endpoint.
type NERConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// NER calls a token-classification pipeline with simple aggregation, so that
// adjacent sub-word pieces come back as one entity span.
type NER struct {
	http *httpClient
}

type nerRequest struct {
	Inputs     string        `json:"inputs"`
	Parameters nerParameters `json:"parameters"`
}

type nerParameters struct {
	AggregationStrategy string `json:"aggregation_strategy"`
}

// NewNER creates an entity recognizer client.
func NewNER(cfg NERConfig) (*NER, error) {
	c, err := newHTTPClient(cfg.URL, cfg.Token, metrics.OracleNER, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &NER{http: c}, nil
}

// Recognize satisfies understand.EntityRecognizer.
func (n *NER) Recognize(ctx context.Context, text string) ([]domain.Entity, error) {
	req := nerRequest{
		Inputs:     text,
		Parameters: nerParameters{AggregationStrategy: "simple"},
	}

	var entities []domain.Entity
	if err := n.http.postJSON(ctx, "", req, &entities); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEntityRecognitionFailed, err)
	}

	for _, e := range entities {
		if e.Start < 0 || e.End < e.Start {
			return nil, fmt.Errorf("%w: invalid entity span [%d, %d)", domain.ErrEntityRecognitionFailed, e.Start, e.End)
		}
	}
	return entities, nil
}
