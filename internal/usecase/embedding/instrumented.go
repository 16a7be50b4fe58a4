// Package embedding decorates the query embedder with request-scoped logging.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/logger"
)

// DefaultSlowThreshold is the latency above which an embed call is logged at warn.
const DefaultSlowThreshold = time.Second

// InstrumentedEmbedder logs every query embedding. Provider metrics are recorded
// in transport/openai and cache metrics in embcache, so this layer only logs.
type InstrumentedEmbedder struct {
	inner  domain.Embedder
	slow   time.Duration
	fields []zap.Field
	logger *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. Provider and model are attached to every entry.
func NewInstrumentedEmbedder(inner domain.Embedder, provider, model string, logger *zap.Logger) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:  inner,
		slow:   DefaultSlowThreshold,
		fields: []zap.Field{zap.String("provider", provider), zap.String("model", model)},
		logger: logger,
	}
}

// WithSlowThreshold overrides the slow-call threshold. Zero disables the warning.
func (p *InstrumentedEmbedder) WithSlowThreshold(d time.Duration) *InstrumentedEmbedder {
	p.slow = d
	return p
}

// Embed delegates to the inner embedder. Query text is never logged, only its length.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	log := p.requestLogger(ctx).With(
		zap.Duration("duration", duration),
		zap.Int("query_bytes", len(text)),
	)

	if err != nil {
		log.Error("Embedding request failed", zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	fields := []zap.Field{
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	}
	if p.slow > 0 && duration > p.slow {
		log.Warn("Slow embedding request", fields...)
	} else {
		log.Debug("Embedding request completed", fields...)
	}
	return result, nil
}

// requestLogger prefers the request logger, which carries request_id.
func (p *InstrumentedEmbedder) requestLogger(ctx context.Context) *zap.Logger {
	if l := logger.FromContext(ctx); l.Core().Enabled(zap.ErrorLevel) {
		return l.With(p.fields...)
	}
	return p.logger.With(p.fields...)
}
