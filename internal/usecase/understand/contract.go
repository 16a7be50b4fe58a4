package understand

import (
	"context"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// EntityRecognizer tags character spans of a query.
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]domain.Entity, error)
}
