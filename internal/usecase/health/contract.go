package health

import (
	"context"

	"github.com/kailas-cloud/prodsearch/internal/snapshot"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// Snapshots exposes the live catalog and index.
type Snapshots interface {
	Load() (*snapshot.Snapshot, bool)
}
