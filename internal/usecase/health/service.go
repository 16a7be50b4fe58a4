package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional dependency is failing; searches may still fail.
	Degraded Status = "degraded"
	// Unhealthy indicates no catalog or index is being served.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentCatalog   = "catalog"
	ComponentIndex     = "index"
	ComponentDatabase  = "database"
	ComponentEmbedding = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status   Status
	Checks   map[string]CheckResult
	Products int
}

// Service coordinates health checks.
type Service struct {
	snapshots Snapshots
	db        DBPinger
	embedding EmbeddingChecker
}

// New creates a Service. db and embedding can be nil.
func New(snapshots Snapshots, db DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{snapshots: snapshots, db: db, embedding: embedding}
}

// Check runs health checks against all components. A missing catalog or index
// makes the service unhealthy; failing optional dependencies degrade it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	report := Report{Status: Healthy, Checks: checks}

	snap, ok := s.snapshots.Load()
	checks[ComponentCatalog] = result(ok && snap.Catalog != nil && snap.Catalog.Len() > 0)
	checks[ComponentIndex] = result(ok && snap.Index != nil && snap.Index.Size() > 0)
	if ok && snap.Catalog != nil {
		report.Products = snap.Catalog.Len()
	}

	if s.db != nil {
		checks[ComponentDatabase] = result(s.db.Ping(ctx) == nil)
	}
	if s.embedding != nil {
		checks[ComponentEmbedding] = result(s.embedding.HealthCheck(ctx) == nil)
	}

	switch {
	case checks[ComponentCatalog] == CheckError || checks[ComponentIndex] == CheckError:
		report.Status = Unhealthy
	case checks[ComponentDatabase] == CheckError || checks[ComponentEmbedding] == CheckError:
		report.Status = Degraded
	}
	return report
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
