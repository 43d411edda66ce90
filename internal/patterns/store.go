package patterns

import "context"

// Store persists the distilled pattern table. Upsert must be atomic per
// key: concurrent observations of the same pattern may interleave but
// every increment lands exactly once.
type Store interface {
	// Upsert folds one observation into the pattern identified by key,
	// creating the pattern on first reference, and returns the updated
	// row.
	Upsert(ctx context.Context, key string, delta Delta) (RiskPattern, error)
	Get(ctx context.Context, key string) (RiskPattern, error)
	// Query returns patterns usable for matching: framework equal to the
	// requested framework or "all", frequency at or above minSamples, and
	// confidence at or above minConfidence.
	Query(ctx context.Context, framework, documentType string, minConfidence float64, minSamples int) ([]RiskPattern, error)
	// List returns every pattern, highest confidence first, for the
	// read-only inspection endpoint.
	List(ctx context.Context, framework string, limit int) ([]RiskPattern, error)
}
