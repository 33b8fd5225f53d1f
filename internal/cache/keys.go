package cache

const (
	// Idempotency claim: idem:{scope}:{key} -> "1"
	KeyIdempotency = "idem:%s:%s"

	// Cached dashboard summary.
	KeyAnalyticsSummary = "analytics:summary"
)
