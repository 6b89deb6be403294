package driven

import "context"

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	// Ping returns nil when the dependency is usable.
	Ping(ctx context.Context) error
}
