package driving

import (
	"context"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// QueryService answers semantic queries over notebooks.
type QueryService interface {
	// Query embeds text and returns the topK nearest chunks within scope.
	Query(ctx context.Context, scope domain.QueryScope, text string, topK int) (*domain.QueryResponse, error)
}
