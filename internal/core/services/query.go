package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-server/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryServiceConfig configures query execution.
type QueryServiceConfig struct {
	// Timeout bounds embedding plus search. Zero disables it.
	Timeout time.Duration

	// MaxDistance drops hits farther than this. Zero disables it.
	MaxDistance float64
}

// QueryService embeds a question at high priority and ranks the nearest
// chunks across one notebook or every notebook of a user.
type QueryService struct {
	users     driven.UserStore
	notebooks driven.NotebookStore
	index     driven.VectorIndex
	embedder  embedder
	cfg       QueryServiceConfig
}

// NewQueryService creates a query service.
func NewQueryService(
	users driven.UserStore,
	notebooks driven.NotebookStore,
	index driven.VectorIndex,
	embedder embedder,
	cfg QueryServiceConfig,
) *QueryService {
	return &QueryService{
		users:     users,
		notebooks: notebooks,
		index:     index,
		embedder:  embedder,
		cfg:       cfg,
	}
}

// QueryNotebook searches a single notebook.
func (s *QueryService) QueryNotebook(ctx context.Context, notebookID, text string, topK int) (*domain.QueryResponse, error) {
	return s.Query(ctx, domain.QueryScope{Kind: domain.ScopeNotebook, ID: notebookID}, text, topK)
}

// QueryUser searches every notebook owned by a user.
func (s *QueryService) QueryUser(ctx context.Context, userID, text string, topK int) (*domain.QueryResponse, error) {
	return s.Query(ctx, domain.QueryScope{Kind: domain.ScopeUser, ID: userID}, text, topK)
}

// Query returns the topK chunks nearest to text within scope, nearest first.
func (s *QueryService) Query(ctx context.Context, scope domain.QueryScope, text string, topK int) (*domain.QueryResponse, error) {
	start := time.Now()
	logger.Section("Query")

	text = strings.TrimSpace(text)
	if err := validateQuery(text, topK); err != nil {
		return nil, err
	}

	owner, notebooks, err := s.resolve(ctx, scope)
	if err != nil {
		return nil, err
	}
	logger.Debug("query: %s %s spans %d notebooks, top_k=%d", scope.Kind, scope.ID, len(notebooks), topK)

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	results := make([]domain.QueryResult, 0)
	populated, err := s.populated(ctx, notebooks)
	if err != nil {
		return nil, err
	}
	if len(populated) > 0 {
		vec, err := s.embedder.Embed(ctx, text, domain.PriorityHigh)
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		hits, err := s.search(ctx, populated, owner, vec, topK)
		if err != nil {
			return nil, err
		}
		results = s.rank(hits, owner, topK)
	}

	elapsed := float64(time.Since(start).Microseconds()) / 1000
	resp := &domain.QueryResponse{
		Query:        text,
		Results:      results,
		ResultCount:  len(results),
		SearchTimeMs: math.Round(elapsed*100) / 100,
	}
	logger.Debug("query: %d results in %.2fms", resp.ResultCount, resp.SearchTimeMs)
	return resp, nil
}

func validateQuery(text string, topK int) error {
	if text == "" {
		return fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(text); n > domain.MaxQueryLength {
		return fmt.Errorf("%w: query is %d characters, limit is %d", domain.ErrInvalidInput, n, domain.MaxQueryLength)
	}
	if topK < domain.MinTopK || topK > domain.MaxTopK {
		return fmt.Errorf("%w: top_k must be between %d and %d", domain.ErrInvalidInput, domain.MinTopK, domain.MaxTopK)
	}
	return nil
}

// resolve returns the owning user and the notebooks a scope covers.
func (s *QueryService) resolve(ctx context.Context, scope domain.QueryScope) (string, []string, error) {
	switch scope.Kind {
	case domain.ScopeNotebook:
		nb, err := s.notebooks.Get(ctx, scope.ID)
		if err != nil {
			return "", nil, fmt.Errorf("query: notebook %s: %w", scope.ID, err)
		}
		return nb.UserID, []string{nb.ID}, nil
	case domain.ScopeUser:
		if _, err := s.users.Get(ctx, scope.ID); err != nil {
			return "", nil, fmt.Errorf("query: user %s: %w", scope.ID, err)
		}
		nbs, err := s.notebooks.ListByUser(ctx, scope.ID)
		if err != nil {
			return "", nil, fmt.Errorf("query: listing notebooks: %w", err)
		}
		ids := make([]string, len(nbs))
		for i := range nbs {
			ids[i] = nbs[i].ID
		}
		return scope.ID, ids, nil
	default:
		return "", nil, fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidInput, scope.Kind)
	}
}

// populated drops notebooks whose collection holds no vectors.
func (s *QueryService) populated(ctx context.Context, notebooks []string) ([]string, error) {
	out := make([]string, 0, len(notebooks))
	for _, id := range notebooks {
		n, err := s.index.Count(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("query: counting %s: %w", id, err)
		}
		if n > 0 {
			out = append(out, id)
		}
	}
	return out, nil
}

// search queries every collection concurrently for the owner's records
// and pools the hits.
func (s *QueryService) search(ctx context.Context, notebooks []string, owner string, vec []float32, k int) ([]driven.VectorHit, error) {
	perNotebook := make([][]driven.VectorHit, len(notebooks))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range notebooks {
		g.Go(func() error {
			hits, err := s.index.Search(gctx, id, vec, k, owner)
			if err != nil {
				return fmt.Errorf("query: searching %s: %w", id, err)
			}
			perNotebook[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pooled []driven.VectorHit
	for _, hits := range perNotebook {
		pooled = append(pooled, hits...)
	}
	return pooled, nil
}

// rank filters hits to the owner, applies the distance threshold and
// orders by distance, then insertion order, then chunk ID.
func (s *QueryService) rank(hits []driven.VectorHit, owner string, k int) []domain.QueryResult {
	kept := hits[:0]
	for _, h := range hits {
		if h.Payload.UserID != owner {
			continue
		}
		if s.cfg.MaxDistance > 0 && h.Distance > s.cfg.MaxDistance {
			continue
		}
		kept = append(kept, h)
	}

	sort.Slice(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.ID < b.ID
	})
	if len(kept) > k {
		kept = kept[:k]
	}

	results := make([]domain.QueryResult, len(kept))
	for i, h := range kept {
		results[i] = domain.QueryResult{
			ChunkID:    h.ID,
			DocumentID: h.Payload.DocumentID,
			NotebookID: h.Payload.NotebookID,
			Text:       h.Payload.Text,
			Score:      h.Distance,
		}
	}
	return results
}
