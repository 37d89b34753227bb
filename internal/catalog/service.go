package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/ridepass/ridepass/internal/platform/httpx"
	"github.com/ridepass/ridepass/internal/rbac"
)

// RepositoryPort defines data access methods for the catalog.
type RepositoryPort interface {
	ListActive(ctx context.Context, contextType string) ([]Entry, error)
	UpsertBatch(ctx context.Context, entries []Entry) error
}

// Service handles catalog business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListActive returns active entries, optionally filtered by context type.
func (s *Service) ListActive(ctx context.Context, contextType string) ([]Entry, error) {
	return s.repo.ListActive(ctx, strings.TrimSpace(contextType))
}

// Upsert validates and applies a bulk upsert-by-code. Routes are stored in
// their canonical form so the evaluator's equality check holds.
func (s *Service) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: permissions must be a non-empty array", httpx.ErrValidation)
	}
	seen := make(map[string]struct{}, len(entries))
	prepared := make([]Entry, 0, len(entries))
	for _, e := range entries {
		e.Code = strings.TrimSpace(e.Code)
		if e.Code == "" {
			return fmt.Errorf("%w: entry code is required", httpx.ErrValidation)
		}
		if strings.TrimSpace(e.Route) == "" {
			return fmt.Errorf("%w: entry %s: route is required", httpx.ErrValidation, e.Code)
		}
		if _, dup := seen[e.Code]; dup {
			return fmt.Errorf("%w: entry %s appears twice", httpx.ErrValidation, e.Code)
		}
		seen[e.Code] = struct{}{}
		e.Route = rbac.CanonicalPath(e.Route)
		prepared = append(prepared, e)
	}
	return s.repo.UpsertBatch(ctx, prepared)
}
