package users

import (
	"context"
	"strings"
)

// RepositoryPort defines data access methods for principal administration.
type RepositoryPort interface {
	ListPrincipals(ctx context.Context) ([]PrincipalAccount, error)
	GetPrincipal(ctx context.Context, id int64) (PrincipalAccount, error)
	ReplaceCustomPermissions(ctx context.Context, principalID int64, codes []string) error
}

// Service handles principal administration rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns all principals with role and custom grant detail.
func (s *Service) List(ctx context.Context) ([]PrincipalAccount, error) {
	return s.repo.ListPrincipals(ctx)
}

// Get fetches one principal with detail.
func (s *Service) Get(ctx context.Context, id int64) (PrincipalAccount, error) {
	return s.repo.GetPrincipal(ctx, id)
}

// SetCustomPermissions replaces the principal's entire custom grant set with
// the given codes. An empty slice clears every custom grant. The new set
// takes effect on the principal's next access check.
func (s *Service) SetCustomPermissions(ctx context.Context, id int64, codes []string) (PrincipalAccount, error) {
	if _, err := s.repo.GetPrincipal(ctx, id); err != nil {
		return PrincipalAccount{}, err
	}
	if err := s.repo.ReplaceCustomPermissions(ctx, id, dedupe(codes)); err != nil {
		return PrincipalAccount{}, err
	}
	return s.repo.GetPrincipal(ctx, id)
}

func dedupe(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
