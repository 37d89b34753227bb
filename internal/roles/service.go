package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/ridepass/ridepass/internal/platform/httpx"
	"github.com/ridepass/ridepass/internal/rbac"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]RoleDetail, error)
	GetRole(ctx context.Context, id int64) (RoleDetail, error)
	CreateRole(ctx context.Context, name string, codes []string) (int64, error)
	RenameRole(ctx context.Context, id int64, name string) error
	ReplacePermissions(ctx context.Context, roleID int64, codes []string) error
	DeleteRoleReassign(ctx context.Context, roleID int64) (int64, error)
}

// Service handles role administration rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns all roles with detail.
func (s *Service) List(ctx context.Context) ([]RoleDetail, error) {
	return s.repo.ListRoles(ctx)
}

// Get fetches one role with detail.
func (s *Service) Get(ctx context.Context, id int64) (RoleDetail, error) {
	return s.repo.GetRole(ctx, id)
}

// Create inserts a new role, optionally seeding its permission set from an
// existing role's current codes. Duplicate names surface as a conflict.
func (s *Service) Create(ctx context.Context, name string, cloneFromID *int64) (RoleDetail, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return RoleDetail{}, fmt.Errorf("%w: role name is required", httpx.ErrValidation)
	}
	var codes []string
	if cloneFromID != nil {
		src, err := s.repo.GetRole(ctx, *cloneFromID)
		if err != nil {
			return RoleDetail{}, fmt.Errorf("source role: %w", err)
		}
		codes = src.Permissions
	}
	id, err := s.repo.CreateRole(ctx, name, codes)
	if err != nil {
		return RoleDetail{}, err
	}
	return s.repo.GetRole(ctx, id)
}

// UpdateInput carries the independent rename and permission-replacement
// parts of a role update. A nil Permissions means "leave the set alone"; a
// non-nil slice is a full replacement.
type UpdateInput struct {
	Name        *string
	Permissions []string
}

// Update renames a role and/or replaces its whole permission set. Replacing
// the protected super-role's permissions is rejected; renaming it is
// allowed.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (RoleDetail, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return RoleDetail{}, err
	}
	if input.Permissions != nil && rbac.IsSuperRole(role.Name) {
		return RoleDetail{}, fmt.Errorf("%w: %s must retain full access", httpx.ErrValidation, role.Name)
	}
	if input.Name != nil {
		newName := strings.TrimSpace(*input.Name)
		if newName == "" {
			return RoleDetail{}, fmt.Errorf("%w: role name is required", httpx.ErrValidation)
		}
		if err := s.repo.RenameRole(ctx, id, newName); err != nil {
			return RoleDetail{}, err
		}
	}
	if input.Permissions != nil {
		if err := s.repo.ReplacePermissions(ctx, id, dedupe(input.Permissions)); err != nil {
			return RoleDetail{}, err
		}
	}
	return s.repo.GetRole(ctx, id)
}

// Delete removes a role after reassigning its principals to a fallback
// role. The default role and the protected super-role cannot be deleted.
// It returns the fallback role id used.
func (s *Service) Delete(ctx context.Context, id int64) (int64, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return 0, err
	}
	if role.IsDefault {
		return 0, fmt.Errorf("%w: cannot delete the default role", httpx.ErrValidation)
	}
	if rbac.IsSuperRole(role.Name) {
		return 0, fmt.Errorf("%w: cannot delete the protected role", httpx.ErrValidation)
	}
	return s.repo.DeleteRoleReassign(ctx, id)
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
