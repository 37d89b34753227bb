package roles

import "time"

// Role is a named grouping of permission grants.
type Role struct {
	ID          int64
	Name        string
	IsDefault   bool
	ContextType *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoleDetail is a role with its resolved permission codes and the number of
// principals currently assigned to it.
type RoleDetail struct {
	Role
	Permissions   []string
	AssignedCount int64
}
