package users

import "time"

// PrincipalAccount is the administration view of a principal: its role and
// the custom permission codes granted beyond that role.
type PrincipalAccount struct {
	ID                int64
	Username          string
	Email             string
	RoleID            int64
	RoleName          string
	ContextType       *string
	ContextID         *int64
	CustomPermissions []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
