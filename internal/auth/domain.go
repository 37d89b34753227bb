package auth

import "time"

// Principal identifies an authenticated account together with the role and
// operating context the resolver needs for a decision.
type Principal struct {
	ID          int64
	Username    string
	Email       string
	RoleID      int64
	RoleName    string
	ContextType *string
	ContextID   *int64
}

// Summary returns the redacted principal view safe for API responses. It
// carries no credential material.
func (p Principal) Summary() PrincipalSummary {
	return PrincipalSummary{
		ID:          p.ID,
		Username:    p.Username,
		Email:       p.Email,
		RoleID:      p.RoleID,
		RoleName:    p.RoleName,
		ContextType: p.ContextType,
		ContextID:   p.ContextID,
	}
}

// PrincipalSummary is the wire representation of a principal.
type PrincipalSummary struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	RoleID      int64   `json:"roleId"`
	RoleName    string  `json:"roleName"`
	ContextType *string `json:"contextType"`
	ContextID   *int64  `json:"contextId"`
}

// Account is a principal record including the stored password hash. It never
// leaves the auth package.
type Account struct {
	Principal
	PasswordHash string
	LastLoginAt  *time.Time
}

// SessionCredential is one active session row. Only the hash of the issued
// token is persisted; a principal holds at most one row at any time.
type SessionCredential struct {
	ID          string
	TokenHash   string
	PrincipalID int64
	CreatedAt   time.Time
	LastUsedAt  time.Time
	ExpiresAt   time.Time
}
