package catalog

import "time"

// Entry is one authorizable route in the permission catalog. Identity is the
// code; entries are never deleted, only deactivated, so historical role and
// custom grant rows keep a valid reference.
type Entry struct {
	ID          int64
	Code        string
	Title       string
	Category    string
	ContextType *string
	Route       string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
