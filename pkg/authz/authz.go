// Package authz holds the pure role check used by the routing middleware.
// It knows nothing about gin or tokens, which keeps it trivially testable.
package authz

import (
	"github.com/sdghub/backend/dao/model"
)

type Verdict int

const (
	Allow Verdict = iota
	// DenyUnauthenticated means no identity was presented at all.
	DenyUnauthenticated
	// DenyForbidden means the identity is valid but the role is short.
	DenyForbidden
)

// Authorize decides whether a caller holding role may perform an operation
// restricted to the given roles. Admin passes every check; an empty
// requirement or an explicit RolePublic means the operation is open.
func Authorize(role model.Role, required ...model.Role) Verdict {
	if len(required) == 0 {
		return Allow
	}
	for _, r := range required {
		if r == model.RolePublic {
			return Allow
		}
	}
	if role == "" || role == model.RolePublic {
		return DenyUnauthenticated
	}
	if role == model.RoleAdmin {
		return Allow
	}
	for _, r := range required {
		if role == r {
			return Allow
		}
	}
	return DenyForbidden
}
