package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sdghub/backend/dao/model"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		role     model.Role
		required []model.Role
		want     Verdict
	}{
		{"no requirement is open", model.RolePublic, nil, Allow},
		{"explicit public is open", model.RolePublic, []model.Role{model.RolePublic}, Allow},
		{"public mixed with others is still open", model.RolePublic, []model.Role{model.RoleAdmin, model.RolePublic}, Allow},
		{"anonymous against user op", model.RolePublic, []model.Role{model.RoleUser}, DenyUnauthenticated},
		{"empty role against user op", "", []model.Role{model.RoleUser}, DenyUnauthenticated},
		{"user matches user op", model.RoleUser, []model.Role{model.RoleUser}, Allow},
		{"user against approver op", model.RoleUser, []model.Role{model.RoleApprover}, DenyForbidden},
		{"user against admin op", model.RoleUser, []model.Role{model.RoleAdmin}, DenyForbidden},
		{"approver matches approver op", model.RoleApprover, []model.Role{model.RoleApprover}, Allow},
		{"approver against admin op", model.RoleApprover, []model.Role{model.RoleAdmin}, DenyForbidden},
		{"admin passes user op", model.RoleAdmin, []model.Role{model.RoleUser}, Allow},
		{"admin passes approver op", model.RoleAdmin, []model.Role{model.RoleApprover}, Allow},
		{"admin passes admin op", model.RoleAdmin, []model.Role{model.RoleAdmin}, Allow},
		{"one of several roles suffices", model.RoleApprover, []model.Role{model.RoleUser, model.RoleApprover}, Allow},
		{"unknown role is forbidden", model.Role("intern"), []model.Role{model.RoleUser}, DenyForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.role, tt.required...))
		})
	}
}
