package authz

import (
	"fmt"
	"testing"

	"github.com/aussiebroadwan/toolgate/internal/gate/domain"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_Exhaustive(t *testing.T) {
	t.Parallel()

	grants := map[string][]domain.Tool{
		"none":        nil,
		"serp":        {domain.ToolSERPPreview},
		"admin panel": {domain.ToolAdminPanel, domain.ToolSERPPreview},
	}

	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleUser} {
		for _, approved := range []bool{false, true} {
			for grantName, tools := range grants {
				for _, info := range domain.Tools() {
					name := fmt.Sprintf("%s/approved=%t/%s/%s", role, approved, grantName, info.ID)
					user := domain.User{Role: role, IsApproved: approved, ApprovedTools: tools}

					t.Run(name, func(t *testing.T) {
						got := Evaluate(user, info.ID)

						var want Decision
						switch {
						case !approved:
							want = DeniedUnapproved
						case role == domain.RoleAdmin:
							want = Allowed
						case info.ID == domain.ToolAdminPanel:
							want = DeniedNoPermission
						case user.HasTool(info.ID):
							want = Allowed
						default:
							want = DeniedNoPermission
						}
						require.Equal(t, want, got)
					})
				}
			}
		}
	}
}

func TestEvaluate_Examples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		user domain.User
		tool domain.Tool
		want Decision
	}{
		{
			name: "unapproved admin is still blocked",
			user: domain.User{Role: domain.RoleAdmin},
			tool: domain.ToolAdminPanel,
			want: DeniedUnapproved,
		},
		{
			name: "admin ignores tool grants",
			user: domain.User{Role: domain.RoleAdmin, IsApproved: true},
			tool: domain.ToolContentBrief,
			want: Allowed,
		},
		{
			name: "user listing admin panel is denied",
			user: domain.User{Role: domain.RoleUser, IsApproved: true, ApprovedTools: []domain.Tool{domain.ToolAdminPanel}},
			tool: domain.ToolAdminPanel,
			want: DeniedNoPermission,
		},
		{
			name: "user with grant",
			user: domain.User{Role: domain.RoleUser, IsApproved: true, ApprovedTools: []domain.Tool{domain.ToolKeywordDensity}},
			tool: domain.ToolKeywordDensity,
			want: Allowed,
		},
		{
			name: "unregistered id listed in grants",
			user: domain.User{Role: domain.RoleUser, IsApproved: true, ApprovedTools: []domain.Tool{"RETIRED_TOOL"}},
			tool: "RETIRED_TOOL",
			want: DeniedNoPermission,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Evaluate(tc.user, tc.tool))
		})
	}
}
