// Package authz decides whether a user may render a tool. It is pure: the
// decision depends only on the user record and the tool id.
package authz

import "github.com/aussiebroadwan/toolgate/internal/gate/domain"

type Decision string

const (
	DeniedUnapproved   Decision = "denied_unapproved"
	DeniedNoPermission Decision = "denied_no_permission"
	Allowed            Decision = "allowed"
)

func (d Decision) Allowed() bool { return d == Allowed }

// Evaluate applies the rules in order; the first match wins.
func Evaluate(user domain.User, tool domain.Tool) Decision {
	switch {
	case !user.IsApproved:
		return DeniedUnapproved
	case user.IsAdmin():
		return Allowed
	case tool == domain.ToolAdminPanel:
		// never grantable to the user role, even if listed
		return DeniedNoPermission
	case tool.Valid() && user.HasTool(tool):
		return Allowed
	default:
		return DeniedNoPermission
	}
}
