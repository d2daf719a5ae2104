package http

import (
	"github.com/aussiebroadwan/toolgate/internal/gate/domain"
	"github.com/aussiebroadwan/toolgate/internal/gate/session"
	"github.com/aussiebroadwan/toolgate/pkg/gatesdk"
)

func toUserResponse(u domain.User) gatesdk.UserResponse {
	return gatesdk.UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Picture:       u.Picture,
		Role:          string(u.Role),
		IsApproved:    u.IsApproved,
		ApprovedTools: domain.ToolStrings(u.ApprovedTools),
		CreatedAt:     u.CreatedAt,
	}
}

func toSessionResponse(v session.View) gatesdk.SessionResponse {
	resp := gatesdk.SessionResponse{
		View: string(v.State),
		Tool: string(v.Tool),
	}
	if v.User != nil {
		u := toUserResponse(*v.User)
		resp.User = &u
	}
	return resp
}
