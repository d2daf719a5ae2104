package http

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/toolgate/internal/gate/domain"
	"github.com/aussiebroadwan/toolgate/internal/gate/service"
	"github.com/aussiebroadwan/toolgate/internal/gate/session"
	"github.com/aussiebroadwan/toolgate/pkg/gatesdk"
	"github.com/aussiebroadwan/toolgate/pkg/httpx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

// AdminHandler backs the admin panel. Routes are wrapped in RequireAdmin.
type AdminHandler struct {
	Identity   *service.IdentityService
	Controller *session.Controller
}

// HandleList handles GET /v1/admin/users
//
//	@Summary	List accounts
//	@Tags		Admin
//	@Produce	json
//	@Success	200	{object}	gatesdk.UserListResponse
//	@Failure	401	{object}	gatesdk.ErrorResponse	"no_session"
//	@Failure	403	{object}	gatesdk.ErrorResponse	"access_denied"
//	@Failure	503	{object}	gatesdk.ErrorResponse
//	@Router		/v1/admin/users [get].
func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.Identity.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := gatesdk.UserListResponse{Users: make([]gatesdk.UserResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, toUserResponse(u))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleApproval handles PUT /v1/admin/users/{email}/approval
//
//	@Summary	Approve or unapprove an account
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Param		email	path		string					true	"account email"
//	@Param		request	body		gatesdk.ApprovalRequest	true	"approval flag"
//	@Success	200		{object}	gatesdk.UserResponse
//	@Failure	403		{object}	gatesdk.ErrorResponse	"access_denied"
//	@Failure	404		{object}	gatesdk.ErrorResponse	"user_not_found"
//	@Failure	409		{object}	gatesdk.ErrorResponse	"protected_account"
//	@Router		/v1/admin/users/{email}/approval [put].
func (h *AdminHandler) HandleApproval(w http.ResponseWriter, r *http.Request) {
	var req gatesdk.ApprovalRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	u, err := h.Identity.SetApproval(r.Context(), r.PathValue("email"), req.Approved)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.refreshIfSelf(r, u)
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// HandleTools handles PUT /v1/admin/users/{email}/tools
//
//	@Summary	Replace an account's tool grants
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Param		email	path		string						true	"account email"
//	@Param		request	body		gatesdk.ToolGrantRequest	true	"tool ids"
//	@Success	200		{object}	gatesdk.UserResponse
//	@Failure	400		{object}	gatesdk.ErrorResponse	"unknown_tool"
//	@Failure	403		{object}	gatesdk.ErrorResponse	"access_denied"
//	@Failure	404		{object}	gatesdk.ErrorResponse	"user_not_found"
//	@Router		/v1/admin/users/{email}/tools [put].
func (h *AdminHandler) HandleTools(w http.ResponseWriter, r *http.Request) {
	var req gatesdk.ToolGrantRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	u, err := h.Identity.SetApprovedTools(r.Context(), r.PathValue("email"), req.Tools)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.refreshIfSelf(r, u)
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// refreshIfSelf reloads the controller when an admin edits their own record.
func (h *AdminHandler) refreshIfSelf(r *http.Request, edited domain.User) {
	current, ok := h.Controller.CurrentUser()
	if !ok || current.ID != edited.ID {
		return
	}
	if _, err := h.Controller.Refresh(r.Context()); err != nil {
		slogx.FromContext(r.Context()).Warn("failed to refresh session after admin edit",
			slog.Any("error", err),
		)
	}
}
