package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/toolgate/internal/gate/domain"
	"github.com/aussiebroadwan/toolgate/internal/gate/session"
	"github.com/aussiebroadwan/toolgate/pkg/gatesdk"
	"github.com/aussiebroadwan/toolgate/pkg/httpx"
)

type ToolsHandler struct {
	Controller *session.Controller
}

// HandleList handles GET /v1/tools
//
//	@Summary		List tools
//	@Description	The registry in navigation order with the decision for the signed-in user. Decisions are omitted when nobody is signed in.
//	@Tags			Tools
//	@Produce		json
//	@Success		200	{object}	gatesdk.ToolListResponse
//	@Router			/v1/tools [get].
func (h *ToolsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tools := domain.Tools()
	resp := gatesdk.ToolListResponse{Tools: make([]gatesdk.ToolResponse, 0, len(tools))}

	for _, info := range tools {
		item := gatesdk.ToolResponse{ID: string(info.ID), Label: info.Label}
		if d, err := h.Controller.CanRenderTool(info.ID); err == nil {
			item.Decision = string(d)
		}
		resp.Tools = append(resp.Tools, item)
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleDecision handles GET /v1/tools/{tool}/decision
//
//	@Summary	Render decision for one tool
//	@Tags		Tools
//	@Produce	json
//	@Param		tool	path		string	true	"tool id"
//	@Success	200		{object}	gatesdk.DecisionResponse
//	@Failure	400		{object}	gatesdk.ErrorResponse	"unknown_tool"
//	@Failure	401		{object}	gatesdk.ErrorResponse	"no_session"
//	@Router		/v1/tools/{tool}/decision [get].
func (h *ToolsHandler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	tool := domain.Tool(r.PathValue("tool"))

	d, err := h.Controller.CanRenderTool(tool)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, gatesdk.DecisionResponse{
		Tool:     string(tool),
		Decision: string(d),
	})
}

var errNotAdmin = errors.New("admin access required")

// RequireAdmin lets a request through only when the signed-in user is an
// approved admin.
func RequireAdmin(c *session.Controller) httpx.Middleware {
	return httpx.Guard(
		func(r *http.Request) error {
			d, err := c.CanRenderTool(domain.ToolAdminPanel)
			if err != nil {
				return err
			}
			u, _ := c.CurrentUser()
			if !d.Allowed() || !u.IsAdmin() {
				return errNotAdmin
			}
			return nil
		},
		func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, errNotAdmin) {
				gatesdk.ErrAccessDenied.WriteError(w)
				return
			}
			writeError(w, r, err)
		},
	)
}
