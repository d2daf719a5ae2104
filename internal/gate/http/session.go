package http

import (
	"net/http"

	"github.com/aussiebroadwan/toolgate/internal/gate/domain"
	"github.com/aussiebroadwan/toolgate/internal/gate/session"
	"github.com/aussiebroadwan/toolgate/pkg/gatesdk"
	"github.com/aussiebroadwan/toolgate/pkg/httpx"
)

type SessionHandler struct {
	Controller *session.Controller
}

// HandleGet handles GET /v1/session
//
//	@Summary		Current session
//	@Description	The signed-in user, the active tool and the view to render.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	gatesdk.SessionResponse
//	@Router			/v1/session [get].
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(h.Controller.View()))
}

// HandleSelectTool handles PUT /v1/session/tool
//
//	@Summary	Select the active tool
//	@Tags		Session
//	@Accept		json
//	@Produce	json
//	@Param		request	body		gatesdk.SelectToolRequest	true	"tool id"
//	@Success	200		{object}	gatesdk.SessionResponse
//	@Failure	400		{object}	gatesdk.ErrorResponse	"unknown_tool"
//	@Router		/v1/session/tool [put].
func (h *SessionHandler) HandleSelectTool(w http.ResponseWriter, r *http.Request) {
	var req gatesdk.SelectToolRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	v, err := h.Controller.SelectTool(domain.Tool(req.Tool))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(v))
}
