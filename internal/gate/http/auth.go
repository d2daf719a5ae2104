package http

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gate/oauth"
	"github.com/aussiebroadwan/toolgate/internal/gate/session"
	"github.com/aussiebroadwan/toolgate/pkg/cryptox"
	"github.com/aussiebroadwan/toolgate/pkg/gatesdk"
	"github.com/aussiebroadwan/toolgate/pkg/httpx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

const (
	stateCookieName = "toolgate_oauth_state"
	stateCookiePath = "/v1/auth/google"
	stateCookieTTL  = 10 * time.Minute
)

// AuthHandler serves sign-up, sign-in and sign-out.
type AuthHandler struct {
	Controller *session.Controller
	Google     *oauth.GoogleProvider // nil when Google sign-in is not configured
}

// HandleSignup handles POST /v1/auth/signup
//
//	@Summary		Sign up
//	@Description	Creates a pending account and signs it in. An admin must approve it before any tool renders.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gatesdk.CredentialsRequest	true	"email and password"
//	@Success		201		{object}	gatesdk.SessionResponse
//	@Failure		400		{object}	gatesdk.ErrorResponse
//	@Failure		401		{object}	gatesdk.ErrorResponse	"blank email or password"
//	@Failure		409		{object}	gatesdk.ErrorResponse	"duplicate_account or operation_in_progress"
//	@Failure		503		{object}	gatesdk.ErrorResponse
//	@Router			/v1/auth/signup [post].
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req gatesdk.CredentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	v, err := h.Controller.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toSessionResponse(v))
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Sign in with email and password
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gatesdk.CredentialsRequest	true	"email and password"
//	@Success		200		{object}	gatesdk.SessionResponse
//	@Failure		400		{object}	gatesdk.ErrorResponse
//	@Failure		401		{object}	gatesdk.ErrorResponse	"invalid_credentials"
//	@Failure		409		{object}	gatesdk.ErrorResponse	"operation_in_progress"
//	@Failure		503		{object}	gatesdk.ErrorResponse
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req gatesdk.CredentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	v, err := h.Controller.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(v))
}

// HandleExternal handles POST /v1/auth/external
//
//	@Summary		Sign in with an identity provider credential
//	@Description	Verifies a Google ID token. First sign-in creates a pending account.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gatesdk.ExternalLoginRequest	true	"ID token"
//	@Success		200		{object}	gatesdk.SessionResponse
//	@Failure		400		{object}	gatesdk.ErrorResponse
//	@Failure		401		{object}	gatesdk.ErrorResponse	"invalid_external_token"
//	@Failure		409		{object}	gatesdk.ErrorResponse	"operation_in_progress"
//	@Failure		503		{object}	gatesdk.ErrorResponse
//	@Router			/v1/auth/external [post].
func (h *AuthHandler) HandleExternal(w http.ResponseWriter, r *http.Request) {
	var req gatesdk.ExternalLoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	v, err := h.Controller.LoginWithExternalIdentity(r.Context(), req.Credential)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(v))
}

// HandleLogout handles POST /v1/auth/logout
//
//	@Summary	Sign out
//	@Tags		Auth
//	@Success	204
//	@Failure	409	{object}	gatesdk.ErrorResponse	"operation_in_progress"
//	@Failure	503	{object}	gatesdk.ErrorResponse
//	@Router		/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Controller.Logout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleGoogleStart handles GET /v1/auth/google/start
//
//	@Summary	Start Google sign-in
//	@Tags		Auth
//	@Success	302
//	@Failure	501	{object}	gatesdk.ErrorResponse	"Google sign-in not configured"
//	@Router		/v1/auth/google/start [get].
func (h *AuthHandler) HandleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if h.Google == nil {
		gatesdk.ErrExternalUnavailable.WriteError(w)
		return
	}

	state, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     stateCookiePath,
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.NoCache(w)
	http.Redirect(w, r, h.Google.ConsentURL(state), http.StatusFound)
}

// HandleGoogleCallback handles GET /v1/auth/google/callback
//
//	@Summary	Complete Google sign-in
//	@Tags		Auth
//	@Produce	json
//	@Param		state	query		string	true	"state issued by /v1/auth/google/start"
//	@Param		code	query		string	true	"authorization code"
//	@Success	200		{object}	gatesdk.SessionResponse
//	@Failure	400		{object}	gatesdk.ErrorResponse
//	@Failure	401		{object}	gatesdk.ErrorResponse
//	@Failure	501		{object}	gatesdk.ErrorResponse
//	@Router		/v1/auth/google/callback [get].
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	if h.Google == nil {
		gatesdk.ErrExternalUnavailable.WriteError(w)
		return
	}

	// the state cookie is single use
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Path: stateCookiePath, MaxAge: -1})

	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		log.Info("google sign-in cancelled", "error", providerErr)
		gatesdk.NewAPIError(http.StatusUnauthorized, gatesdk.ErrorCodeInvalidExternalToken, "sign-in was cancelled").WriteError(w)
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	state := q.Get("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		gatesdk.NewAPIError(http.StatusBadRequest, gatesdk.ErrorCodeInvalidRequest, "state mismatch").WriteError(w)
		return
	}

	code := q.Get("code")
	if code == "" {
		gatesdk.NewAPIError(http.StatusBadRequest, gatesdk.ErrorCodeInvalidRequest, "missing code").WriteError(w)
		return
	}

	idToken, err := h.Google.ExchangeIDToken(r.Context(), code)
	if err != nil {
		log.Warn("google code exchange failed", "error", err)
		gatesdk.ErrInvalidExternalToken.WriteError(w)
		return
	}

	v, err := h.Controller.LoginWithExternalIdentity(r.Context(), idToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(v))
}
