package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gate/oauth"
	"github.com/aussiebroadwan/toolgate/internal/gate/service"
	"github.com/aussiebroadwan/toolgate/internal/gate/session"
	"github.com/aussiebroadwan/toolgate/internal/gate/store"
	"github.com/aussiebroadwan/toolgate/pkg/httpx"
	"github.com/aussiebroadwan/toolgate/pkg/jwtx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"

	_ "github.com/aussiebroadwan/toolgate/api/gate" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Controller      *session.Controller
	IdentityService *service.IdentityService
	Google          *oauth.GoogleProvider // Optional: nil when Google sign-in is off
	IdentityKeys    *jwtx.KeySet          // Optional: nil when Google sign-in is off
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSession()
	r.registerTools()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Toolgate API
//	@version		0.1.0
//	@description	Single-session front end that gates a catalog of marketing tools behind accounts, roles and admin approval.
//	@description
//	@description	One user is signed in at a time; every decision is computed from that user's stored record.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/toolgate
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Controller: r.Controller, Google: r.Google}

	r.Mux.HandleFunc("POST /v1/auth/signup", h.HandleSignup)
	r.Mux.HandleFunc("POST /v1/auth/login", h.HandleLogin)
	r.Mux.HandleFunc("POST /v1/auth/external", h.HandleExternal)
	r.Mux.HandleFunc("POST /v1/auth/logout", h.HandleLogout)

	// The redirect flow needs client credentials; without them only the
	// credential endpoint is served.
	if r.Google != nil {
		r.Mux.HandleFunc("GET /v1/auth/google/start", h.HandleGoogleStart)
		r.Mux.HandleFunc("GET /v1/auth/google/callback", h.HandleGoogleCallback)
	}
}

func (r *Router) registerSession() {
	h := &SessionHandler{Controller: r.Controller}

	r.Mux.HandleFunc("GET /v1/session", h.HandleGet)
	r.Mux.HandleFunc("PUT /v1/session/tool", h.HandleSelectTool)
}

func (r *Router) registerTools() {
	h := &ToolsHandler{Controller: r.Controller}

	r.Mux.HandleFunc("GET /v1/tools", h.HandleList)
	r.Mux.HandleFunc("GET /v1/tools/{tool}/decision", h.HandleDecision)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{Identity: r.IdentityService, Controller: r.Controller}
	admin := RequireAdmin(r.Controller)

	r.Mux.Handle("GET /v1/admin/users",
		httpx.Chain(http.HandlerFunc(h.HandleList), admin),
	)
	r.Mux.Handle("PUT /v1/admin/users/{email}/approval",
		httpx.Chain(http.HandlerFunc(h.HandleApproval), admin),
	)
	r.Mux.Handle("PUT /v1/admin/users/{email}/tools",
		httpx.Chain(http.HandlerFunc(h.HandleTools), admin),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.IdentityKeys))
}
