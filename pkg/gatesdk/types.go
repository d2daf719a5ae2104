package gatesdk

import "time"

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Requests
// ============================================================================

// CredentialsRequest is the body of POST /v1/auth/signup and /v1/auth/login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ExternalLoginRequest is the body of POST /v1/auth/external. Credential is
// the ID token handed to the browser by the identity provider.
type ExternalLoginRequest struct {
	Credential string `json:"credential"`
}

// SelectToolRequest is the body of PUT /v1/session/tool.
type SelectToolRequest struct {
	Tool string `json:"tool"`
}

// ApprovalRequest is the body of PUT /v1/admin/users/{email}/approval.
type ApprovalRequest struct {
	Approved bool `json:"approved"`
}

// ToolGrantRequest is the body of PUT /v1/admin/users/{email}/tools. It
// replaces the whole grant set.
type ToolGrantRequest struct {
	Tools []string `json:"tools"`
}

// ============================================================================
// Responses
// ============================================================================

// UserResponse is the public view of an account. The password hash never
// leaves the server.
type UserResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	Picture       string    `json:"picture,omitempty"`
	Role          string    `json:"role"`
	IsApproved    bool      `json:"is_approved"`
	ApprovedTools []string  `json:"approved_tools"`
	CreatedAt     time.Time `json:"created_at"`
}

// Session view states.
const (
	ViewAnonymous       = "anonymous"
	ViewPendingApproval = "pending_approval"
	ViewAuthorized      = "authorized"
	ViewDenied          = "denied"
)

// SessionResponse describes what the front-end should render.
type SessionResponse struct {
	// View is one of the View* constants.
	View string `json:"view"`

	// Tool is the active tool id.
	Tool string `json:"tool"`

	// User is absent when View is anonymous.
	User *UserResponse `json:"user,omitempty"`
}

// Render decisions.
const (
	DecisionAllowed            = "allowed"
	DecisionDeniedUnapproved   = "denied_unapproved"
	DecisionDeniedNoPermission = "denied_no_permission"
)

// ToolResponse is one registry entry with the decision for the signed-in
// user. Decision is empty when nobody is signed in.
type ToolResponse struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Decision string `json:"decision,omitempty"`
}

type ToolListResponse struct {
	Tools []ToolResponse `json:"tools"`
}

// DecisionResponse is returned by GET /v1/tools/{tool}/decision.
type DecisionResponse struct {
	Tool     string `json:"tool"`
	Decision string `json:"decision"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports dependency status on /readyz.
type HealthChecks struct {
	Database string `json:"database"`

	// IdentityKeys is "disabled" when external sign-in is not configured.
	IdentityKeys string `json:"identity_keys"`
}
