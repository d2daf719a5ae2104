package gatesdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/toolgate/pkg/httpx"
)

const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeDuplicateAccount     = "duplicate_account"
	ErrorCodeInvalidCredentials   = "invalid_credentials"
	ErrorCodeInvalidExternalToken = "invalid_external_token"
	ErrorCodeStorageUnavailable   = "storage_unavailable"
	ErrorCodeOperationInProgress  = "operation_in_progress"
	ErrorCodeUnknownTool          = "unknown_tool"
	ErrorCodeUserNotFound         = "user_not_found"
	ErrorCodeProtectedAccount     = "protected_account"
	ErrorCodeNoSession            = "no_session"
	ErrorCodeAccessDenied         = "access_denied"
	ErrorCodeExternalUnavailable  = "external_identity_unavailable"
	ErrorCodeServerError          = "server_error"
)

// APIError is the error body returned by every failing endpoint. It is used
// by handlers to write responses and by Client to report them.
type APIError struct {
	StatusCode int `json:"-"`

	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as a JSON error response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

// Is matches on Code so callers can compare against the predefined errors
// with errors.Is regardless of the description text.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Description: description}
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required fields",
	}

	ErrDuplicateAccount = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeDuplicateAccount,
		Description: "an account with this email already exists",
	}

	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid email or password",
	}

	ErrInvalidExternalToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidExternalToken,
		Description: "the identity provider credential could not be verified",
	}

	ErrStorageUnavailable = &APIError{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeStorageUnavailable,
		Description: "credential store unavailable",
	}

	ErrOperationInProgress = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeOperationInProgress,
		Description: "another sign-in or sign-out is in progress",
	}

	ErrUnknownTool = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeUnknownTool,
		Description: "tool is not in the registry",
	}

	ErrUserNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeUserNotFound,
		Description: "no account with this email",
	}

	ErrProtectedAccount = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeProtectedAccount,
		Description: "the bootstrap admin cannot be unapproved",
	}

	ErrNoSession = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeNoSession,
		Description: "no user is signed in",
	}

	ErrAccessDenied = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeAccessDenied,
		Description: "admin access required",
	}

	ErrExternalUnavailable = &APIError{
		StatusCode:  http.StatusNotImplemented,
		Code:        ErrorCodeExternalUnavailable,
		Description: "external sign-in is not configured",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
