package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/toolgate/internal/gate/service"
	"github.com/aussiebroadwan/toolgate/internal/gate/session"
	"github.com/aussiebroadwan/toolgate/pkg/gatesdk"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

// errorMap is checked in order; the first sentinel err matches decides the
// response.
var errorMap = []struct {
	err  error
	resp *gatesdk.APIError
}{
	{service.ErrDuplicateAccount, gatesdk.ErrDuplicateAccount},
	{service.ErrInvalidCredentials, gatesdk.ErrInvalidCredentials},
	{service.ErrInvalidExternalToken, gatesdk.ErrInvalidExternalToken},
	{service.ErrStorageUnavailable, gatesdk.ErrStorageUnavailable},
	{session.ErrOperationInProgress, gatesdk.ErrOperationInProgress},
	{service.ErrUnknownTool, gatesdk.ErrUnknownTool},
	{service.ErrUserNotFound, gatesdk.ErrUserNotFound},
	{service.ErrProtectedAccount, gatesdk.ErrProtectedAccount},
	{session.ErrNoSession, gatesdk.ErrNoSession},
}

// writeError maps a service or controller error to its API error.
// Unrecognised errors are logged and reported as a server error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMap {
		if errors.Is(err, m.err) {
			if m.resp.StatusCode >= http.StatusInternalServerError {
				slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
			}
			m.resp.WriteError(w)
			return
		}
	}

	slogx.FromContext(r.Context()).Error("unhandled error", slog.Any("error", err))
	gatesdk.ErrServerError.WriteError(w)
}
