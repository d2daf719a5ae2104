package gatesdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_ErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/signup":
			ErrDuplicateAccount.WriteError(w)
		case "/v1/auth/login":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	ctx := context.Background()

	t.Run("typed error", func(t *testing.T) {
		_, err := c.Signup(ctx, "a@example.com", "pw")
		require.ErrorIs(t, err, ErrDuplicateAccount)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusConflict, apiErr.StatusCode)
	})

	t.Run("untyped error", func(t *testing.T) {
		_, err := c.Login(ctx, "a@example.com", "pw")

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, ErrorCodeServerError, apiErr.Code)
		require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	})
}

func TestClient_SelectTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/v1/session/tool", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req SelectToolRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SessionResponse{View: ViewAuthorized, Tool: req.Tool})
	}))
	defer srv.Close()

	sess, err := NewClient(srv.URL).SelectTool(context.Background(), "SERP_PREVIEW")
	require.NoError(t, err)
	require.Equal(t, ViewAuthorized, sess.View)
	require.Equal(t, "SERP_PREVIEW", sess.Tool)
}

func TestClient_Logout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewClient(srv.URL).Logout(context.Background()))
}
