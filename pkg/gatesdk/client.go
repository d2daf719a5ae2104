package gatesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a toolgate server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Signup creates an account and signs it in.
func (c *Client) Signup(ctx context.Context, email, password string) (*SessionResponse, error) {
	var out SessionResponse
	err := c.call(ctx, http.MethodPost, "/v1/auth/signup",
		CredentialsRequest{Email: email, Password: password}, &out, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*SessionResponse, error) {
	var out SessionResponse
	err := c.call(ctx, http.MethodPost, "/v1/auth/login",
		CredentialsRequest{Email: email, Password: password}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LoginWithCredential signs in with an identity provider ID token.
func (c *Client) LoginWithCredential(ctx context.Context, credential string) (*SessionResponse, error) {
	var out SessionResponse
	err := c.call(ctx, http.MethodPost, "/v1/auth/external",
		ExternalLoginRequest{Credential: credential}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/v1/auth/logout", nil, nil, http.StatusNoContent)
}

// Session returns the current view.
func (c *Client) Session(ctx context.Context) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.call(ctx, http.MethodGet, "/v1/session", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SelectTool(ctx context.Context, tool string) (*SessionResponse, error) {
	var out SessionResponse
	err := c.call(ctx, http.MethodPut, "/v1/session/tool",
		SelectToolRequest{Tool: tool}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Tools lists the registry with the decision for the signed-in user.
func (c *Client) Tools(ctx context.Context) (*ToolListResponse, error) {
	var out ToolListResponse
	if err := c.call(ctx, http.MethodGet, "/v1/tools", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Decision(ctx context.Context, tool string) (*DecisionResponse, error) {
	var out DecisionResponse
	path := "/v1/tools/" + url.PathEscape(tool) + "/decision"
	if err := c.call(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers requires the signed-in user to be an admin.
func (c *Client) ListUsers(ctx context.Context) (*UserListResponse, error) {
	var out UserListResponse
	if err := c.call(ctx, http.MethodGet, "/v1/admin/users", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetApproval(ctx context.Context, email string, approved bool) (*UserResponse, error) {
	var out UserResponse
	path := "/v1/admin/users/" + url.PathEscape(email) + "/approval"
	if err := c.call(ctx, http.MethodPut, path, ApprovalRequest{Approved: approved}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetTools(ctx context.Context, email string, tools []string) (*UserResponse, error) {
	var out UserResponse
	path := "/v1/admin/users/" + url.PathEscape(email) + "/tools"
	if err := c.call(ctx, http.MethodPut, path, ToolGrantRequest{Tools: tools}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLiveness checks if the service is alive.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.call(ctx, http.MethodGet, "/livez", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReadiness checks if the service is ready.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.call(ctx, http.MethodGet, "/readyz", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// call sends in as JSON (when non-nil) and decodes the response into out
// (when non-nil), returning an *APIError if the status is not expected.
func (c *Client) call(ctx context.Context, method, path string, in, out any, expected int) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expected {
		if err := parseErrorResponse(resp, raw); err != nil {
			return err
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
