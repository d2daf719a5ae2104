/*
Package gatesdk provides the wire types and a small client for the toolgate
HTTP API.

# Overview

toolgate holds a single signed-in user per process. Every command acts on that
session, so the client carries no credentials of its own:

	client := gatesdk.NewClient("http://localhost:8080")

	// Sign up a new account; it starts pending approval.
	sess, err := client.Signup(ctx, "alice@example.com", "s3cret")

	// Later, sign in and choose a tool.
	sess, err = client.Login(ctx, "alice@example.com", "s3cret")
	sess, err = client.SelectTool(ctx, "KEYWORD_DENSITY")

	// Ask whether the active user may render a tool.
	d, err := client.Decision(ctx, "KEYWORD_DENSITY")

# Errors

Failed requests return an *APIError carrying the HTTP status and a stable
code such as "duplicate_account" or "invalid_credentials":

	var apiErr *gatesdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == gatesdk.ErrorCodeDuplicateAccount {
		// ...
	}

Server handlers use the predefined errors in this package to write the same
format, so both sides agree on codes.
*/
package gatesdk
