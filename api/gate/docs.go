// Package gate registers the Swagger document served at /swagger/. It is
// kept in step with the swag annotations on the HTTP handlers by hand.
package gate

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/toolgate"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/livez": {
            "get": {
                "description": "Liveness probe; always 200 while the process is running",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Health"
                ],
                "summary": "Health Check Endpoint",
                "responses": {
                    "200": {
                        "description": "status, uptime, version",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.HealthResponse"
                        }
                    }
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Readiness probe checking the credential store and, when Google sign-in is enabled, the identity provider keys",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Health"
                ],
                "summary": "Readiness Check Endpoint",
                "responses": {
                    "200": {
                        "description": "status, uptime, version, checks",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.HealthResponse"
                        }
                    },
                    "503": {
                        "description": "status, uptime, version, checks - service not ready",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.HealthResponse"
                        }
                    }
                }
            }
        },
        "/v1/admin/users": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Admin"
                ],
                "summary": "List accounts",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.UserListResponse"
                        }
                    },
                    "401": {
                        "description": "no_session",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "access_denied",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/admin/users/{email}/approval": {
            "put": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Admin"
                ],
                "summary": "Approve or unapprove an account",
                "parameters": [
                    {
                        "type": "string",
                        "description": "account email",
                        "name": "email",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "approval flag",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ApprovalRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.UserResponse"
                        }
                    },
                    "403": {
                        "description": "access_denied",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "user_not_found",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "protected_account",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/admin/users/{email}/tools": {
            "put": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Admin"
                ],
                "summary": "Replace an account's tool grants",
                "parameters": [
                    {
                        "type": "string",
                        "description": "account email",
                        "name": "email",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "tool ids",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ToolGrantRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.UserResponse"
                        }
                    },
                    "400": {
                        "description": "unknown_tool",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "access_denied",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "user_not_found",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/auth/external": {
            "post": {
                "description": "Verifies a Google ID token. First sign-in creates a pending account.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Auth"
                ],
                "summary": "Sign in with an identity provider credential",
                "parameters": [
                    {
                        "description": "request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ExternalLoginRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.SessionResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "invalid_external_token",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "operation_in_progress",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/auth/google/callback": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Auth"
                ],
                "summary": "Complete Google sign-in",
                "parameters": [
                    {
                        "type": "string",
                        "description": "state issued by /v1/auth/google/start",
                        "name": "state",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "authorization code",
                        "name": "code",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.SessionResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "501": {
                        "description": "Not Implemented",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/auth/google/start": {
            "get": {
                "tags": [
                    "Auth"
                ],
                "summary": "Start Google sign-in",
                "responses": {
                    "302": {
                        "description": "Found"
                    },
                    "501": {
                        "description": "Google sign-in not configured",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/auth/login": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Auth"
                ],
                "summary": "Sign in with email and password",
                "parameters": [
                    {
                        "description": "request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/gatesdk.CredentialsRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.SessionResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "invalid_credentials",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "operation_in_progress",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/auth/logout": {
            "post": {
                "tags": [
                    "Auth"
                ],
                "summary": "Sign out",
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "409": {
                        "description": "operation_in_progress",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/auth/signup": {
            "post": {
                "description": "Creates a pending account and signs it in. An admin must approve it before any tool renders.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Auth"
                ],
                "summary": "Sign up",
                "parameters": [
                    {
                        "description": "request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/gatesdk.CredentialsRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.SessionResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "blank email or password",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "duplicate_account or operation_in_progress",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/session": {
            "get": {
                "description": "The signed-in user, the active tool and the view to render.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Session"
                ],
                "summary": "Current session",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.SessionResponse"
                        }
                    }
                }
            }
        },
        "/v1/session/tool": {
            "put": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Session"
                ],
                "summary": "Select the active tool",
                "parameters": [
                    {
                        "description": "tool id",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/gatesdk.SelectToolRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.SessionResponse"
                        }
                    },
                    "400": {
                        "description": "unknown_tool",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/tools": {
            "get": {
                "description": "The registry in navigation order with the decision for the signed-in user. Decisions are omitted when nobody is signed in.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Tools"
                ],
                "summary": "List tools",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ToolListResponse"
                        }
                    }
                }
            }
        },
        "/v1/tools/{tool}/decision": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Tools"
                ],
                "summary": "Render decision for one tool",
                "parameters": [
                    {
                        "type": "string",
                        "description": "tool id",
                        "name": "tool",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.DecisionResponse"
                        }
                    },
                    "400": {
                        "description": "unknown_tool",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "no_session",
                        "schema": {
                            "$ref": "#/definitions/gatesdk.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "gatesdk.ApprovalRequest": {
            "type": "object",
            "properties": {
                "approved": {
                    "type": "boolean"
                }
            }
        },
        "gatesdk.CredentialsRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            }
        },
        "gatesdk.DecisionResponse": {
            "type": "object",
            "properties": {
                "tool": {
                    "type": "string"
                },
                "decision": {
                    "type": "string"
                }
            }
        },
        "gatesdk.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                },
                "error_description": {
                    "type": "string"
                }
            }
        },
        "gatesdk.ExternalLoginRequest": {
            "type": "object",
            "properties": {
                "credential": {
                    "type": "string"
                }
            }
        },
        "gatesdk.HealthChecks": {
            "type": "object",
            "properties": {
                "database": {
                    "type": "string"
                },
                "identity_keys": {
                    "type": "string"
                }
            }
        },
        "gatesdk.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                },
                "uptime": {
                    "type": "string"
                },
                "version": {
                    "type": "string"
                },
                "checks": {
                    "$ref": "#/definitions/gatesdk.HealthChecks"
                }
            }
        },
        "gatesdk.SelectToolRequest": {
            "type": "object",
            "properties": {
                "tool": {
                    "type": "string"
                }
            }
        },
        "gatesdk.SessionResponse": {
            "type": "object",
            "properties": {
                "view": {
                    "type": "string"
                },
                "tool": {
                    "type": "string"
                },
                "user": {
                    "$ref": "#/definitions/gatesdk.UserResponse"
                }
            }
        },
        "gatesdk.ToolGrantRequest": {
            "type": "object",
            "properties": {
                "tools": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "gatesdk.ToolListResponse": {
            "type": "object",
            "properties": {
                "tools": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/gatesdk.ToolResponse"
                    }
                }
            }
        },
        "gatesdk.ToolResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "label": {
                    "type": "string"
                },
                "decision": {
                    "type": "string"
                }
            }
        },
        "gatesdk.UserListResponse": {
            "type": "object",
            "properties": {
                "users": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/gatesdk.UserResponse"
                    }
                }
            }
        },
        "gatesdk.UserResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "picture": {
                    "type": "string"
                },
                "role": {
                    "type": "string"
                },
                "is_approved": {
                    "type": "boolean"
                },
                "approved_tools": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "created_at": {
                    "type": "string"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Toolgate API",
	Description:      "Single-session front end that gates a catalog of marketing tools behind accounts, roles and admin approval.\n\nOne user is signed in at a time; every decision is computed from that user's stored record.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
