// Package docs holds the OpenAPI description served under /swagger.
// Regenerate with `swag init -g cmd/portal/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/login": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["text/html"],
                "tags": ["session"],
                "summary": "Sign in",
                "parameters": [
                    {"type": "string", "description": "Email", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData", "required": true},
                    {"type": "string", "description": "Local path to return to", "name": "next", "in": "formData"}
                ],
                "responses": {
                    "303": {"description": "See Other"},
                    "401": {"description": "login page with a notification", "schema": {"type": "string"}},
                    "422": {"description": "login page with a notification", "schema": {"type": "string"}}
                }
            }
        },
        "/logout": {
            "post": {
                "tags": ["session"],
                "summary": "Sign out",
                "responses": {"303": {"description": "See Other"}}
            }
        },
        "/api/session": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Current session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/{role}/dashboard/stream": {
            "get": {
                "produces": ["text/event-stream"],
                "tags": ["dashboard"],
                "summary": "Live dashboard cards",
                "parameters": [
                    {"type": "string", "description": "customer, agent or admin", "name": "role", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/agent/claims/{id}/decision": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["claims"],
                "summary": "Decide a claim",
                "parameters": [
                    {"type": "string", "description": "Claim id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "APPROVED or REJECTED", "name": "status", "in": "formData", "required": true},
                    {"type": "string", "description": "Note for the customer", "name": "note", "in": "formData"}
                ],
                "responses": {
                    "303": {"description": "See Other"},
                    "422": {"description": "claims queue with a notification", "schema": {"type": "string"}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.readinessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.sessionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "role": {"type": "string"},
                "email": {"type": "string"},
                "phonenumber": {"type": "string"},
                "expires_at": {"type": "string"},
                "dashboard": {"type": "string"}
            }
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "handler.dependencyStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "handler.readinessResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "dependencies": {
                    "type": "object",
                    "additionalProperties": {"$ref": "#/definitions/handler.dependencyStatus"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "InsureLine Portal",
	Description:      "Role-gated portal for customers, agents and administrators.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
