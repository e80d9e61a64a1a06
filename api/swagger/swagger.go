package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Diagram Search API",
        "description": "Curriculum diagram search with student and teacher roles",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "SessionCookie": {"type": "apiKey", "in": "header", "name": "Cookie"},
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Authentication", "description": "Registration, login and session"},
        {"name": "Catalog", "description": "Grade, subject and keyword catalog"},
        {"name": "Search", "description": "Diagram image search"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "A dependency is unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a student or teacher",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Username taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Login and start a session",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/logout": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Clear the session cookie",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/index": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Current user and catalog",
                "security": [{"SessionCookie": []}, {"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/get_keywords": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Keywords for a grade and subject",
                "parameters": [
                    {"name": "grade", "in": "query", "type": "string", "required": true},
                    {"name": "subject", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/approve_prompt": {
            "post": {
                "tags": ["Catalog"],
                "summary": "Approve a keyword for a grade and subject",
                "security": [{"SessionCookie": []}, {"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApprovalRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing fields", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Teacher role required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Keyword already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog/export": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Download the catalog",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"SessionCookie": []}, {"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "403": {"description": "Teacher role required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/get_image": {
            "get": {
                "tags": ["Search"],
                "summary": "Diagram for a catalog keyword",
                "security": [{"SessionCookie": []}, {"BearerAuth": []}],
                "parameters": [
                    {"name": "grade", "in": "query", "type": "string", "required": true},
                    {"name": "subject", "in": "query", "type": "string", "required": true},
                    {"name": "prompt", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Keyword not in catalog", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No image found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Search provider failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/get_image_random": {
            "get": {
                "tags": ["Search"],
                "summary": "Random diagram among the top results for a catalog keyword",
                "security": [{"SessionCookie": []}, {"BearerAuth": []}],
                "parameters": [
                    {"name": "grade", "in": "query", "type": "string", "required": true},
                    {"name": "subject", "in": "query", "type": "string", "required": true},
                    {"name": "prompt", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No image found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/get_image_custom": {
            "get": {
                "tags": ["Search"],
                "summary": "Diagram for a free text teacher query",
                "security": [{"SessionCookie": []}, {"BearerAuth": []}],
                "parameters": [
                    {"name": "query", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Teacher role required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["username", "password", "role", "secret_code"],
            "properties": {
                "username": {"type": "string", "minLength": 4},
                "password": {"type": "string", "minLength": 6},
                "role": {"type": "string", "enum": ["student", "teacher"]},
                "secret_code": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "ApprovalRequest": {
            "type": "object",
            "required": ["grade", "subject", "prompt"],
            "properties": {
                "grade": {"type": "string"},
                "subject": {"type": "string"},
                "prompt": {"type": "string"}
            }
        },
        "SearchResult": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "image_url": {"type": "string"},
                "caption": {"type": "string"},
                "query": {"type": "string"},
                "mode": {"type": "string", "enum": ["exact", "random", "custom"]},
                "role": {"type": "string"},
                "teacher_approved": {"type": "boolean"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
