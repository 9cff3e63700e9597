package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Trainer Discovery API",
        "description": "Scan-ahead trainer discovery with hydrated, client-filtered results",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Discovery", "description": "Discovery sessions, filters and infinite scroll"}
    ],
    "securityDefinitions": {
        "DiscoverySession": {"type": "apiKey", "in": "header", "name": "X-Discovery-Session"}
    },
    "paths": {
        "/discovery/cities": {
            "get": {
                "tags": ["Discovery"],
                "summary": "List selectable cities with their aliases",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/discovery/sessions": {
            "post": {
                "tags": ["Discovery"],
                "summary": "Open a discovery session and run the first load",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/DiscoveryFilterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/discovery/sessions/{id}": {
            "get": {
                "tags": ["Discovery"],
                "summary": "Read the current session state",
                "security": [{"DiscoverySession": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Discovery"],
                "summary": "Close the session",
                "security": [{"DiscoverySession": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Closed"}
                }
            }
        },
        "/discovery/sessions/{id}/filters": {
            "put": {
                "tags": ["Discovery"],
                "summary": "Replace the filter and reset the session",
                "security": [{"DiscoverySession": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/DiscoveryFilterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/discovery/sessions/{id}/more": {
            "post": {
                "tags": ["Discovery"],
                "summary": "Scroll sentinel became visible; load the next pages",
                "security": [{"DiscoverySession": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/discovery/sessions/{id}/error": {
            "delete": {
                "tags": ["Discovery"],
                "summary": "Dismiss the error banner",
                "security": [{"DiscoverySession": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "DiscoveryFilterRequest": {
            "type": "object",
            "properties": {
                "searchTerm": {"type": "string"},
                "sortKey": {"type": "string", "enum": ["newest", "name", "experience", "rating"]},
                "category": {"type": "string"},
                "onlineOnly": {"type": "boolean"},
                "excludeVacationing": {"type": "boolean"},
                "dateFilter": {"type": "string", "enum": ["", "today", "tomorrow", "week"]},
                "city": {"type": "string"}
            }
        },
        "SessionHandle": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "expires_at": {"type": "string", "format": "date-time"}
            }
        },
        "TrainerView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "full_name": {"type": "string"},
                "specialty": {"type": "string"},
                "location": {"type": "string"},
                "is_online": {"type": "boolean"},
                "experience_years": {"type": "integer"},
                "created_at": {"type": "string", "format": "date-time"},
                "avatar_url": {"type": "string"},
                "verified": {"type": "boolean"},
                "rating": {"type": "number"},
                "review_count": {"type": "integer"},
                "display_price": {"type": "number"},
                "currency": {"type": "string"},
                "typical_duration_minutes": {"type": "integer"},
                "on_vacation": {"type": "boolean"}
            }
        },
        "DiscoverySessionResponse": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "token": {"type": "integer"},
                "filter": {"$ref": "#/definitions/DiscoveryFilterRequest"},
                "trainers": {"type": "array", "items": {"$ref": "#/definitions/TrainerView"}},
                "more": {"type": "boolean"},
                "loading": {"type": "boolean"},
                "error": {"type": "string"},
                "handle": {"$ref": "#/definitions/SessionHandle"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page_size": {"type": "integer"},
                "remote_offset": {"type": "integer"},
                "loaded": {"type": "integer"},
                "has_more": {"type": "boolean"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
