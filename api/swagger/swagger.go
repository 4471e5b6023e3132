package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Passport Office API",
        "description": "Search, paging and maintenance of civil person records",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Persons", "description": "Civil records held by the passport office"}
    ],
    "paths": {
        "/persons": {
            "get": {
                "tags": ["Persons"],
                "summary": "List all persons",
                "parameters": [
                    {"$ref": "#/parameters/sort"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PersonListEnvelope"}}
                }
            },
            "post": {
                "tags": ["Persons"],
                "summary": "Create a person",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PersonRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Persons"],
                "summary": "Delete every person",
                "responses": {
                    "204": {"description": "Removed"}
                }
            }
        },
        "/persons/search": {
            "get": {
                "tags": ["Persons"],
                "summary": "Search persons by prefix and birth date",
                "description": "Text filters match case-sensitive prefixes. Unset filters are ignored. page and pageSize select one page of the result.",
                "parameters": [
                    {"name": "firstName", "in": "query", "type": "string"},
                    {"name": "lastName", "in": "query", "type": "string"},
                    {"name": "middleName", "in": "query", "type": "string"},
                    {"name": "passportSeries", "in": "query", "type": "string"},
                    {"name": "passportNumber", "in": "query", "type": "string"},
                    {"name": "birthDate", "in": "query", "type": "string", "format": "date"},
                    {"$ref": "#/parameters/sort"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PersonListEnvelope"}},
                    "400": {"description": "Malformed criteria", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/persons/export": {
            "get": {
                "tags": ["Persons"],
                "summary": "Export matching persons",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "lastName", "in": "query", "type": "string"},
                    {"$ref": "#/parameters/sort"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/persons/batch": {
            "post": {
                "tags": ["Persons"],
                "summary": "Apply a change set atomically",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PersonBatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown id in update or delete", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/persons/{id}": {
            "get": {
                "tags": ["Persons"],
                "summary": "Get a person",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Persons"],
                "summary": "Replace a person",
                "parameters": [
                    {"$ref": "#/parameters/id"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PersonRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Persons"],
                "summary": "Delete a person",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "sort": {"name": "sort", "in": "query", "type": "string", "enum": ["id", "full"]},
        "id": {"name": "id", "in": "path", "required": true, "type": "integer", "format": "int64"}
    },
    "definitions": {
        "Person": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "format": "int64"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "middle_name": {"type": "string"},
                "birth_date": {"type": "string", "format": "date-time"},
                "passport_series": {"type": "string"},
                "passport_number": {"type": "string"}
            }
        },
        "PersonRequest": {
            "type": "object",
            "required": ["first_name", "last_name", "birth_date", "passport_series", "passport_number"],
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "middle_name": {"type": "string"},
                "birth_date": {"type": "string", "format": "date", "example": "1990-05-12"},
                "passport_series": {"type": "string"},
                "passport_number": {"type": "string"}
            }
        },
        "PersonBatchRequest": {
            "type": "object",
            "properties": {
                "create": {"type": "array", "items": {"$ref": "#/definitions/PersonRequest"}},
                "update": {"type": "array", "items": {"allOf": [
                    {"$ref": "#/definitions/PersonRequest"},
                    {"type": "object", "properties": {"id": {"type": "integer", "format": "int64"}}}
                ]}},
                "delete": {"type": "array", "items": {"type": "integer", "format": "int64"}}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
        },
        "PersonListEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/Person"}},
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
