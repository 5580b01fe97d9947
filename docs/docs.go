package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/books": {
            "get": {
                "tags": ["Books"],
                "summary": "List books",
                "description": "Filter by genre, status and search text, then paginate. Grid view returns every match.",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "genre", "type": "string", "description": "Genre or All Genres"},
                    {"in": "query", "name": "status", "type": "string", "enum": ["All Status", "Available", "Issued"]},
                    {"in": "query", "name": "q", "type": "string", "description": "Case-insensitive title or author match"},
                    {"in": "query", "name": "page", "type": "integer", "default": 1},
                    {"in": "query", "name": "view", "type": "string", "enum": ["table", "grid"], "default": "table"}
                ],
                "responses": {
                    "200": {"description": "Catalog view", "schema": {"$ref": "#/definitions/CatalogView"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/MessageResponse"}}
                }
            },
            "post": {
                "tags": ["Books"],
                "summary": "Create a book",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "book", "required": true, "schema": {"$ref": "#/definitions/BookRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Book"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ValidationErrorResponse"}}
                }
            }
        },
        "/books/{id}": {
            "get": {
                "tags": ["Books"],
                "summary": "Get a book",
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "Book", "schema": {"$ref": "#/definitions/Book"}},
                    "404": {"description": "Book not found", "schema": {"$ref": "#/definitions/MessageResponse"}}
                }
            },
            "put": {
                "tags": ["Books"],
                "summary": "Replace a book",
                "consumes": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "body", "name": "book", "required": true, "schema": {"$ref": "#/definitions/BookRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/Book"}},
                    "404": {"description": "Book not found", "schema": {"$ref": "#/definitions/MessageResponse"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ValidationErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["Books"],
                "summary": "Delete a book",
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Book not found", "schema": {"$ref": "#/definitions/MessageResponse"}}
                }
            }
        },
        "/session": {
            "get": {
                "tags": ["Session"],
                "summary": "Current catalog view with form, confirmation and toast state",
                "responses": {"200": {"description": "Session view", "schema": {"$ref": "#/definitions/CatalogView"}}}
            }
        },
        "/session/form": {
            "post": {
                "tags": ["Session"],
                "summary": "Open an empty add form",
                "responses": {"200": {"description": "Session view", "schema": {"$ref": "#/definitions/CatalogView"}}}
            },
            "patch": {
                "tags": ["Session"],
                "summary": "Change one form field and clear its error",
                "consumes": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "field", "required": true, "schema": {"$ref": "#/definitions/EditFieldRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session view", "schema": {"$ref": "#/definitions/CatalogView"}},
                    "400": {"description": "Unknown field", "schema": {"$ref": "#/definitions/MessageResponse"}},
                    "409": {"description": "No open form", "schema": {"$ref": "#/definitions/MessageResponse"}}
                }
            },
            "delete": {
                "tags": ["Session"],
                "summary": "Close the form without saving",
                "responses": {"200": {"description": "Session view", "schema": {"$ref": "#/definitions/CatalogView"}}}
            }
        },
        "/session/form/edit/{id}": {
            "post": {
                "tags": ["Session"],
                "summary": "Open the form prefilled from a book",
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "Session view", "schema": {"$ref": "#/definitions/CatalogView"}},
                    "404": {"description": "Book not found", "schema": {"$ref": "#/definitions/MessageResponse"}}
                }
            }
        },
        "/session/form/save": {
            "post": {
                "tags": ["Session"],
                "summary": "Validate and commit the open form",
                "consumes": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "book", "schema": {"$ref": "#/definitions/BookRequest"}}
                ],
                "responses": {
                    "200": {"description": "Saved", "schema": {"$ref": "#/definitions/CatalogView"}},
                    "409": {"description": "No open form", "schema": {"$ref": "#/definitions/MessageResponse"}},
                    "422": {"description": "Form errors, view included", "schema": {"$ref": "#/definitions/CatalogView"}}
                }
            }
        },
        "/session/delete/{id}": {
            "post": {
                "tags": ["Session"],
                "summary": "Ask for delete confirmation",
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "Session view", "schema": {"$ref": "#/definitions/CatalogView"}},
                    "404": {"description": "Book not found", "schema": {"$ref": "#/definitions/MessageResponse"}}
                }
            }
        },
        "/session/delete/confirm": {
            "post": {
                "tags": ["Session"],
                "summary": "Delete the book awaiting confirmation",
                "responses": {
                    "200": {"description": "Session view", "schema": {"$ref": "#/definitions/CatalogView"}},
                    "409": {"description": "Nothing to confirm", "schema": {"$ref": "#/definitions/MessageResponse"}}
                }
            }
        },
        "/session/delete": {
            "delete": {
                "tags": ["Session"],
                "summary": "Dismiss the delete confirmation",
                "responses": {"200": {"description": "Session view", "schema": {"$ref": "#/definitions/CatalogView"}}}
            }
        },
        "/session/genre": {
            "put": {
                "tags": ["Session"],
                "summary": "Set the genre filter and return to page 1",
                "parameters": [{"in": "body", "name": "filter", "required": true, "schema": {"$ref": "#/definitions/FilterRequest"}}],
                "responses": {"200": {"description": "Session view", "schema": {"$ref": "#/definitions/CatalogView"}}}
            }
        },
        "/session/status": {
            "put": {
                "tags": ["Session"],
                "summary": "Set the status filter and return to page 1",
                "parameters": [{"in": "body", "name": "filter", "required": true, "schema": {"$ref": "#/definitions/FilterRequest"}}],
                "responses": {"200": {"description": "Session view", "schema": {"$ref": "#/definitions/CatalogView"}}}
            }
        },
        "/session/search": {
            "put": {
                "tags": ["Session"],
                "summary": "Set the search text",
                "parameters": [{"in": "body", "name": "search", "required": true, "schema": {"$ref": "#/definitions/SearchRequest"}}],
                "responses": {"200": {"description": "Session view", "schema": {"$ref": "#/definitions/CatalogView"}}}
            }
        },
        "/session/page": {
            "put": {
                "tags": ["Session"],
                "summary": "Jump to a table page",
                "parameters": [{"in": "body", "name": "page", "required": true, "schema": {"$ref": "#/definitions/PageRequest"}}],
                "responses": {
                    "200": {"description": "Session view", "schema": {"$ref": "#/definitions/CatalogView"}},
                    "400": {"description": "Page out of range", "schema": {"$ref": "#/definitions/MessageResponse"}}
                }
            }
        },
        "/session/view": {
            "put": {
                "tags": ["Session"],
                "summary": "Switch between table and grid",
                "parameters": [{"in": "body", "name": "view", "required": true, "schema": {"$ref": "#/definitions/ViewRequest"}}],
                "responses": {"200": {"description": "Session view", "schema": {"$ref": "#/definitions/CatalogView"}}}
            }
        },
        "/session/toast": {
            "delete": {
                "tags": ["Session"],
                "summary": "Dismiss the toast",
                "responses": {"200": {"description": "Session view", "schema": {"$ref": "#/definitions/CatalogView"}}}
            }
        }
    },
    "definitions": {
        "Book": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 1718000000000},
                "title": {"type": "string", "example": "The Hobbit"},
                "author": {"type": "string", "example": "J.R.R. Tolkien"},
                "genre": {"type": "string", "enum": ["Fiction", "Science Fiction", "Romance", "History", "Self-Help", "Travel"]},
                "year": {"type": "integer", "example": 1937},
                "status": {"type": "string", "enum": ["Available", "Issued"]},
                "isbn": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "BookRequest": {
            "type": "object",
            "required": ["title", "author", "genre", "year", "status"],
            "properties": {
                "title": {"type": "string"},
                "author": {"type": "string"},
                "genre": {"type": "string"},
                "year": {"type": "integer", "minimum": 1000},
                "status": {"type": "string"},
                "isbn": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "CatalogView": {
            "type": "object",
            "properties": {
                "view": {"type": "string", "enum": ["table", "grid"]},
                "genre_filter": {"type": "string"},
                "status_filter": {"type": "string"},
                "search": {"type": "string"},
                "page": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "filtered_count": {"type": "integer"},
                "rows": {"type": "array", "items": {"$ref": "#/definitions/Book"}},
                "cards": {"type": "array", "items": {"$ref": "#/definitions/Book"}},
                "placeholder": {"type": "string"},
                "pagination": {
                    "type": "object",
                    "properties": {
                        "page": {"type": "integer"},
                        "total_pages": {"type": "integer"},
                        "has_previous": {"type": "boolean"},
                        "has_next": {"type": "boolean"}
                    }
                },
                "form": {"type": "object"},
                "confirm": {"type": "object"},
                "toast": {"type": "string"}
            }
        },
        "EditFieldRequest": {
            "type": "object",
            "required": ["field"],
            "properties": {"field": {"type": "string"}, "value": {"type": "string"}}
        },
        "FilterRequest": {
            "type": "object",
            "properties": {"value": {"type": "string"}}
        },
        "SearchRequest": {
            "type": "object",
            "properties": {"query": {"type": "string"}}
        },
        "PageRequest": {
            "type": "object",
            "required": ["page"],
            "properties": {"page": {"type": "integer", "minimum": 1}}
        },
        "ViewRequest": {
            "type": "object",
            "required": ["view"],
            "properties": {"view": {"type": "string", "enum": ["table", "grid"]}}
        },
        "MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "ValidationErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "errors": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Shelfmate API",
	Description:      "Book catalog with filtering, search and pagination",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
