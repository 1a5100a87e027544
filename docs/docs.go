// Package docs holds the OpenAPI 2.0 document served under /swagger.
//
// The layout is the one `swag init` emits. The document is maintained from
// the handler annotations in internal/http/handlers; after changing them run
//
//	swag init -g cmd/gateway/main.go -o docs --outputTypes go
//
// and review the diff. docs_test.go fails when a served route is missing.
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
        "/client": {
            "get": {
                "description": "Returns every employee known to the downstream service, in downstream order. Also mounted at /exchange.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Employees"
                ],
                "summary": "List employees",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Correlation ID (forwarded downstream)",
                        "name": "X-Request-ID",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.Employee"
                            }
                        }
                    },
                    "502": {
                        "description": "Employee service unavailable",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "post": {
                "description": "Forwards the employee document unchanged and returns the stored record. Also mounted at /sync.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Employees"
                ],
                "summary": "Create an employee",
                "parameters": [
                    {
                        "type": "string",
                        "example": "emp-create-001",
                        "description": "Forwarded downstream",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "description": "Employee document",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/domain.Employee"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Employee"
                        }
                    },
                    "400": {
                        "description": "Bad request",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Employee service unavailable",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/client/error": {
            "get": {
                "description": "Calls /emp/error downstream. A 5xx becomes a 500 whose message is the downstream text; a 4xx is logged and answered with the same status and an empty body; a 2xx employee is returned unchanged. Also mounted at /exchange/error.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Employees"
                ],
                "summary": "Call the failing downstream endpoint",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Employee"
                        }
                    },
                    "404": {
                        "description": "Downstream 4xx, logged and swallowed",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "500": {
                        "description": "Downstream 5xx text",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Employee service unavailable",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/client/exchange": {
            "get": {
                "description": "Returns every employee known to the downstream service, in downstream order. Also mounted at /exchange.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Employees"
                ],
                "summary": "List employees",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Correlation ID (forwarded downstream)",
                        "name": "X-Request-ID",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.Employee"
                            }
                        }
                    },
                    "502": {
                        "description": "Employee service unavailable",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/client/exchange/error": {
            "get": {
                "description": "Calls /emp/error downstream. A 5xx becomes a 500 whose message is the downstream text; a 4xx is logged and answered with the same status and an empty body; a 2xx employee is returned unchanged. Also mounted at /exchange/error.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Employees"
                ],
                "summary": "Call the failing downstream endpoint",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Employee"
                        }
                    },
                    "404": {
                        "description": "Downstream 4xx, logged and swallowed",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "500": {
                        "description": "Downstream 5xx text",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Employee service unavailable",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/client/sync": {
            "post": {
                "description": "Forwards the employee document unchanged and returns the stored record. Also mounted at /sync.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Employees"
                ],
                "summary": "Create an employee",
                "parameters": [
                    {
                        "type": "string",
                        "example": "emp-create-001",
                        "description": "Forwarded downstream",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "description": "Employee document",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/domain.Employee"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Employee"
                        }
                    },
                    "400": {
                        "description": "Bad request",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Employee service unavailable",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/client/{id}": {
            "get": {
                "description": "Fetches one employee by id. Downstream errors (e.g. 404) are relayed unchanged.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Employees"
                ],
                "summary": "Get an employee",
                "operationId": "getEmployee",
                "parameters": [
                    {
                        "type": "string",
                        "example": "e-42",
                        "description": "Employee ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Employee"
                        }
                    },
                    "404": {
                        "description": "Relayed from the employee service",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {}
                        }
                    },
                    "502": {
                        "description": "Employee service unavailable",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "put": {
                "description": "Replaces the employee at {id}. The path id overrides any id in the body.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Employees"
                ],
                "summary": "Update an employee",
                "operationId": "updateEmployee",
                "parameters": [
                    {
                        "type": "string",
                        "example": "e-42",
                        "description": "Employee ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Employee document",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/domain.Employee"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Employee"
                        }
                    },
                    "400": {
                        "description": "Bad request",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Relayed from the employee service",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {}
                        }
                    },
                    "502": {
                        "description": "Employee service unavailable",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "delete": {
                "description": "Removes the employee at {id}.",
                "tags": [
                    "Employees"
                ],
                "summary": "Delete an employee",
                "operationId": "deleteEmployee",
                "parameters": [
                    {
                        "type": "string",
                        "example": "e-42",
                        "description": "Employee ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "Relayed from the employee service",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {}
                        }
                    },
                    "502": {
                        "description": "Employee service unavailable",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "domain.Employee": {
            "type": "object",
            "properties": {
                "id": {
                    "description": "ID is the employee identifier; empty when the document has none.",
                    "type": "string",
                    "example": "e-1"
                }
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "description": "Stable, machine-readable code (see errors.go constants)",
                    "type": "string",
                    "example": "not_found"
                },
                "message": {
                    "description": "Human-readable message (safe to show to users)",
                    "type": "string",
                    "example": "resource not found"
                },
                "request_id": {
                    "description": "Correlates server logs and client errors",
                    "type": "string",
                    "example": "123e4567-e89b-12d3-a456-426614174000"
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
	Title:            "Employee Gateway API",
	Description:      "Forwards employee operations to the downstream employee service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
