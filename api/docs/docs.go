// Package docs registers the OpenAPI document of the clima API.
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
        "/generate-report": {
            "post": {
                "description": "Runs the report pipeline over the last 24 hours of readings and stores the result for today",
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Generate the daily report now",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Document"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/latest-report": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Get the most recent report",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/reports/{date}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Get the report of a date",
                "parameters": [
                    {"type": "string", "description": "Date (YYYY-MM-DD)", "name": "date", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Document"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/readings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["readings"],
                "summary": "List stored readings",
                "parameters": [
                    {"type": "integer", "description": "Window in hours (default 24, max 168)", "name": "hours", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.SensorReading"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/latest-readings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["readings"],
                "summary": "Last live value per sensor",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.LatestReadings"}}
                }
            }
        },
        "/v1/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Health"}}
                }
            }
        }
    },
    "definitions": {
        "errors.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "details": {},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "models.Document": {
            "description": "Report document produced by the analysis, with fecha set to the report date",
            "type": "object",
            "additionalProperties": true
        },
        "models.SensorReading": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "timestamp": {"type": "string"},
                "temperatura": {"type": "number"},
                "presion": {"type": "number"},
                "humedad": {"type": "number"},
                "humedad_suelo": {"type": "number"},
                "luz": {"type": "number"},
                "vibracion": {"type": "number"}
            }
        },
        "models.LiveReading": {
            "type": "object",
            "properties": {
                "topic": {"type": "string"},
                "sensor_id": {"type": "string"},
                "label": {"type": "string"},
                "value": {"type": "number"},
                "unit": {"type": "string"},
                "timestamp": {"type": "integer"}
            }
        },
        "models.LatestReadings": {
            "type": "object",
            "properties": {
                "sensors": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.LiveReading"}},
                "updated_at": {"type": "string"}
            }
        },
        "service.Health": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "version": {"type": "string"},
                "database": {"type": "string"},
                "stream": {"type": "string"},
                "live_clients": {"type": "integer"}
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
	Title:            "Clima Station API",
	Description:      "Daily weather reports and live readings of the clima sensor station.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
