// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/locations/verify": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["locations"],
                "summary": "Verify a location against known neighborhoods",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.VerifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.VerificationResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/places/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["places"],
                "summary": "Search places by free text",
                "parameters": [
                    {"type": "string", "name": "q", "in": "query", "required": true},
                    {"type": "number", "name": "lat", "in": "query"},
                    {"type": "number", "name": "lon", "in": "query"},
                    {"type": "integer", "name": "radius", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.PlaceResult"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/places/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["places"],
                "summary": "Place details",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.PlaceResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/landmarks": {
            "get": {
                "produces": ["application/json"],
                "tags": ["landmarks"],
                "summary": "Landmarks around a point",
                "parameters": [
                    {"type": "number", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "name": "lon", "in": "query", "required": true},
                    {"type": "integer", "name": "radius", "in": "query"},
                    {"type": "integer", "name": "max", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.PlaceResult"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "kind": {"type": "string"}
            }
        },
        "handler.VerifyRequest": {
            "type": "object",
            "required": ["user_id", "latitude", "longitude"],
            "properties": {
                "user_id": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "address": {"type": "string"}
            }
        },
        "models.Coordinates": {
            "type": "object",
            "properties": {
                "latitude": {"type": "number"},
                "longitude": {"type": "number"}
            }
        },
        "models.PlaceResult": {
            "type": "object",
            "properties": {
                "place_id": {"type": "string"},
                "name": {"type": "string"},
                "formatted_address": {"type": "string"},
                "vicinity": {"type": "string"},
                "location": {"$ref": "#/definitions/models.Coordinates"},
                "types": {"type": "array", "items": {"type": "string"}},
                "rating": {"type": "number"},
                "user_ratings_total": {"type": "integer"}
            }
        },
        "models.Neighborhood": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "type": {"type": "string"},
                "center": {"$ref": "#/definitions/models.Coordinates"},
                "radius_km": {"type": "number"}
            }
        },
        "models.NeighborhoodMatch": {
            "type": "object",
            "properties": {
                "neighborhood": {"$ref": "#/definitions/models.Neighborhood"},
                "distance_km": {"type": "number"},
                "confidence": {"type": "number"}
            }
        },
        "models.VerificationResult": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["verified", "unverified", "rejected"]},
                "match": {"$ref": "#/definitions/models.NeighborhoodMatch"},
                "suggestions": {"type": "array", "items": {"$ref": "#/definitions/models.NeighborhoodMatch"}},
                "reason": {"type": "string"}
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
	Title:            "Mecabal Location API",
	Description:      "Neighborhood verification, place search and landmark discovery.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
