//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

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
        "/status": {"get": {"produces": ["application/json"], "summary": "Relay session status", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}}},
        "/actions/{action}": {"post": {"produces": ["application/json"], "summary": "Submit a relay action", "parameters": [{"type": "string", "enum": ["show-status", "connect", "disconnect"], "name": "action", "in": "path", "required": true}], "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.ActionResponse"}}, "400": {"description": "Unknown action", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}, "503": {"description": "Relay stopped", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}}},
        "/bluetooth/devices": {"get": {"produces": ["application/json"], "summary": "Paired Bluetooth devices", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DevicesResponse"}}}}},
        "/bluetooth/select": {"post": {"consumes": ["application/json"], "produces": ["application/json"], "summary": "Store the telemetry radio address", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.SelectDeviceRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PreferenceValue"}}}}},
        "/prefs": {"get": {"produces": ["application/json"], "summary": "List preferences", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PreferencesResponse"}}}}},
        "/prefs/{key}": {"put": {"consumes": ["application/json"], "produces": ["application/json"], "summary": "Set a preference", "parameters": [{"type": "string", "name": "key", "in": "path", "required": true}, {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.PreferenceValue"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PreferenceValue"}}}}}
    },
    "definitions": {
        "types.StatusResponse": {"type": "object", "properties": {"state": {"type": "string", "example": "started"}, "connected": {"type": "boolean"}, "pending_actions": {"type": "integer"}, "pending": {"type": "array", "items": {"type": "string"}}, "watchdog_timeout_seconds": {"type": "integer", "example": 30}, "watchdog_deadline_unix": {"type": "integer"}, "last_event": {"type": "string", "example": "heartbeat_first"}, "last_event_unix": {"type": "integer"}, "companions": {"type": "integer"}, "started_at_unix": {"type": "integer"}}},
        "types.ActionResponse": {"type": "object", "properties": {"action": {"type": "string", "example": "connect"}, "accepted": {"type": "boolean"}}},
        "types.ErrorResponse": {"type": "object", "properties": {"error": {"type": "string"}, "code": {"type": "integer"}}},
        "types.BluetoothDevice": {"type": "object", "properties": {"address": {"type": "string", "example": "00:11:22:33:44:55"}, "name": {"type": "string"}, "paired": {"type": "boolean"}, "connected": {"type": "boolean"}}},
        "types.DevicesResponse": {"type": "object", "properties": {"devices": {"type": "array", "items": {"$ref": "#/definitions/types.BluetoothDevice"}}}},
        "types.SelectDeviceRequest": {"type": "object", "properties": {"address": {"type": "string", "example": "00:11:22:33:44:55"}}},
        "types.PreferenceValue": {"type": "object", "properties": {"key": {"type": "string", "example": "pref_connection_type"}, "value": {"type": "string", "example": "tcp"}}},
        "types.PreferencesResponse": {"type": "object", "properties": {"preferences": {"type": "array", "items": {"$ref": "#/definitions/types.PreferenceValue"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "wearrelay API",
	Description:      "Control API for the drone telemetry relay.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// MountSwagger serves the Swagger UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
