// Package docs registra el documento OpenAPI servido en /swagger/*.
// Regenerar con: swag init -g cmd/api/main.go
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
        "/pets": {
            "get": {"tags": ["pets"], "summary": "Mis mascotas", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "401": {"description": "unauthorized"}}},
            "post": {"tags": ["pets"], "summary": "Registrar mascota", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"201": {"description": "Created"}, "400": {"description": "validation error"}}}
        },
        "/pets/{petID}": {
            "get": {"tags": ["pets"], "summary": "Perfil de mascota", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}, "404": {"description": "pet not found"}}}
        },
        "/pets/{petID}/health/records": {
            "get": {"tags": ["health-records"], "summary": "Listar registros de salud", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}, {"type": "string", "name": "types", "in": "query"}, {"type": "string", "name": "from", "in": "query"}, {"type": "string", "name": "to", "in": "query"}, {"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["health-records"], "summary": "Registrar evento de salud", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "400": {"description": "validation error"}}}
        },
        "/pets/{petID}/health/vaccinations": {
            "get": {"tags": ["vaccinations"], "summary": "Historial de vacunas", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["vaccinations"], "summary": "Registrar vacuna", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "400": {"description": "validation error"}}}
        },
        "/pets/{petID}/health/vaccinations/upcoming": {
            "get": {"tags": ["vaccinations"], "summary": "Próximas vacunas", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}, {"type": "string", "name": "now", "in": "query"}], "responses": {"200": {"description": "OK"}}}
        },
        "/pets/{petID}/health/reminders": {
            "get": {"tags": ["reminders"], "summary": "Listar recordatorios", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}, {"type": "boolean", "name": "include_completed", "in": "query"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["reminders"], "summary": "Crear recordatorio", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "400": {"description": "validation error"}}}
        },
        "/pets/{petID}/health/reminders/upcoming": {
            "get": {"tags": ["reminders"], "summary": "Próximos recordatorios", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}, {"type": "string", "name": "now", "in": "query"}, {"type": "integer", "name": "horizon_days", "in": "query"}], "responses": {"200": {"description": "OK"}, "400": {"description": "parámetros inválidos"}}}
        },
        "/pets/{petID}/health/reminders/{reminderID}/complete": {
            "post": {"tags": ["reminders"], "summary": "Completar recordatorio", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}, {"type": "string", "name": "reminderID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "not found"}, "409": {"description": "conflict"}}}
        },
        "/pets/{petID}/health/stats": {
            "get": {"tags": ["stats"], "summary": "Estadísticas de salud", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}, {"type": "string", "name": "now", "in": "query"}], "responses": {"200": {"description": "OK"}, "400": {"description": "parámetros inválidos"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Pet Health API",
	Description:      "Historial de salud, vacunas, recordatorios y health score por mascota.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
