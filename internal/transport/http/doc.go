// Package http implements the HTTP handlers for the report service.
// Handlers stay thin: they parse and validate the request, delegate to the
// service layer and translate errors into JSON responses. All business logic
// lives in internal/services and internal/dataprocessing.
package http
