// Package handlers contains the HTTP handlers for the paperpilot API.
//
// All endpoints share the Response envelope from common.go, which carries a
// success flag, the payload, and structured error information. Domain errors
// are translated to HTTP status codes in one place (WriteAnyError) so that
// handlers only deal with domain semantics.
//
// Handlers register themselves on a *http.ServeMux using method and wildcard
// patterns, so routing stays in the standard library.
package handlers
