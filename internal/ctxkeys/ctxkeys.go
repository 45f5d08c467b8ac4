// Package ctxkeys holds the context keys shared between the HTTP layer
// and the pipeline, so request identity survives across package
// boundaries without import cycles.
package ctxkeys

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	projectIDKey contextKey = "project_id"
)

// WithRequestID stores the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID, if any.
func RequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithProjectID stores the project ID being operated on.
func WithProjectID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, projectIDKey, id)
}

// ProjectID returns the project ID, if any.
func ProjectID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(projectIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
