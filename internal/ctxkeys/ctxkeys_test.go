package ctxkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()

	id, ok := RequestID(ctx)
	assert.False(t, ok)
	assert.Empty(t, id)

	ctx = WithRequestID(ctx, "req-123")
	id, ok = RequestID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-123", id)
}

func TestRequestID_EmptyValueNotFound(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	_, ok := RequestID(ctx)
	assert.False(t, ok)
}

func TestProjectID(t *testing.T) {
	ctx := context.Background()

	_, ok := ProjectID(ctx)
	assert.False(t, ok)

	ctx = WithProjectID(ctx, "proj-1")
	id, ok := ProjectID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "proj-1", id)
}

func TestKeysDoNotCollide(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithProjectID(ctx, "proj-1")

	reqID, _ := RequestID(ctx)
	projID, _ := ProjectID(ctx)
	assert.Equal(t, "req-1", reqID)
	assert.Equal(t, "proj-1", projID)
}
