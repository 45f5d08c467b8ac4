package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/types"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name       string
		data       any
		wantStatus int
	}{
		{
			name:       "simple object",
			data:       map[string]string{"message": "hello"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "array",
			data:       []int{1, 2, 3},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteJSON(w, tt.wantStatus, tt.data)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	WriteSuccess(w, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestWriteAccepted(t *testing.T) {
	w := httptest.NewRecorder()

	WriteAccepted(w, map[string]string{"execution_id": "exec-1"})

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
}

func TestWriteError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name           string
		err            *types.Error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "invalid input",
			err:            types.NewError(types.ErrInvalidInput, "topic is required"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   string(types.ErrInvalidInput),
		},
		{
			name:           "not found",
			err:            types.NewError(types.ErrNotFound, "project not found"),
			expectedStatus: http.StatusNotFound,
			expectedCode:   string(types.ErrNotFound),
		},
		{
			name:           "invalid state",
			err:            types.NewError(types.ErrInvalidState, "stage already running"),
			expectedStatus: http.StatusConflict,
			expectedCode:   string(types.ErrInvalidState),
		},
		{
			name:           "rate limited",
			err:            types.NewError(types.ErrRateLimited, "too many requests"),
			expectedStatus: http.StatusTooManyRequests,
			expectedCode:   string(types.ErrRateLimited),
		},
		{
			name:           "internal",
			err:            types.NewError(types.ErrInternal, "database connection failed"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   string(types.ErrInternal),
		},
		{
			name:           "explicit status wins",
			err:            types.NewError(types.ErrInternal, "teapot").WithHTTPStatus(http.StatusTeapot),
			expectedStatus: http.StatusTeapot,
			expectedCode:   string(types.ErrInternal),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp Response
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

			assert.False(t, resp.Success)
			assert.Nil(t, resp.Data)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestWriteAnyError(t *testing.T) {
	logger := zap.NewNop()

	t.Run("structured error passes through", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteAnyError(w, types.NewError(types.ErrNotFound, "gone"), logger)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteAnyError(w, errors.New("boom"), logger)

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var resp Response
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, string(types.ErrInternal), resp.Error.Code)
	})
}

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code types.ErrorCode
		want int
	}{
		{types.ErrInvalidInput, http.StatusBadRequest},
		{types.ErrConfiguration, http.StatusBadRequest},
		{types.ErrUnauthorized, http.StatusUnauthorized},
		{types.ErrQuotaExceeded, http.StatusPaymentRequired},
		{types.ErrForbidden, http.StatusForbidden},
		{types.ErrNotFound, http.StatusNotFound},
		{types.ErrInvalidState, http.StatusConflict},
		{types.ErrRateLimited, http.StatusTooManyRequests},
		{types.ErrUpstreamError, http.StatusBadGateway},
		{types.ErrGeneration, http.StatusBadGateway},
		{types.ErrCollection, http.StatusBadGateway},
		{types.ErrModelOverloaded, http.StatusServiceUnavailable},
		{types.ErrUpstreamTimeout, http.StatusGatewayTimeout},
		{types.ErrInternal, http.StatusInternalServerError},
		{types.ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, mapErrorCodeToHTTPStatus(tt.code))
		})
	}
}

func TestDecodeJSONBody(t *testing.T) {
	logger := zap.NewNop()

	type payload struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			name:    "valid body",
			body:    `{"name":"quantum","value":3}`,
			wantErr: false,
		},
		{
			name:    "malformed JSON",
			body:    `{"name":`,
			wantErr: true,
		},
		{
			name:    "unknown field rejected",
			body:    `{"name":"x","bogus":true}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tt.body))

			var dst payload
			err := DecodeJSONBody(w, r, &dst, logger)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, types.ErrInvalidInput, types.GetErrorCode(err))
				assert.Equal(t, http.StatusBadRequest, w.Code)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "quantum", dst.Name)
			assert.Equal(t, 3, dst.Value)
		})
	}
}

func TestResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	assert.Equal(t, http.StatusOK, rw.StatusCode)
	assert.False(t, rw.Written)

	rw.WriteHeader(http.StatusAccepted)
	assert.Equal(t, http.StatusAccepted, rw.StatusCode)
	assert.True(t, rw.Written)

	// Second WriteHeader is ignored.
	rw.WriteHeader(http.StatusInternalServerError)
	assert.Equal(t, http.StatusAccepted, rw.StatusCode)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestResponseWriter_ImplicitOK(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	_, err := rw.Write([]byte("hello"))
	require.NoError(t, err)

	assert.True(t, rw.Written)
	assert.Equal(t, http.StatusOK, rw.StatusCode)
	assert.Equal(t, "hello", w.Body.String())
}
