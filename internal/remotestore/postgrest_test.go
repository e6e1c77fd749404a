package remotestore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/writequeue/internal/errors"
	"github.com/allisson/writequeue/internal/writequeue/domain"
)

func newTestPostgREST(t *testing.T, handler http.HandlerFunc) *PostgRESTStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewPostgRESTStore(PostgRESTConfig{URL: server.URL + "/", APIKey: "anon-key", Timeout: time.Second})
}

func TestPostgRESTStore_Insert(t *testing.T) {
	var gotBody []map[string]any
	store := newTestPostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/orders", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &gotBody))

		w.WriteHeader(http.StatusCreated)
	})

	err := store.Insert(context.Background(), "orders", []domain.Row{{"item": "latte"}, {"item": "mocha"}})

	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"item": "latte"}, {"item": "mocha"}}, gotBody)
}

func TestPostgRESTStore_InsertErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		transient bool
		code      string
		message   string
		target    error
	}{
		{
			name:      "unique violation",
			status:    http.StatusConflict,
			body:      `{"code":"23505","message":"duplicate key value violates unique constraint","details":"Key (id)=(1) already exists."}`,
			transient: false,
			code:      "23505",
			message:   "duplicate key value violates unique constraint (Key (id)=(1) already exists.)",
			target:    apperrors.ErrConflict,
		},
		{
			name:      "row level security",
			status:    http.StatusUnauthorized,
			body:      `{"code":"42501","message":"new row violates row-level security policy"}`,
			transient: false,
			code:      "42501",
			message:   "new row violates row-level security policy",
			target:    apperrors.ErrForbidden,
		},
		{
			name:      "invalid api key",
			status:    http.StatusUnauthorized,
			body:      `{"message":"Invalid API key"}`,
			transient: false,
			message:   "Invalid API key",
			target:    apperrors.ErrUnauthorized,
		},
		{
			name:      "unknown column",
			status:    http.StatusBadRequest,
			body:      `{"code":"PGRST204","message":"Could not find the 'qty' column"}`,
			transient: false,
			code:      "PGRST204",
			message:   "Could not find the 'qty' column",
			target:    apperrors.ErrInvalidInput,
		},
		{
			name:      "service unavailable",
			status:    http.StatusServiceUnavailable,
			body:      `{"code":"PGRST002","message":"Could not query the database for the schema cache"}`,
			transient: true,
			code:      "PGRST002",
			message:   "Could not query the database for the schema cache",
			target:    apperrors.ErrUnavailable,
		},
		{
			name:      "rate limited without body",
			status:    http.StatusTooManyRequests,
			transient: true,
			message:   "Too Many Requests",
			target:    apperrors.ErrUnavailable,
		},
		{
			name:      "gateway error with html",
			status:    http.StatusBadGateway,
			body:      "<html>bad gateway</html>",
			transient: true,
			message:   "<html>bad gateway</html>",
			target:    apperrors.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestPostgREST(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := store.Insert(context.Background(), "orders", []domain.Row{{"id": 1}})

			var remoteErr *domain.RemoteError
			require.ErrorAs(t, err, &remoteErr)
			assert.Equal(t, tt.transient, remoteErr.Transient())
			assert.Equal(t, tt.status, remoteErr.Status)
			assert.Equal(t, tt.code, remoteErr.Code)
			assert.Equal(t, tt.message, remoteErr.Message)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestPostgRESTStore_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	store := NewPostgRESTStore(PostgRESTConfig{URL: url, Timeout: time.Second})
	err := store.Insert(context.Background(), "orders", []domain.Row{{"id": 1}})

	var remoteErr *domain.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.True(t, remoteErr.Transient())
}

func TestPostgRESTStore_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	store := NewPostgRESTStore(PostgRESTConfig{URL: server.URL, Timeout: 20 * time.Millisecond})
	err := store.Insert(context.Background(), "orders", []domain.Row{{"id": 1}})

	var remoteErr *domain.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.True(t, remoteErr.Transient())
}

func TestPostgRESTStore_InvalidTable(t *testing.T) {
	store := NewPostgRESTStore(PostgRESTConfig{URL: "http://localhost", Timeout: time.Second})

	err := store.Insert(context.Background(), "../auth/users", []domain.Row{{"id": 1}})

	var remoteErr *domain.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.False(t, remoteErr.Transient())
	assert.ErrorIs(t, err, domain.ErrInvalidTable)
}

func TestPostgRESTStore_CanceledContext(t *testing.T) {
	store := newTestPostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Insert(ctx, "orders", []domain.Row{{"id": 1}})
	assert.ErrorIs(t, err, context.Canceled)

	var remoteErr *domain.RemoteError
	assert.False(t, errors.As(err, &remoteErr))
}
