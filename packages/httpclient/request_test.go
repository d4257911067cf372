package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_FluentComposition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "apicheck", r.Header.Get("X-Client"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	resp, err := NewBuilder(NewClient(), server.URL).
		Header("X-Client", "apicheck").
		QueryParam("limit", "10").
		Body(`{"name": "Ada"}`).
		Post(context.Background(), "/users")
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestBuilder_JSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := NewBuilder(NewClient(), server.URL).
		JSONBody(map[string]any{"name": "Ada"}).
		Post(context.Background(), "/users")
	require.NoError(t, err)
}

func TestBuilder_TokenSourceInjectsBearer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tokens := TokenSourceFunc(func(ctx context.Context) (string, error) {
		return "tok-123", nil
	})

	_, err := NewBuilder(NewClient(), server.URL).
		WithTokenSource(tokens).
		Get(context.Background(), "/me")
	require.NoError(t, err)
}

func TestBuilder_TokenFailureAbortsBeforeDispatch(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	authErr := errors.New("token endpoint returned 500")
	tokens := TokenSourceFunc(func(ctx context.Context) (string, error) {
		return "", authErr
	})

	_, err := NewBuilder(NewClient(), server.URL).
		WithTokenSource(tokens).
		Get(context.Background(), "/me")

	require.ErrorIs(t, err, authErr)
	assert.Zero(t, calls.Load(), "target API must not be called when token acquisition fails")
}

func TestBuilder_Methods(t *testing.T) {
	var method atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method.Store(r.Method)
	}))
	defer server.Close()

	client := NewClient()
	ctx := context.Background()

	tests := []struct {
		name string
		call func(b *Builder) (*Response, error)
		want string
	}{
		{"get", func(b *Builder) (*Response, error) { return b.Get(ctx, "/x") }, http.MethodGet},
		{"post", func(b *Builder) (*Response, error) { return b.Post(ctx, "/x") }, http.MethodPost},
		{"put", func(b *Builder) (*Response, error) { return b.Put(ctx, "/x") }, http.MethodPut},
		{"patch", func(b *Builder) (*Response, error) { return b.Patch(ctx, "/x") }, http.MethodPatch},
		{"delete", func(b *Builder) (*Response, error) { return b.Delete(ctx, "/x") }, http.MethodDelete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.call(NewBuilder(client, server.URL))
			require.NoError(t, err)
			assert.Equal(t, tt.want, method.Load())
		})
	}
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://api.example.com/users", joinURL("https://api.example.com", "/users"))
	assert.Equal(t, "https://api.example.com/users", joinURL("https://api.example.com/", "users"))
	assert.Equal(t, "https://other.example.com/x", joinURL("https://api.example.com", "https://other.example.com/x"))
	assert.Equal(t, "/users", joinURL("", "/users"))
}

func TestRequest_BuildURL(t *testing.T) {
	req := &Request{
		URL:         "https://api.example.com/users?page=1",
		QueryParams: map[string]string{"limit": "5"},
	}
	assert.Equal(t, "https://api.example.com/users?limit=5&page=1", req.BuildURL())
}
