package router

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/usersearch/internal/imagecache"
	"github.com/polkiloo/usersearch/internal/server/http/handlers"
	"github.com/polkiloo/usersearch/internal/server/http/middleware"
	"github.com/polkiloo/usersearch/internal/server/http/handlers/handlerstest"
)

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	facade := &handlerstest.UserSearchFacadeStub{
		AvatarFn: func(context.Context, string) (*imagecache.Image, error) {
			return &imagecache.Image{Format: "png", Data: []byte("img")}, nil
		},
	}
	engine := Setup(facade, logger)

	tests := []struct {
		method string
		path   string
		body   []byte
		status int
	}{
		{method: http.MethodGet, path: "/healthz", status: http.StatusOK},
		{method: http.MethodGet, path: "/api/search", status: http.StatusOK},
		{method: http.MethodPut, path: "/api/search", body: []byte(`{"query":"octo"}`), status: http.StatusAccepted},
		{method: http.MethodDelete, path: "/api/search", status: http.StatusNoContent},
		{method: http.MethodGet, path: "/api/favorites", status: http.StatusOK},
		{method: http.MethodPost, path: "/api/favorites", body: []byte(`{"user":{"id":1,"login":"a"}}`), status: http.StatusOK},
		{method: http.MethodDelete, path: "/api/favorites/1", status: http.StatusNoContent},
		{method: http.MethodGet, path: "/api/users/octocat", status: http.StatusOK},
		{method: http.MethodGet, path: "/api/avatars?url=https://example.com/a.png", status: http.StatusOK},
		{method: http.MethodGet, path: "/api/unknown", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var reader io.Reader
			if tt.body != nil {
				reader = bytes.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, reader)
			if tt.body != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			resp := httptest.NewRecorder()
			engine.ServeHTTP(resp, req)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
			if resp.Header().Get(middleware.RequestIDHeader) == "" {
				t.Fatal("expected request id header")
			}
		})
	}
}

func TestSetupCompression(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	facade := &handlerstest.UserSearchFacadeStub{
		AvatarFn: func(context.Context, string) (*imagecache.Image, error) {
			return &imagecache.Image{Format: "png", Data: []byte("img")}, nil
		},
	}
	engine := Setup(facade, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if got := resp.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("expected gzip encoded json, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/avatars?url=https://example.com/a.png", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if got := resp.Header().Get("Content-Encoding"); got != "" {
		t.Fatalf("expected avatars to bypass compression, got %q", got)
	}
	if resp.Body.String() != "img" {
		t.Fatalf("unexpected avatar body %q", resp.Body.String())
	}
}

var _ handlers.UserSearchFacade = (*handlerstest.UserSearchFacadeStub)(nil)
