package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/usersearch/internal/domain/errors"
	"github.com/polkiloo/usersearch/internal/domain/model"
	"github.com/polkiloo/usersearch/internal/imagecache"
	"github.com/polkiloo/usersearch/internal/server/http/dto"
	"github.com/polkiloo/usersearch/internal/server/http/handlers/handlerstest"
	testhelpers "github.com/polkiloo/usersearch/internal/test"
	"github.com/polkiloo/usersearch/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(t *testing.T, method, pattern, target string, handler gin.HandlerFunc, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, pattern, handler)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

func TestSearchHandlerState(t *testing.T) {
	facade := &handlerstest.UserSearchFacadeStub{
		SearchStateFn: func(context.Context) (usecase.SearchState, error) {
			return usecase.SearchState{
				Query:   "octo",
				Results: []model.User{{ID: 1, Login: "octocat"}, {ID: 2, Login: "octodog"}},
				Phase:   usecase.PhaseSucceeded,
			}, nil
		},
		IsFavoriteFn: func(id int64) bool { return id == 2 },
	}
	resp := performRequest(t, http.MethodGet, "/search", "/search", NewSearchHandler(facade).State, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var decoded dto.SearchResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.Query != "octo" || len(decoded.Results) != 2 {
		t.Fatalf("unexpected response: %+v", decoded)
	}
	if decoded.Results[0].IsFavorite || !decoded.Results[1].IsFavorite {
		t.Fatalf("unexpected favorite flags: %+v", decoded.Results)
	}
	if decoded.Results[0].Login != "octocat" {
		t.Fatalf("expected embedded user fields, got %+v", decoded.Results[0])
	}
	if decoded.Phase != usecase.PhaseSucceeded.String() {
		t.Fatalf("unexpected phase %q", decoded.Phase)
	}
}

func TestSearchHandlerStateUnavailable(t *testing.T) {
	facade := &handlerstest.UserSearchFacadeStub{
		SearchStateFn: func(context.Context) (usecase.SearchState, error) {
			return usecase.SearchState{}, errors.New("stopped")
		},
	}
	resp := performRequest(t, http.MethodGet, "/search", "/search", NewSearchHandler(facade).State, nil, nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", resp.Code)
	}
}

func TestSearchHandlerSetQuery(t *testing.T) {
	query := testhelpers.RandomLogin(3, 12)
	var got string
	facade := &handlerstest.UserSearchFacadeStub{
		SetQueryFn: func(q string) { got = q },
		SearchStateFn: func(context.Context) (usecase.SearchState, error) {
			return usecase.SearchState{Query: got, Phase: usecase.PhaseDebouncing}, nil
		},
	}
	body, _ := json.Marshal(dto.SearchRequest{Query: query})
	resp := performRequest(t, http.MethodPut, "/search", "/search", NewSearchHandler(facade).SetQuery, body, jsonHeaders)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", resp.Code)
	}
	if got != query {
		t.Fatalf("expected query %q forwarded, got %q", query, got)
	}

	var decoded dto.SearchResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.Query != query || decoded.Phase != usecase.PhaseDebouncing.String() {
		t.Fatalf("unexpected response: %+v", decoded)
	}
}

func TestSearchHandlerSetQueryBadJSON(t *testing.T) {
	called := false
	facade := &handlerstest.UserSearchFacadeStub{SetQueryFn: func(string) { called = true }}
	resp := performRequest(t, http.MethodPut, "/search", "/search", NewSearchHandler(facade).SetQuery, []byte("nope"), jsonHeaders)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if called {
		t.Fatal("query must not be forwarded on bad input")
	}
}

func TestSearchHandlerClear(t *testing.T) {
	cleared := false
	facade := &handlerstest.UserSearchFacadeStub{ClearSearchFn: func() { cleared = true }}
	resp := performRequest(t, http.MethodDelete, "/search", "/search", NewSearchHandler(facade).Clear, nil, nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}
	if !cleared {
		t.Fatal("expected search to be cleared")
	}
}

func TestFavoritesHandlerList(t *testing.T) {
	users := []model.User{{ID: 1, Login: "a"}, {ID: 2, Login: "b"}}
	facade := &handlerstest.UserSearchFacadeStub{FavoritesFn: func(context.Context) ([]model.User, error) {
		return users, nil
	}}
	resp := performRequest(t, http.MethodGet, "/favorites", "/favorites", NewFavoritesHandler(facade).List, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var decoded dto.FavoritesResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(decoded.Favorites) != 2 || decoded.Favorites[1].Login != "b" {
		t.Fatalf("unexpected favorites: %+v", decoded)
	}
	if decoded.Message != "" {
		t.Fatalf("unexpected message %q", decoded.Message)
	}
}

func TestFavoritesHandlerListEmpty(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/favorites", "/favorites", NewFavoritesHandler(&handlerstest.UserSearchFacadeStub{}).List, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var decoded dto.FavoritesResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.Message != usecase.EmptyFavoritesMessage {
		t.Fatalf("expected empty message, got %q", decoded.Message)
	}
}

func TestFavoritesHandlerToggle(t *testing.T) {
	var toggled model.User
	facade := &handlerstest.UserSearchFacadeStub{ToggleFavoriteFn: func(_ context.Context, u model.User) (bool, error) {
		toggled = u
		return false, nil
	}}
	body := []byte(`{"user":{"id":7,"login":"octocat"}}`)
	resp := performRequest(t, http.MethodPost, "/favorites", "/favorites", NewFavoritesHandler(facade).Toggle, body, jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if toggled.ID != 7 || toggled.Login != "octocat" {
		t.Fatalf("unexpected user forwarded: %+v", toggled)
	}
	var decoded dto.ToggleFavoriteResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.IsFavorite {
		t.Fatal("expected user to be reported as removed")
	}
}

func TestFavoritesHandlerToggleFailures(t *testing.T) {
	tests := []struct {
		name   string
		facade *handlerstest.UserSearchFacadeStub
		body   []byte
		status int
	}{
		{name: "bad json", facade: &handlerstest.UserSearchFacadeStub{}, body: []byte("oops"), status: http.StatusBadRequest},
		{name: "missing id", facade: &handlerstest.UserSearchFacadeStub{}, body: []byte(`{"user":{"login":"a"}}`), status: http.StatusBadRequest},
		{name: "persist failure", facade: &handlerstest.UserSearchFacadeStub{ToggleFavoriteFn: func(context.Context, model.User) (bool, error) {
			return false, errors.New("disk full")
		}}, body: []byte(`{"user":{"id":1}}`), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := performRequest(t, http.MethodPost, "/favorites", "/favorites", NewFavoritesHandler(tt.facade).Toggle, tt.body, jsonHeaders)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}
}

func TestFavoritesHandlerRemove(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		status int
	}{
		{name: "removed", target: "/favorites/5", status: http.StatusNoContent},
		{name: "bad id", target: "/favorites/abc", status: http.StatusBadRequest},
		{name: "missing", target: "/favorites/5", err: domainErrors.ErrNotFound, status: http.StatusNotFound},
		{name: "internal", target: "/favorites/5", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var removed int64
			facade := &handlerstest.UserSearchFacadeStub{RemoveFavoriteFn: func(_ context.Context, id int64) error {
				removed = id
				return tt.err
			}}
			resp := performRequest(t, http.MethodDelete, "/favorites/:id", tt.target, NewFavoritesHandler(facade).Remove, nil, nil)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
			if tt.status != http.StatusBadRequest && removed != 5 {
				t.Fatalf("expected id 5 forwarded, got %d", removed)
			}
		})
	}
}

func TestDetailHandlerGet(t *testing.T) {
	name := "The Octocat"
	followers := 1500
	facade := &handlerstest.UserSearchFacadeStub{UserDetailFn: func(_ context.Context, login string) (usecase.DetailResult, error) {
		user := model.User{ID: 1, Login: login, Name: &name, Followers: &followers}
		return usecase.DetailResult{
			State:   usecase.DetailState{User: user, Detailed: true, IsFavorite: true},
			Profile: model.NewProfile(user, &user),
		}, nil
	}}
	resp := performRequest(t, http.MethodGet, "/users/:login", "/users/octocat", NewDetailHandler(facade).Get, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var decoded dto.DetailResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.User.Login != "octocat" || !decoded.Detailed || !decoded.IsFavorite {
		t.Fatalf("unexpected response: %+v", decoded)
	}
	if decoded.Profile.DisplayName != name {
		t.Fatalf("unexpected display name %q", decoded.Profile.DisplayName)
	}
	if decoded.Profile.Followers == nil || *decoded.Profile.Followers != "1.5K" {
		t.Fatalf("unexpected followers %v", decoded.Profile.Followers)
	}
}

func TestDetailHandlerGetSettledFailure(t *testing.T) {
	facade := &handlerstest.UserSearchFacadeStub{UserDetailFn: func(_ context.Context, login string) (usecase.DetailResult, error) {
		return usecase.DetailResult{State: usecase.DetailState{
			User:         model.User{Login: login},
			ErrorMessage: domainErrors.ErrRateLimitExceeded.Message(),
		}}, nil
	}}
	resp := performRequest(t, http.MethodGet, "/users/:login", "/users/octocat", NewDetailHandler(facade).Get, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var decoded dto.DetailResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.ErrorMessage != domainErrors.ErrRateLimitExceeded.Message() || decoded.Detailed {
		t.Fatalf("unexpected response: %+v", decoded)
	}
}

func TestDetailHandlerGetFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "invalid", err: domainErrors.ErrInvalidRequest, status: http.StatusBadRequest},
		{name: "timeout", err: context.DeadlineExceeded, status: http.StatusGatewayTimeout},
		{name: "internal", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := &handlerstest.UserSearchFacadeStub{UserDetailFn: func(context.Context, string) (usecase.DetailResult, error) {
				return usecase.DetailResult{}, tt.err
			}}
			resp := performRequest(t, http.MethodGet, "/users/:login", "/users/x", NewDetailHandler(facade).Get, nil, nil)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}
}

func TestAvatarHandlerGet(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G'}
	var requested string
	facade := &handlerstest.UserSearchFacadeStub{AvatarFn: func(_ context.Context, rawURL string) (*imagecache.Image, error) {
		requested = rawURL
		return &imagecache.Image{URL: rawURL, Format: "png", Data: data}, nil
	}}
	resp := performRequest(t, http.MethodGet, "/avatars", "/avatars?url=https%3A%2F%2Favatars.example.com%2Fu%2F1", NewAvatarHandler(facade).Get, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if requested != "https://avatars.example.com/u/1" {
		t.Fatalf("unexpected url forwarded %q", requested)
	}
	if got := resp.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("unexpected content type %q", got)
	}
	if resp.Header().Get("Cache-Control") == "" {
		t.Fatal("expected cache headers")
	}
	if !bytes.Equal(resp.Body.Bytes(), data) {
		t.Fatalf("unexpected body %v", resp.Body.Bytes())
	}
}

func TestAvatarHandlerGetFailures(t *testing.T) {
	tests := []struct {
		name   string
		target string
		img    *imagecache.Image
		err    error
		status int
	}{
		{name: "missing url", target: "/avatars", status: http.StatusBadRequest},
		{name: "unavailable", target: "/avatars?url=x", status: http.StatusNotFound},
		{name: "timeout", target: "/avatars?url=x", err: context.DeadlineExceeded, status: http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := &handlerstest.UserSearchFacadeStub{AvatarFn: func(context.Context, string) (*imagecache.Image, error) {
				return tt.img, tt.err
			}}
			resp := performRequest(t, http.MethodGet, "/avatars", tt.target, NewAvatarHandler(facade).Get, nil, nil)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}
}

func TestHealthHandlerCheck(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/healthz", "/healthz", NewHealthHandler(&handlerstest.UserSearchFacadeStub{}).Check, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	facade := &handlerstest.UserSearchFacadeStub{HealthFn: func(context.Context) error { return errors.New("db down") }}
	resp = performRequest(t, http.MethodGet, "/healthz", "/healthz", NewHealthHandler(facade).Check, nil, nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", resp.Code)
	}
}
