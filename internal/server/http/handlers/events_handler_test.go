package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/usersearch/internal/domain/model"
	"github.com/polkiloo/usersearch/internal/server/http/dto"
	"github.com/polkiloo/usersearch/internal/server/http/handlers/handlerstest"
	"github.com/polkiloo/usersearch/internal/usecase"
)

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, scanner *bufio.Scanner, n int) []sseEvent {
	t.Helper()
	var (
		events  []sseEvent
		current sseEvent
	)
	for len(events) < n && scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			current.name = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			current.data = strings.TrimPrefix(line, "data:")
		case line == "" && current.name != "":
			events = append(events, current)
			current = sseEvent{}
		}
	}
	if len(events) < n {
		t.Fatalf("expected %d events, got %d (%v)", n, len(events), scanner.Err())
	}
	return events
}

func TestEventsHandlerStream(t *testing.T) {
	facade := &handlerstest.UserSearchFacadeStub{
		SearchEvents: []usecase.SearchState{
			{Query: "oct", Phase: usecase.PhaseDebouncing},
			{Query: "octo", Results: []model.User{{ID: 9, Login: "octocat"}}, Phase: usecase.PhaseSucceeded},
		},
		FavoritesEvents: []usecase.FavoritesState{{}},
		IsFavoriteFn:    func(id int64) bool { return id == 9 },
	}

	router := gin.New()
	router.GET("/events", NewEventsHandler(facade, nil, time.Minute).Stream)
	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/events", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}

	events := readEvents(t, bufio.NewScanner(resp.Body), 2)
	if events[0].name != searchEvent || events[1].name != favoritesEvent {
		t.Fatalf("unexpected event order: %+v", events)
	}

	var search dto.SearchResponse
	if err := json.Unmarshal([]byte(events[0].data), &search); err != nil {
		t.Fatalf("decode search event: %v", err)
	}
	if search.Query != "octo" || len(search.Results) != 1 || !search.Results[0].IsFavorite {
		t.Fatalf("expected coalesced latest search state, got %+v", search)
	}

	var favorites dto.FavoritesResponse
	if err := json.Unmarshal([]byte(events[1].data), &favorites); err != nil {
		t.Fatalf("decode favorites event: %v", err)
	}
	if favorites.Message != usecase.EmptyFavoritesMessage {
		t.Fatalf("unexpected favorites event: %+v", favorites)
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for facade.Unsubscribed() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected both subscriptions cancelled, got %d", facade.Unsubscribed())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEventQueueCoalesces(t *testing.T) {
	q := newEventQueue()
	q.put("a", 1)
	q.put("b", 2)
	q.put("a", 3)

	select {
	case <-q.notify:
	default:
		t.Fatal("expected notification")
	}

	events := q.drain()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].name != "a" || events[0].data != 3 || events[1].name != "b" {
		t.Fatalf("unexpected events %+v", events)
	}
	if len(q.drain()) != 0 {
		t.Fatal("expected queue to be empty after drain")
	}
}
