package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/usersearch/internal/server/http/dto"
	"github.com/polkiloo/usersearch/internal/usecase"
)

const (
	searchEvent    = "search"
	favoritesEvent = "favorites"
	pingEvent      = "ping"

	// DefaultHeartbeat is the idle interval between keep-alive pings.
	DefaultHeartbeat = 25 * time.Second
)

// EventsHandler pushes search and favorites state as server-sent events.
type EventsHandler struct {
	facade    EventsFacade
	logger    *slog.Logger
	heartbeat time.Duration
}

// NewEventsHandler constructs EventsHandler.
func NewEventsHandler(facade EventsFacade, logger *slog.Logger, heartbeat time.Duration) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &EventsHandler{facade: facade, logger: logger, heartbeat: heartbeat}
}

// Stream handles GET /api/events. Each subscriber starts with the current
// state of both streams; later updates of the same stream coalesce while the
// client is slow.
func (h *EventsHandler) Stream(c *gin.Context) {
	q := newEventQueue()

	unsubSearch := h.facade.SubscribeSearch(func(s usecase.SearchState) {
		q.put(searchEvent, dto.NewSearchResponse(s, h.facade.IsFavorite))
	})
	defer unsubSearch()

	unsubFavorites := h.facade.SubscribeFavorites(func(s usecase.FavoritesState) {
		resp := dto.FavoritesResponse{Favorites: s.Favorites}
		if len(s.Favorites) == 0 && !s.IsLoading {
			resp.Message = usecase.EmptyFavoritesMessage
		}
		q.put(favoritesEvent, resp)
	})
	defer unsubFavorites()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-q.notify:
			for _, ev := range q.drain() {
				c.SSEvent(ev.name, ev.data)
			}
			return true
		case <-ticker.C:
			c.SSEvent(pingEvent, time.Now().Unix())
			return true
		}
	})

	if h.logger != nil {
		h.logger.Debug("event stream closed", slog.String("remote", c.ClientIP()))
	}
}

type event struct {
	name string
	data any
}

// eventQueue keeps the latest payload per event name in first-seen order.
type eventQueue struct {
	mu      sync.Mutex
	order   []string
	pending map[string]any
	notify  chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{pending: make(map[string]any), notify: make(chan struct{}, 1)}
}

func (q *eventQueue) put(name string, data any) {
	q.mu.Lock()
	if _, ok := q.pending[name]; !ok {
		q.order = append(q.order, name)
	}
	q.pending[name] = data
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *eventQueue) drain() []event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]event, 0, len(q.order))
	for _, name := range q.order {
		out = append(out, event{name: name, data: q.pending[name]})
	}
	q.order = q.order[:0]
	clear(q.pending)
	return out
}
