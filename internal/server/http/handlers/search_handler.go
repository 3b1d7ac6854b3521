package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/usersearch/internal/server/http/dto"
)

// SearchHandler exposes the search coordinator.
type SearchHandler struct {
	facade SearchFacade
}

// NewSearchHandler constructs SearchHandler.
func NewSearchHandler(facade SearchFacade) *SearchHandler {
	return &SearchHandler{facade: facade}
}

// State handles GET /api/search.
func (h *SearchHandler) State(c *gin.Context) {
	state, err := h.facade.SearchState(c.Request.Context())
	if err != nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, dto.NewSearchResponse(state, h.facade.IsFavorite))
}

// SetQuery handles PUT /api/search. The search itself runs once the input
// settles, so the response reflects the debouncing state.
func (h *SearchHandler) SetQuery(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}

	h.facade.SetQuery(req.Query)

	state, err := h.facade.SearchState(c.Request.Context())
	if err != nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSearchResponse(state, h.facade.IsFavorite))
}

// Clear handles DELETE /api/search.
func (h *SearchHandler) Clear(c *gin.Context) {
	h.facade.ClearSearch()
	c.Status(http.StatusNoContent)
}
