package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/usersearch/internal/domain/errors"
	"github.com/polkiloo/usersearch/internal/server/http/dto"
	"github.com/polkiloo/usersearch/internal/usecase"
)

// FavoritesHandler manages favorites endpoints.
type FavoritesHandler struct {
	facade FavoritesFacade
}

// NewFavoritesHandler constructs FavoritesHandler.
func NewFavoritesHandler(facade FavoritesFacade) *FavoritesHandler {
	return &FavoritesHandler{facade: facade}
}

// List handles GET /api/favorites.
func (h *FavoritesHandler) List(c *gin.Context) {
	users, err := h.facade.Favorites(c.Request.Context())
	if err != nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	resp := dto.FavoritesResponse{Favorites: users}
	if len(users) == 0 {
		resp.Message = usecase.EmptyFavoritesMessage
	}
	c.JSON(http.StatusOK, resp)
}

// Toggle handles POST /api/favorites.
func (h *FavoritesHandler) Toggle(c *gin.Context) {
	var req dto.ToggleFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.User.ID == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "user id is required"})
		return
	}

	isFavorite, err := h.facade.ToggleFavorite(c.Request.Context(), req.User)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "favorites could not be saved"})
		return
	}
	c.JSON(http.StatusOK, dto.ToggleFavoriteResponse{IsFavorite: isFavorite})
}

// Remove handles DELETE /api/favorites/:id.
func (h *FavoritesHandler) Remove(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid user id"})
		return
	}

	if err := h.facade.RemoveFavorite(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		default:
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "favorites could not be saved"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}
