package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/usersearch/internal/server/http/dto"
)

const avatarCacheControl = "private, max-age=3600"

// AvatarHandler proxies avatar images through the shared cache.
type AvatarHandler struct {
	facade AvatarFacade
}

// NewAvatarHandler constructs AvatarHandler.
func NewAvatarHandler(facade AvatarFacade) *AvatarHandler {
	return &AvatarHandler{facade: facade}
}

// Get handles GET /api/avatars?url=.
func (h *AvatarHandler) Get(c *gin.Context) {
	rawURL := strings.TrimSpace(c.Query("url"))
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "url is required"})
		return
	}

	img, err := h.facade.Avatar(c.Request.Context(), rawURL)
	if err != nil {
		c.Status(http.StatusGatewayTimeout)
		return
	}
	if img == nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Header("Cache-Control", avatarCacheControl)
	c.Data(http.StatusOK, img.ContentType(), img.Data)
}
