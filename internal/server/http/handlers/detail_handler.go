package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/usersearch/internal/domain/errors"
	"github.com/polkiloo/usersearch/internal/server/http/dto"
)

// DetailHandler serves user profiles.
type DetailHandler struct {
	facade DetailFacade
}

// NewDetailHandler constructs DetailHandler.
func NewDetailHandler(facade DetailFacade) *DetailHandler {
	return &DetailHandler{facade: facade}
}

// Get handles GET /api/users/:login. A failed load is still a settled
// session and is returned with its error message.
func (h *DetailHandler) Get(c *gin.Context) {
	res, err := h.facade.UserDetail(c.Request.Context(), c.Param("login"))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: domainErrors.UserMessage(err)})
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			c.Status(http.StatusGatewayTimeout)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}
	c.JSON(http.StatusOK, dto.NewDetailResponse(res))
}
