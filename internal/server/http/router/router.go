package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/usersearch/internal/server/http/handlers"
	"github.com/polkiloo/usersearch/internal/server/http/middleware"
)

const (
	eventsPath  = "/api/events"
	avatarsPath = "/api/avatars"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.UserSearchFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	// Event streams must flush per event and images are already compressed.
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{eventsPath, avatarsPath})))

	searchHandler := handlers.NewSearchHandler(facade)
	favoritesHandler := handlers.NewFavoritesHandler(facade)
	detailHandler := handlers.NewDetailHandler(facade)
	avatarHandler := handlers.NewAvatarHandler(facade)
	eventsHandler := handlers.NewEventsHandler(facade, logger, handlers.DefaultHeartbeat)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.GET("/healthz", healthHandler.Check)

	api := engine.Group("/api")
	api.GET("/search", searchHandler.State)
	api.PUT("/search", searchHandler.SetQuery)
	api.DELETE("/search", searchHandler.Clear)

	api.GET("/favorites", favoritesHandler.List)
	api.POST("/favorites", favoritesHandler.Toggle)
	api.DELETE("/favorites/:id", favoritesHandler.Remove)

	api.GET("/users/:login", detailHandler.Get)
	api.GET("/avatars", avatarHandler.Get)
	api.GET("/events", eventsHandler.Stream)

	return engine
}
