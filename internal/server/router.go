package server

import (
	"context"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/krsnavtr-code/gallery/internal/blob"
	"github.com/krsnavtr-code/gallery/internal/config"
	"github.com/krsnavtr-code/gallery/internal/logger"
	"github.com/krsnavtr-code/gallery/internal/media"
	"github.com/krsnavtr-code/gallery/internal/metrics"
	"github.com/krsnavtr-code/gallery/internal/tag"
	"go.uber.org/zap"
)

// PingFunc reports whether a backing store is reachable.
type PingFunc func(ctx context.Context) error

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config       config.Config
	Logger       *zap.Logger
	MetadataPing PingFunc
	Blobs        blob.Store
	MediaService *media.Service
	TagService   *tag.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware(deps.Logger))
	router.Use(metrics.Middleware())
	if origins := deps.Config.Server.AllowedOrigins; len(origins) > 0 {
		router.Use(cors.New(corsConfig(origins)))
	}

	registerHealthRoutes(router, deps)
	metrics.InitMetrics()
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)
	if deps.Blobs != nil {
		registerStaticRoutes(router, deps.Config.Blob.PublicPrefix, deps.Blobs, deps.Logger)
	}

	api := router.Group("/api/v1")
	if deps.MediaService != nil {
		media.RegisterRoutes(api, deps.MediaService)
	}
	if deps.TagService != nil {
		tag.RegisterRoutes(api, deps.TagService)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", logger.CorrelationIDHeader},
		ExposeHeaders: []string{"Content-Length", logger.CorrelationIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
