package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 5 * time.Second

type readinessCheck struct {
	component string
	ping      PingFunc
}

// readinessChecks lists the backing stores in the order they are probed.
func readinessChecks(deps Dependencies) []readinessCheck {
	var checks []readinessCheck
	if deps.MetadataPing != nil {
		checks = append(checks, readinessCheck{component: deps.Config.Metadata.Driver, ping: deps.MetadataPing})
	}
	if deps.Blobs != nil {
		checks = append(checks, readinessCheck{component: deps.Config.Blob.Driver, ping: deps.Blobs.Ping})
	}
	return checks
}

func registerHealthRoutes(router *gin.Engine, deps Dependencies) {
	checks := readinessChecks(deps)

	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		for _, check := range checks {
			if err := check.ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":    "degraded",
					"component": check.component,
					"error":     err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "checked": len(checks)})
	})
}
