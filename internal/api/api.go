// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/autoreplenish/internal/api/handlers"
	"github.com/andresuchdata/autoreplenish/internal/api/middleware"
	"github.com/andresuchdata/autoreplenish/internal/replenishment"
	"github.com/andresuchdata/autoreplenish/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	NeedService         *service.NeedService
	DistributionService *service.DistributionService
	// Live is optional; without it the /needs/live routes answer 503.
	Live *service.Recomputer

	PlanningDefaults     replenishment.PlanningConfig
	DistributionDefaults replenishment.PlanningConfig
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")
	apiGroup.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if services != nil {
		if services.NeedService != nil {
			needHandler := handlers.NewNeedHandler(services.NeedService, services.Live, services.PlanningDefaults)
			needGroup := apiGroup.Group("/needs")
			{
				needGroup.GET("/hierarchy", needHandler.GetHierarchy)
				needGroup.GET("/live", needHandler.GetLive)
				needGroup.PUT("/live/config", needHandler.UpdateLiveConfig)
			}
			apiGroup.GET("/stores", needHandler.GetStores)
			apiGroup.POST("/orders", needHandler.SubmitOrder)
		}

		if services.DistributionService != nil {
			distributionHandler := handlers.NewDistributionHandler(services.DistributionService, services.DistributionDefaults)
			distributionGroup := apiGroup.Group("/distributions")
			{
				distributionGroup.POST("/preview", distributionHandler.Preview)
				distributionGroup.POST("", distributionHandler.Commit)
				distributionGroup.GET("/:id", distributionHandler.Get)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
