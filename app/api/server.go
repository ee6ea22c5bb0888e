package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docgrader/app/cfg"
)

// NewServer creates the HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.GetHealth)

	api := r.Group("/api")
	if apiAccessKey != "" {
		api.Use(authMiddleware(apiAccessKey))
		slog.Info("API authentication enabled")
	} else {
		slog.Warn("API authentication disabled (API_ACCESS_KEY not set)")
	}

	scrape := api.Group("/scrape")
	{
		scrape.POST("", handler.StartScrape)
		scrape.POST("/trigger/:name", handler.TriggerSource)
		scrape.GET("/status", handler.ListJobs)
		scrape.GET("/status/:job_id", handler.GetJobStatus)
		scrape.GET("/items", handler.ListItems)
		scrape.GET("/statistics", handler.GetStatistics)
	}

	ratingGroup := api.Group("/rating")
	{
		ratingGroup.POST("/rate/:item_id", handler.RateItem)
		ratingGroup.POST("/rate-all", handler.RateAll)
		ratingGroup.GET("/summary", handler.GetRatingSummary)
		ratingGroup.GET("/low-quality", handler.GetLowQuality)
		ratingGroup.GET("/history/:item_id", handler.GetRatingHistory)
		ratingGroup.POST("/re-evaluate/:item_id", handler.ReEvaluate)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "DocGrader",
			"version":     cfg.GetVersion(),
			"description": "Web scraping and multi-criteria quality rating for legal documents",
			"endpoints": map[string]string{
				"scrape":     "/api/scrape (POST)",
				"trigger":    "/api/scrape/trigger/<source> (POST)",
				"status":     "/api/scrape/status/<job_id>",
				"items":      "/api/scrape/items",
				"statistics": "/api/scrape/statistics",
				"rate":       "/api/rating/rate/<item_id> (POST)",
				"summary":    "/api/rating/summary",
				"health":     "/health",
			},
			"api_status": map[string]interface{}{
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	// Return 204 to avoid 404s
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// authMiddleware creates authentication middleware for API endpoints
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		// Also check Authorization header with Bearer prefix
		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
