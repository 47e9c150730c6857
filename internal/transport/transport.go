package transport

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/Depado/ginprom"
	"github.com/ds124wfegd/cartoonizer/internal/transport/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type RouterConfig struct {
	// TemplatesDir holds index.html. The upload page is not served when empty.
	TemplatesDir   string
	RequestTimeout time.Duration
	MaxUploadBytes int64
}

func InitRoutes(convertHandler *ConvertHandler, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	if cfg.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	prom := ginprom.New(
		ginprom.Engine(router),
		ginprom.Registry(prometheus.NewRegistry()),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/health", "/metrics"),
	)

	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(prom.Instrument())

	if cfg.TemplatesDir != "" {
		router.LoadHTMLGlob(filepath.Join(cfg.TemplatesDir, "*.html"))
		router.GET("/", convertHandler.Index)
	}

	api := router.Group("/api/v1")
	{
		api.GET("/styles", convertHandler.GetStyles)

		convert := api.Group("/convert", middleware.Timeout(cfg.RequestTimeout))
		{
			convert.POST("", convertHandler.Convert)
			convert.POST("/archive", convertHandler.ConvertArchive)
			convert.POST("/:style", convertHandler.ConvertStyle)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "cartoonizer",
		})
	})
	return router
}
