package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/medworld/product-search/internal/http/handlers"
	httpMW "github.com/medworld/product-search/internal/http/middleware"
	"github.com/medworld/product-search/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    string
	ProductHandler *httpH.ProductHandler
	SearchHandler  *httpH.SearchHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	r.GET("/healthcheck", httpH.HealthCheck)

	api := r.Group("/api")
	{
		// Read paths
		if cfg.ProductHandler != nil {
			api.GET("/products", cfg.ProductHandler.List)
		}
		if cfg.SearchHandler != nil {
			api.GET("/search", cfg.SearchHandler.Search)
			api.POST("/search/image", cfg.SearchHandler.SearchByImage)
		}

		// Write paths
		if cfg.ProductHandler != nil {
			api.POST("/products", cfg.ProductHandler.Insert)
			api.PUT("/products/:id", cfg.ProductHandler.Update)
			api.POST("/products/:id/soft-delete", cfg.ProductHandler.SoftDelete)
			api.DELETE("/products/:id", cfg.ProductHandler.Delete)
		}
	}

	return r
}
