package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/passport-office-api/internal/middleware"
	"github.com/noah-isme/passport-office-api/internal/service"
	"github.com/noah-isme/passport-office-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/passport-office-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/passport-office-api/pkg/middleware/requestid"
)

// RouterConfig carries what NewRouter needs to mount the API.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableExport   bool
	EnableDocs     bool
	Logger         *zap.Logger
	Metrics        *service.MetricsService
}

// NewRouter builds the gin engine with the middleware chain and every route.
// A nil persons service leaves /ready without a store check; the /persons
// routes require a non-nil service.
func NewRouter(persons *service.PersonService, cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))

	var ready ReadinessChecker
	if persons != nil {
		ready = persons
	}
	ops := NewMetricsHandler(cfg.Metrics, ready)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	h := NewPersonHandler(persons)
	personsGroup := api.Group("/persons")
	personsGroup.GET("", h.List)
	personsGroup.GET("/search", h.Search)
	if cfg.EnableExport {
		personsGroup.GET("/export", h.Export)
	}
	personsGroup.GET("/:id", h.Get)
	personsGroup.POST("", h.Create)
	personsGroup.POST("/batch", h.Batch)
	personsGroup.PUT("/:id", h.Update)
	personsGroup.DELETE("/:id", h.Delete)
	personsGroup.DELETE("", h.RemoveAll)

	return r
}
