package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/diagram-search-api/internal/handler"
	"github.com/noah-isme/diagram-search-api/internal/middleware"
	"github.com/noah-isme/diagram-search-api/internal/models"
	"github.com/noah-isme/diagram-search-api/internal/service"
	"github.com/noah-isme/diagram-search-api/internal/session"
	"github.com/noah-isme/diagram-search-api/pkg/config"
	"github.com/noah-isme/diagram-search-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/diagram-search-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/diagram-search-api/pkg/middleware/requestid"
)

// AppHandlers groups the HTTP handlers mounted by Setup.
type AppHandlers struct {
	Auth    *handler.AuthHandler
	Catalog *handler.CatalogHandler
	Search  *handler.SearchHandler
	Metrics *handler.MetricsHandler
}

// Dependencies are the collaborators the router needs besides handlers.
type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	Sessions *session.Manager
	Auth     *service.AuthService
	Metrics  *service.MetricsService
}

// Setup builds the gin engine with the global middleware chain and every route.
func Setup(deps Dependencies, h AppHandlers) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.WithResponseMeta())
	r.Use(corsmiddleware.New(deps.Config.CORS.AllowedOrigins))
	r.Use(middleware.Authenticate(deps.Sessions, deps.Auth, deps.Logger))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if deps.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/", h.Auth.Root)
	r.GET("/login", h.Auth.LoginForm)
	r.POST("/register", h.Auth.Register)
	r.POST("/login", h.Auth.Login)
	r.GET("/logout", h.Auth.Logout)

	r.GET("/get_keywords", h.Catalog.Keywords)

	authenticated := r.Group("/", middleware.RequireAuth())
	authenticated.GET("/index", h.Catalog.Index)
	authenticated.GET("/get_image", h.Search.Exact)
	authenticated.GET("/get_image_random", h.Search.Random)

	teacherOnly := r.Group("/", middleware.RequireRoles(models.RoleTeacher))
	teacherOnly.GET("/get_image_custom", h.Search.Custom)
	teacherOnly.GET("/catalog/export", h.Catalog.Export)

	if deps.Config.Approval.RequireTeacher {
		teacherOnly.POST("/approve_prompt", h.Catalog.Approve)
	} else {
		r.POST("/approve_prompt", h.Catalog.Approve)
	}

	return r
}
