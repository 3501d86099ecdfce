package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immo/backend/internal/infrastructure/config"
	"github.com/immo/backend/internal/infrastructure/logger"
	"github.com/immo/backend/internal/interfaces/http/dto"
	"github.com/immo/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// ErrCodeRouteNotFound is returned for unknown paths
const ErrCodeRouteNotFound = "ROUTE_NOT_FOUND"

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts the registrars under a versioned API group
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware applied to the API group only
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	if len(r.middleware) > 0 {
		api.Use(r.middleware...)
	}
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// NewEngine builds the gin engine with the request ID, logging, recovery and
// body limit middleware installed, and the validator configured for the
// request DTOs. Extra middleware such as tracing runs before all of them.
func NewEngine(cfg config.HTTPConfig, log *zap.Logger, outer ...gin.HandlerFunc) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	if len(outer) > 0 {
		engine.Use(outer...)
	}
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(ErrCodeRouteNotFound,
			"No route for "+c.Request.Method+" "+c.Request.URL.Path, logger.GetRequestID(c.Request.Context())))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponse(ErrCodeRouteNotFound,
			"Method "+c.Request.Method+" not allowed", logger.GetRequestID(c.Request.Context())))
	})
	return engine
}
