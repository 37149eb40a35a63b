package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration. Routes fall into three
// surfaces: the versioned operator API, the public surface (access
// requests and verification lookups), and the portal surface gated by
// the session middleware.
type Router struct {
	engine           *gin.Engine
	apiVersion       string
	apiRegistrars    []RouteRegistrar
	publicRegistrars []RouteRegistrar
	portalRegistrars []RouteRegistrar
	portalMiddleware []gin.HandlerFunc
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

// RegisterAPI adds a registrar under the versioned operator API
func (r *Router) RegisterAPI(registrar RouteRegistrar) *Router {
	r.apiRegistrars = append(r.apiRegistrars, registrar)
	return r
}

// RegisterPublic adds a registrar at the root of the public surface
func (r *Router) RegisterPublic(registrar RouteRegistrar) *Router {
	r.publicRegistrars = append(r.publicRegistrars, registrar)
	return r
}

// RegisterPortal adds a registrar under /portal, behind the portal
// middleware chain
func (r *Router) RegisterPortal(registrar RouteRegistrar) *Router {
	r.portalRegistrars = append(r.portalRegistrars, registrar)
	return r
}

// UsePortal appends middleware applied to every portal route
func (r *Router) UsePortal(middleware ...gin.HandlerFunc) *Router {
	r.portalMiddleware = append(r.portalMiddleware, middleware...)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.apiRegistrars {
		registrar.RegisterRoutes(api)
	}

	public := r.engine.Group("/")
	for _, registrar := range r.publicRegistrars {
		registrar.RegisterRoutes(public)
	}

	portal := r.engine.Group("/portal")
	portal.Use(r.portalMiddleware...)
	for _, registrar := range r.portalRegistrars {
		registrar.RegisterRoutes(portal)
	}
}
