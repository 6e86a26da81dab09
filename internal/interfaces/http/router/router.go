package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultAPIVersion is the path segment under /api that routes mount on
const DefaultAPIVersion = "v1"

// Mountable is a set of routes attached under the versioned API group
type Mountable interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts resource groups under /api/{version} behind a shared
// middleware chain. Routes added to the engine directly bypass that chain.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	groups     []Mountable
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion overrides DefaultAPIVersion
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		if version != "" {
			r.apiVersion = version
		}
	}
}

// WithAPIMiddleware appends middleware run on every versioned route
func WithAPIMiddleware(middleware ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.middleware = append(r.middleware, middleware...)
	}
}

// NewRouter creates a Router on engine
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: DefaultAPIVersion}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues g for mounting by Setup
func (r *Router) Register(g Mountable) *Router {
	r.groups = append(r.groups, g)
	return r
}

// Setup mounts every registered group
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	api.Use(r.middleware...)
	for _, g := range r.groups {
		g.RegisterRoutes(api)
	}
}

// ResourceGroup collects the routes of one resource before they are mounted.
// Nested groups inherit the parent's path and middleware.
type ResourceGroup struct {
	prefix     string
	routes     []route
	children   []*ResourceGroup
	middleware []gin.HandlerFunc
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewResourceGroup creates a group mounted at prefix
func NewResourceGroup(prefix string) *ResourceGroup {
	return &ResourceGroup{prefix: prefix}
}

// Use adds middleware to the group
func (g *ResourceGroup) Use(middleware ...gin.HandlerFunc) *ResourceGroup {
	g.middleware = append(g.middleware, middleware...)
	return g
}

func (g *ResourceGroup) GET(path string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.handle(http.MethodGet, path, handlers)
}

func (g *ResourceGroup) POST(path string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.handle(http.MethodPost, path, handlers)
}

func (g *ResourceGroup) PUT(path string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.handle(http.MethodPut, path, handlers)
}

func (g *ResourceGroup) DELETE(path string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.handle(http.MethodDelete, path, handlers)
}

func (g *ResourceGroup) handle(method, path string, handlers []gin.HandlerFunc) *ResourceGroup {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

// Nest creates a child group at prefix relative to g
func (g *ResourceGroup) Nest(prefix string) *ResourceGroup {
	child := NewResourceGroup(prefix)
	g.children = append(g.children, child)
	return child
}

// RegisterRoutes implements Mountable
func (g *ResourceGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(g.prefix, g.middleware...)
	for _, rt := range g.routes {
		group.Handle(rt.method, rt.path, rt.handlers...)
	}
	for _, child := range g.children {
		child.RegisterRoutes(group)
	}
}
