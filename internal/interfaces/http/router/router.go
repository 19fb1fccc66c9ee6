package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// RouteInfo describes one mounted route
type RouteInfo struct {
	Group  string
	Method string
	Path   string
}

// Router mounts resource groups on a gin engine under an optional prefix
type Router struct {
	engine *gin.Engine
	prefix string
	groups []*ResourceGroup
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithPrefix mounts every group under prefix, for example "/api/v1".
// Groups are mounted at the root by default.
func WithPrefix(prefix string) RouterOption {
	return func(r *Router) {
		r.prefix = prefix
	}
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mount queues groups for Setup
func (r *Router) Mount(groups ...*ResourceGroup) *Router {
	r.groups = append(r.groups, groups...)
	return r
}

// Setup registers every queued group and returns what was mounted
func (r *Router) Setup() []RouteInfo {
	base := r.engine.Group(r.prefix)
	var mounted []RouteInfo
	for _, g := range r.groups {
		mounted = append(mounted, g.mount(base)...)
	}
	return mounted
}

// ResourceGroup holds the routes of one resource, such as /funds
type ResourceGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewResourceGroup creates a group; middleware runs before every route in it
func NewResourceGroup(name, prefix string, middleware ...gin.HandlerFunc) *ResourceGroup {
	return &ResourceGroup{name: name, prefix: prefix, middleware: middleware}
}

// Handle adds a route for any method
func (g *ResourceGroup) Handle(method, relativePath string, handlers ...gin.HandlerFunc) *ResourceGroup {
	g.routes = append(g.routes, route{method: method, path: relativePath, handlers: handlers})
	return g
}

func (g *ResourceGroup) GET(relativePath string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.Handle(http.MethodGet, relativePath, handlers...)
}

func (g *ResourceGroup) POST(relativePath string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.Handle(http.MethodPost, relativePath, handlers...)
}

func (g *ResourceGroup) PUT(relativePath string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.Handle(http.MethodPut, relativePath, handlers...)
}

func (g *ResourceGroup) mount(parent *gin.RouterGroup) []RouteInfo {
	rg := parent.Group(g.prefix, g.middleware...)
	mounted := make([]RouteInfo, 0, len(g.routes))
	for _, rt := range g.routes {
		rg.Handle(rt.method, rt.path, rt.handlers...)
		full := path.Join(rg.BasePath(), rt.path)
		mounted = append(mounted, RouteInfo{Group: g.name, Method: rt.method, Path: full})
	}
	return mounted
}
