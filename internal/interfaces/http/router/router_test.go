package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRouter_Setup(t *testing.T) {
	t.Run("mounts at the root by default", func(t *testing.T) {
		engine := gin.New()
		funds := NewResourceGroup("funds", "/funds").
			GET("", func(c *gin.Context) { c.String(http.StatusOK, "list") }).
			GET("/:id", func(c *gin.Context) { c.String(http.StatusOK, "get "+c.Param("id")) })

		mounted := NewRouter(engine).Mount(funds).Setup()

		assert.Equal(t, []RouteInfo{
			{Group: "funds", Method: http.MethodGet, Path: "/funds"},
			{Group: "funds", Method: http.MethodGet, Path: "/funds/:id"},
		}, mounted)
		assert.Equal(t, "list", serve(engine, http.MethodGet, "/funds").Body.String())
		assert.Equal(t, "get 3", serve(engine, http.MethodGet, "/funds/3").Body.String())
	})

	t.Run("honours the prefix", func(t *testing.T) {
		engine := gin.New()
		funds := NewResourceGroup("funds", "/funds").
			POST("", func(c *gin.Context) { c.Status(http.StatusCreated) })

		mounted := NewRouter(engine, WithPrefix("/api/v1")).Mount(funds).Setup()

		require.Len(t, mounted, 1)
		assert.Equal(t, "/api/v1/funds", mounted[0].Path)
		assert.Equal(t, http.StatusCreated, serve(engine, http.MethodPost, "/api/v1/funds").Code)
		assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodPost, "/funds").Code)
	})

	t.Run("nothing mounted", func(t *testing.T) {
		assert.Empty(t, NewRouter(gin.New()).Setup())
	})
}

func TestResourceGroup_Middleware(t *testing.T) {
	engine := gin.New()
	var order []string
	funds := NewResourceGroup("funds", "/funds", func(c *gin.Context) {
		order = append(order, "group")
		c.Next()
	}).PUT("/:id", func(c *gin.Context) {
		order = append(order, "handler")
		c.Status(http.StatusOK)
	})
	other := NewResourceGroup("system", "/system").
		GET("/info", func(c *gin.Context) { c.Status(http.StatusOK) })

	NewRouter(engine).Mount(funds, other).Setup()

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodPut, "/funds/1").Code)
	assert.Equal(t, []string{"group", "handler"}, order)

	order = nil
	serve(engine, http.MethodGet, "/system/info")
	assert.Empty(t, order, "group middleware must not leak into other groups")
}
