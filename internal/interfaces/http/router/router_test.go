package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	NewRouter(engine).Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroupMethods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("test", "/test")
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
	g.GET("/items", ok).
		POST("/items", ok).
		PUT("/items/:id", ok).
		DELETE("/items/:id", ok).
		Handle(http.MethodPatch, "/items/:id", ok)
	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/test/items"},
		{http.MethodPost, "/api/v1/test/items"},
		{http.MethodPut, "/api/v1/test/items/1"},
		{http.MethodDelete, "/api/v1/test/items/1"},
		{http.MethodPatch, "/api/v1/test/items/1"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.method, w.Body.String())
		})
	}
}

func TestDomainGroupMiddlewareAndSubgroups(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("import", "/import")
	g.Use(func(c *gin.Context) {
		c.Header("X-Group", "import")
		c.Next()
	})
	g.Group("logs", "/logs").GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "logs")
	})
	g.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodGet, "/api/v1/import/logs")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "logs", w.Body.String())
	assert.Equal(t, "import", w.Header().Get("X-Group"))
	assert.Equal(t, "import", g.Name())
	assert.Equal(t, "/import", g.Prefix())
}

func TestRegisterAll(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.RegisterAll(Handlers{
		System:       handler.NewSystemHandler("order-service", "test", nil),
		Orders:       handler.NewOrderHandler(nil),
		FieldMapping: handler.NewFieldMappingHandler(nil),
		Import:       handler.NewImportHandler(nil, nil, nil, nil, handler.UploadConfig{}),
	}).Setup()

	routes := r.Routes()
	want := []RouteInfo{
		{http.MethodGet, "/api/v1/health"},
		{http.MethodGet, "/api/v1/system/info"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/orders/statistics"},
		{http.MethodDelete, "/api/v1/orders/:id"},
		{http.MethodPost, "/api/v1/import/upload"},
		{http.MethodPost, "/api/v1/import/upload-with-mapping"},
		{http.MethodPost, "/api/v1/import/preview"},
		{http.MethodGet, "/api/v1/import/logs"},
		{http.MethodGet, "/api/v1/import/logs/:batchId/errors.csv"},
		{http.MethodGet, "/api/v1/import/logs/:batchId/source"},
		{http.MethodGet, "/api/v1/field-mappings/system-fields"},
		{http.MethodGet, "/api/v1/field-mappings/templates/default/:kind"},
		{http.MethodGet, "/api/v1/field-mappings/templates/by-name/:name"},
		{http.MethodPut, "/api/v1/field-mappings/templates/:id"},
		{http.MethodPost, "/api/v1/field-mappings/templates/:id/set-default"},
	}
	for _, rt := range want {
		assert.Contains(t, routes, rt)
	}
	assert.Len(t, routes, 24)

	w := serve(engine, http.MethodGet, "/api/v1/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterAllSkipsMissingHandlers(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.RegisterAll(Handlers{Orders: handler.NewOrderHandler(nil)}).Setup()

	assert.Len(t, r.Routes(), 6)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/health").Code)
}
