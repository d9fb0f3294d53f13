package router

import (
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/interfaces/http/handler"
)

// Handlers are the HTTP handlers served under the API prefix
type Handlers struct {
	System       *handler.SystemHandler
	Orders       *handler.OrderHandler
	FieldMapping *handler.FieldMappingHandler
	Import       *handler.ImportHandler
}

// SystemRoutes serves health and build information
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	g := NewDomainGroup("system", "")
	g.GET("/health", h.Health)
	g.GET("/system/info", h.GetSystemInfo)
	return g
}

// OrderRoutes serves order CRUD and statistics
func OrderRoutes(h *handler.OrderHandler) *DomainGroup {
	g := NewDomainGroup("orders", "/orders")
	g.GET("", h.List).
		POST("", h.Create).
		GET("/statistics", h.Statistics).
		GET("/:id", h.Get).
		PUT("/:id", h.Update).
		DELETE("/:id", h.Delete)
	return g
}

// FieldMappingRoutes serves the field catalogue and mapping templates
func FieldMappingRoutes(h *handler.FieldMappingHandler) *DomainGroup {
	g := NewDomainGroup("field-mappings", "/field-mappings")
	g.GET("/system-fields", h.SystemFields)

	templates := g.Group("templates", "/templates")
	templates.GET("", h.ListTemplates).
		POST("", h.CreateTemplate).
		GET("/default/:kind", h.GetDefaultTemplate).
		GET("/by-name/:name", h.GetTemplateByName).
		GET("/:id", h.GetTemplate).
		PUT("/:id", h.UpdateTemplate).
		DELETE("/:id", h.DeleteTemplate).
		POST("/:id/set-default", h.SetDefaultTemplate)
	return g
}

// ImportRoutes serves uploads, previews and import logs
func ImportRoutes(h *handler.ImportHandler) *DomainGroup {
	g := NewDomainGroup("import", "/import")
	g.POST("/upload", h.Upload).
		POST("/upload-with-mapping", h.UploadWithMapping).
		POST("/preview", h.Preview)

	logs := g.Group("logs", "/logs")
	logs.GET("", h.ListLogs).
		GET("/:batchId", h.GetLog).
		GET("/:batchId/errors.csv", h.ErrorsCSV).
		GET("/:batchId/source", h.Source)
	return g
}

// RegisterAll adds every group whose handler is set
func (r *Router) RegisterAll(h Handlers) *Router {
	if h.System != nil {
		r.Register(SystemRoutes(h.System))
	}
	if h.Orders != nil {
		r.Register(OrderRoutes(h.Orders))
	}
	if h.FieldMapping != nil {
		r.Register(FieldMappingRoutes(h.FieldMapping))
	}
	if h.Import != nil {
		r.Register(ImportRoutes(h.Import))
	}
	return r
}
