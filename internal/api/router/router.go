package router

import (
	"github.com/wb-go/wbf/ginext"

	"pdfpress/internal/api/handlers/compress"
	"pdfpress/internal/middleware"
)

// Setup builds the HTTP routing tree.
func Setup(h *compress.Handler) *ginext.Engine {
	r := ginext.New()

	r.Use(middleware.CORSMiddleware())
	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	r.GET("/", h.Index)

	api := r.Group("/api")

	api.POST("/compress", h.Compress)          // upload + run one compression job
	api.GET("/jobs", h.Recent)                 // recent job history
	api.GET("/jobs/:id", h.Job)                // job metadata
	api.GET("/jobs/:id/download", h.Download)  // compressed bytes
	api.GET("/status", h.Status)               // tool availability + stats

	return r
}
