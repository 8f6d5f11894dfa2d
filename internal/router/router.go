package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/timetable-engine/internal/handler"
	"github.com/noah-isme/timetable-engine/internal/middleware"
	"github.com/noah-isme/timetable-engine/internal/service"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth      *handler.AuthHandler
	Timetable *handler.TimetableHandler
	Export    *handler.ExportHandler
	Metrics   *handler.MetricsHandler
}

// Options toggles optional surfaces.
type Options struct {
	APIPrefix        string
	ExposeDocs       bool
	ExposeMetrics    bool
	SchedulerEnabled bool
	ExportsEnabled   bool
}

// Register mounts probes, docs, metrics and the versioned API on r.
func Register(r *gin.Engine, tokens middleware.TokenValidator, metrics *service.MetricsService, h Handlers, opts Options) {
	r.Use(middleware.Metrics(metrics, "/metrics"))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	if opts.ExposeMetrics {
		r.GET("/metrics", h.Metrics.Prometheus)
	}
	if opts.ExposeDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(opts.APIPrefix, "/")
	if prefix == "/" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.GET("/me", middleware.JWT(tokens), h.Auth.Me)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))
	admin := middleware.RequireAdmin()

	timetables := secured.Group("/timetables")
	if opts.SchedulerEnabled {
		timetables.POST("/generate", admin, h.Timetable.Generate)
	}
	timetables.POST("/analyze", admin, h.Timetable.Analyze)
	timetables.POST("", admin, h.Timetable.Save)
	timetables.GET("", h.Timetable.List)
	timetables.GET("/:id", h.Timetable.Get)
	timetables.GET("/:id/sessions", h.Timetable.Sessions)
	timetables.GET("/:id/analytics", h.Timetable.Analytics)
	timetables.POST("/:id/publish", admin, h.Timetable.Publish)
	timetables.DELETE("/:id", admin, h.Timetable.Delete)

	if opts.ExportsEnabled && h.Export != nil {
		timetables.POST("/:id/exports", admin, h.Export.Create)
		secured.GET("/exports/:id", h.Export.Status)
		// the signed token is the credential, so downloads skip JWT
		api.GET("/export/:token", h.Export.Download)
	}
}
