// Package http assembles the REST surface: the gin route tree, the
// middleware chain, and the server lifecycle.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/prometheus"
	"github.com/harkencre/appraisal-platform/internal/interfaces/http/handlers"
	"github.com/harkencre/appraisal-platform/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies for the
// complete route tree.
type RouterConfig struct {
	AppraisalHandler  *handlers.AppraisalHandler
	CompHandler       *handlers.CompHandler
	EvaluationHandler *handlers.EvaluationHandler
	HealthHandler     *handlers.HealthHandler

	Logger         logging.Logger
	Metrics        *prometheus.Metrics
	Mode           string
	AllowedOrigins []string
}

// NewRouter constructs the route tree: global middleware, public probes,
// /metrics, and the /api/v1 resource groups.
func NewRouter(cfg RouterConfig) http.Handler {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.Logger != nil {
		r.Use(middleware.AccessLog(cfg.Logger))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}

	api := r.Group("/api/v1")
	registerAppraisalRoutes(api, cfg.AppraisalHandler)
	registerCompRoutes(api, cfg.CompHandler)
	registerEvaluationRoutes(api, cfg.EvaluationHandler)

	return r
}

func registerAppraisalRoutes(r *gin.RouterGroup, h *handlers.AppraisalHandler) {
	if h == nil {
		return
	}
	g := r.Group("/appraisals")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.PUT("/:id/zonings", h.ReplaceZonings)
	g.POST("/:id/submit", h.Submit)
	g.POST("/:id/attachments", h.UploadAttachment)
	g.GET("/:id/attachments", h.ListAttachments)
	g.GET("/:id/attachments/:filename", h.AttachmentURL)
	g.DELETE("/:id/attachments/:filename", h.DeleteAttachment)
}

func registerCompRoutes(r *gin.RouterGroup, h *handlers.CompHandler) {
	if h == nil {
		return
	}
	g := r.Group("/comps")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/search", h.Search)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/cover-photo", h.UploadCoverPhoto)
	g.GET("/:id/cover-photo", h.CoverPhotoURL)
}

func registerEvaluationRoutes(r *gin.RouterGroup, h *handlers.EvaluationHandler) {
	if h == nil {
		return
	}
	g := r.Group("/evaluations")
	g.GET("/:id", h.Snapshot)
	g.POST("/:id/preview", h.Preview)
	g.POST("/:id/reconcile", h.Reconcile)
	g.PUT("/:id/approaches/:type", h.SaveApproach)
	g.POST("/:id/approaches/:type/comps", h.LinkComps)
	g.DELETE("/:id/approaches/:type/comps/:compId", h.UnlinkComp)
	g.PUT("/:id/approaches/:type/comps/:compId/adjustment", h.SetAdjustment)
}
