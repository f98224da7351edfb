package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/speechsmith/speechsmith-backend/internal/http/handlers"
	httpMW "github.com/speechsmith/speechsmith-backend/internal/http/middleware"
	"github.com/speechsmith/speechsmith-backend/internal/observability"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	HealthHandler   *httpH.HealthHandler
	SpeechHandler   *httpH.SpeechHandler
	IssueHandler    *httpH.IssueHandler
	JobHandler      *httpH.JobHandler
	RealtimeHandler *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health (public)
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// Everything under /api carries a gateway-stamped identity.
	api := r.Group("/api")
	api.Use(httpMW.RequireIdentity())

	if cfg.SpeechHandler != nil {
		api.POST("/speeches", cfg.SpeechHandler.CreateSpeech)
		api.GET("/speeches", cfg.SpeechHandler.ListSpeeches)
		api.GET("/speeches/:id", cfg.SpeechHandler.GetSpeech)
		api.POST("/speeches/:id/analyze", cfg.SpeechHandler.AnalyzeSpeech)
		api.POST("/speeches/:id/humanize", cfg.SpeechHandler.Humanize)
		api.POST("/speeches/:id/humanize/async", cfg.SpeechHandler.HumanizeAsync)
		api.GET("/speeches/:id/passes", cfg.SpeechHandler.ListPasses)
		api.GET("/speeches/:id/export/validate", cfg.SpeechHandler.ValidateExport)
		api.GET("/speeches/:id/issues", cfg.SpeechHandler.ListIssues)
	}

	if cfg.IssueHandler != nil {
		api.POST("/issues/:id/resolve", cfg.IssueHandler.ResolveIssue)
	}

	if cfg.JobHandler != nil {
		api.GET("/jobs/:id", cfg.JobHandler.GetJob)
	}

	if cfg.RealtimeHandler != nil {
		api.GET("/events/stream", cfg.RealtimeHandler.Stream)
	}

	return r
}
