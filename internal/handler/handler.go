package handler

import (
	"context"

	"sentiment-lens/internal/domain"
	"sentiment-lens/internal/export"
	"sentiment-lens/internal/metrics"
	"sentiment-lens/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.Analysis, error)
	Assets() []domain.Asset
	Defaults() service.Defaults
}

type Uploader interface {
	Upload(ctx context.Context, a *domain.Analysis, art *export.Artifact) (string, error)
}

type Handler struct {
	tracer      trace.Tracer
	analysis    Analyzer
	uploader    Uploader
	compression string
}

// New builds the HTTP handlers. uploader may be nil, which disables
// ?upload=true on the export route.
func New(tracer trace.Tracer, analysis Analyzer, uploader Uploader, compression string) *Handler {
	return &Handler{
		tracer:      tracer,
		analysis:    analysis,
		uploader:    uploader,
		compression: compression,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/assets", h.ListAssets)
	api.GET("/analysis/:symbol", h.GetAnalysis)
	api.GET("/analysis/:symbol/export", h.ExportAnalysis)
}
