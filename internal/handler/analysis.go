package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"sentiment-lens/internal/domain"
	"sentiment-lens/internal/export"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ListAssets godoc
// @Summary      List tracked assets
// @Description  Returns the ticker dictionary and the request defaults
// @Tags         analysis
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /api/assets [get]
func (h *Handler) ListAssets(c *gin.Context) {
	d := h.analysis.Defaults()
	c.JSON(http.StatusOK, gin.H{
		"assets":    h.analysis.Assets(),
		"forums":    d.Forums,
		"limit":     d.Limit,
		"period":    d.Period,
		"interval":  d.Interval,
		"periods":   domain.SupportedPeriods,
		"intervals": domain.SupportedIntervals,
	})
}

// GetAnalysis godoc
// @Summary      Sentiment and price alignment for an asset
// @Description  Scores forum mentions of the asset and joins each score to the latest close at or before it
// @Tags         analysis
// @Produce      json
// @Security     ApiKeyAuth
// @Param        symbol    path   string  true   "Asset symbol (e.g., BTC) or Yahoo ticker (e.g., PEPE-USD)"
// @Param        forums    query  string  false  "Comma-separated forums (subreddit names or rss:<url>)"
// @Param        limit     query  int     false  "Items per forum (1-500)"
// @Param        period    query  string  false  "Lookback (1d, 5d, 7d, 1mo, 3mo, 6mo, 1y)"
// @Param        interval  query  string  false  "Price interval (5m, 15m, 30m, 1h, 4h, 1d)"
// @Param        source    query  string  false  "Price source (yahoo, coingecko, binance)"
// @Success      200  {object}  domain.Analysis
// @Failure      400  {object}  errorBody
// @Failure      502  {object}  errorBody
// @Router       /api/analysis/{symbol} [get]
func (h *Handler) GetAnalysis(c *gin.Context) {
	analysis, ok := h.run(c, "handler.get-analysis")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// ExportAnalysis godoc
// @Summary      Export an analysis as CSV or Parquet
// @Description  Runs the analysis and returns the aligned records as a file, or uploads it to S3 when upload=true
// @Tags         analysis
// @Produce      octet-stream
// @Security     ApiKeyAuth
// @Param        symbol    path   string  true   "Asset symbol"
// @Param        format    query  string  false  "csv or parquet"  default(csv)
// @Param        upload    query  bool    false  "Upload to the configured S3 bucket"
// @Param        forums    query  string  false  "Comma-separated forums"
// @Param        limit     query  int     false  "Items per forum (1-500)"
// @Param        period    query  string  false  "Lookback"
// @Param        interval  query  string  false  "Price interval"
// @Param        source    query  string  false  "Price source"
// @Success      200  {file}    file
// @Failure      400  {object}  errorBody
// @Failure      502  {object}  errorBody
// @Router       /api/analysis/{symbol}/export [get]
func (h *Handler) ExportAnalysis(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", export.FormatCSV))
	if format != export.FormatCSV && format != export.FormatParquet {
		writeError(c, fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidRequest, format))
		return
	}
	upload := c.Query("upload") == "true"
	if upload && h.uploader == nil {
		writeError(c, fmt.Errorf("%w: S3 export is not configured", domain.ErrInvalidRequest))
		return
	}

	analysis, ok := h.run(c, "handler.export-analysis")
	if !ok {
		return
	}
	art, err := export.Encode(analysis, format, h.compression)
	if err != nil {
		writeError(c, err)
		return
	}

	if upload {
		uri, err := h.uploader.Upload(c.Request.Context(), analysis, art)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"run_id": analysis.RunID, "uri": uri, "records": len(analysis.Records)})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, art.Name))
	c.Data(http.StatusOK, art.ContentType, art.Data)
}

func (h *Handler) run(c *gin.Context, spanName string) (*domain.Analysis, bool) {
	ctx, span := h.tracer.Start(c.Request.Context(), spanName)
	defer span.End()

	req, err := parseRequest(c)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	span.SetAttributes(attribute.String("symbol", req.Symbol))

	analysis, err := h.analysis.Analyze(ctx, req)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return nil, false
	}
	return analysis, true
}

func parseRequest(c *gin.Context) (domain.AnalysisRequest, error) {
	req := domain.AnalysisRequest{
		Symbol:      c.Param("symbol"),
		Period:      c.Query("period"),
		Interval:    c.Query("interval"),
		PriceSource: c.Query("source"),
		Surface:     "api",
	}
	if v := c.Query("forums"); v != "" {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				req.Forums = append(req.Forums, f)
			}
		}
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return req, fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidRequest)
		}
		req.Limit = n
	}
	return req, nil
}
