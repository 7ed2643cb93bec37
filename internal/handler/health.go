package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status          string `json:"status"`
	Assets          int    `json:"assets"`
	DefaultPeriod   string `json:"default_period"`
	DefaultInterval string `json:"default_interval"`
	Uploads         bool   `json:"uploads"`
}

// Health godoc
// @Summary      Health check
// @Description  Liveness plus the pipeline defaults the server runs with
// @Tags         health
// @Produce      json
// @Success      200  {object}  handler.healthResponse
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	d := h.analysis.Defaults()
	c.JSON(http.StatusOK, healthResponse{
		Status:          "healthy",
		Assets:          len(h.analysis.Assets()),
		DefaultPeriod:   d.Period,
		DefaultInterval: d.Interval,
		Uploads:         h.uploader != nil,
	})
}
