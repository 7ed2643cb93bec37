package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"sentiment-lens/internal/domain"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth returns a Gin middleware that enforces X-API-Key header validation.
// If key is empty, the middleware is a no-op (auth disabled).
func APIKeyAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		provided := strings.TrimSpace(c.GetHeader("X-API-Key"))
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "missing X-API-Key header", Code: "unauthorized"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Error: "invalid API key", Code: "forbidden"})
			return
		}
		c.Next()
	}
}

type errorBody struct {
	Error        string            `json:"error"`
	Code         string            `json:"code"`
	Collaborator string            `json:"collaborator,omitempty"`
	Params       map[string]string `json:"params,omitempty"`
}

// writeError maps pipeline errors to responses: bad input is 400, a failed
// collaborator is 502 with enough context to retry.
func writeError(c *gin.Context, err error) {
	body := errorBody{Error: err.Error()}
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		body.Collaborator = fe.Collaborator
		body.Params = fe.Params
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status, body.Code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, domain.ErrSchemaMismatch):
		status, body.Code = http.StatusBadGateway, "schema_mismatch"
	case errors.Is(err, domain.ErrSourceUnavailable):
		status, body.Code = http.StatusBadGateway, "source_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		status, body.Code = http.StatusGatewayTimeout, "timeout"
	default:
		body.Code = "internal"
	}
	c.JSON(status, body)
}
