package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/speed-article-api/internal/apperr"
)

// writeError maps any service error onto the JSON error body.
// Internal causes are logged and never sent to the client.
func writeError(c *gin.Context, log zerolog.Logger, err error) {
	e := apperr.From(err)
	code := e.StatusCode()

	if code >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
	}

	body := gin.H{
		"statusCode": code,
		"error":      http.StatusText(code),
		"message":    e.Message,
	}
	if len(e.Details) > 0 {
		body["details"] = e.Details
	}
	c.JSON(code, body)
}

// bindJSON decodes the request body, writing a 400 on malformed input
func bindJSON(c *gin.Context, log zerolog.Logger, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, log, apperr.BadRequest("invalid request body"))
		return false
	}
	return true
}
