package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/speed-article-api/internal/apperr"
	"github.com/speed-article-api/internal/service"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamExport handles GET /api/articles/export?format=...
// Streams the export directly to the response
func (h *ExportHandler) StreamExport(c *gin.Context) {
	format := c.DefaultQuery("format", "ndjson")
	if !service.ExportFormats[format] {
		writeError(c, h.log, apperr.BadRequest("format must be one of: ndjson, json, csv"))
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info().Str("format", format).Msg("Starting streaming export")

	if err := h.services.Export.StreamArticles(c.Request.Context(), c.Writer, format, filter); err != nil {
		// Can't return error JSON after streaming has started
		if !c.Writer.Written() {
			writeError(c, h.log, err)
			return
		}
		h.log.Error().Err(err).Str("format", format).Msg("Export failed")
	}
}
