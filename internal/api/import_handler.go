package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/speed-article-api/internal/apperr"
	"github.com/speed-article-api/internal/config"
	"github.com/speed-article-api/internal/models"
	"github.com/speed-article-api/internal/service"
)

// ImportHandler handles import endpoints
type ImportHandler struct {
	services *service.Services
	cfg      config.ImportConfig
	log      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg config.ImportConfig, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "import").Logger(),
	}
}

// ImportArticles handles POST /api/articles/import
// Accepts a multipart "file" upload or a raw CSV/NDJSON body
func (h *ImportHandler) ImportArticles(c *gin.Context) {
	if c.Request.ContentLength > h.cfg.MaxUploadSize {
		writeError(c, h.log, h.tooLarge())
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadSize)

	var (
		body     io.Reader = c.Request.Body
		filename string
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(c, h.log, h.tooLarge())
				return
			}
			writeError(c, h.log, apperr.BadRequest("file field is required"))
			return
		}
		defer file.Close()

		// Validate file size
		if header.Size > h.cfg.MaxUploadSize {
			writeError(c, h.log, h.tooLarge())
			return
		}
		body, filename = file, header.Filename
	}

	format := importFormat(c.Query("format"), filename, c.ContentType())
	if !models.ImportFormats[format] {
		writeError(c, h.log, apperr.BadRequest("format must be one of: csv, ndjson"))
		return
	}

	result, err := h.services.Import.ImportArticles(c.Request.Context(), body, format)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info().
		Str("format", format).
		Str("file", filename).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("Articles imported")

	c.JSON(http.StatusOK, result)
}

func (h *ImportHandler) tooLarge() error {
	return apperr.TooLarge("file too large, max size is %d bytes", h.cfg.MaxUploadSize)
}

// importFormat picks the format from the query, then the file extension, then the content type
func importFormat(query, filename, contentType string) string {
	if query != "" {
		return strings.ToLower(query)
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "csv"
	case ".ndjson", ".jsonl":
		return "ndjson"
	}
	switch contentType {
	case "text/csv":
		return "csv"
	case "application/x-ndjson", "application/jsonl":
		return "ndjson"
	}
	return ""
}
