package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/speed-article-api/internal/apperr"
	"github.com/speed-article-api/internal/models"
	"github.com/speed-article-api/internal/service"
)

// maxPageSize caps the limit query parameter
const maxPageSize = 500

// ArticleHandler handles article endpoints
type ArticleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		log:      log.With().Str("handler", "article").Logger(),
	}
}

// List handles GET /api/articles
func (h *ArticleHandler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	articles, err := h.services.Article.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

// ListStatus returns a handler listing articles in any of the given statuses
func (h *ArticleHandler) ListStatus(statuses ...models.ArticleStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		articles, err := h.services.Article.ListByStatus(c.Request.Context(), statuses...)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, articles)
	}
}

// Get handles GET /api/articles/:id
func (h *ArticleHandler) Get(c *gin.Context) {
	article, err := h.services.Article.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Create handles POST /api/articles
func (h *ArticleHandler) Create(c *gin.Context) {
	var req models.CreateArticleRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	article, err := h.services.Article.Create(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

// Update handles PUT /api/articles/:id
func (h *ArticleHandler) Update(c *gin.Context) {
	var req models.UpdateArticleRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	article, err := h.services.Article.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Delete handles DELETE /api/articles/:id
func (h *ArticleHandler) Delete(c *gin.Context) {
	if err := h.services.Article.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Article deleted successfully"})
}

// Approve handles PUT /api/articles/approving/:id?moderatorId=...
// Without the query parameter the moderator is taken from the bearer token.
func (h *ArticleHandler) Approve(c *gin.Context) {
	var req models.StatusRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	moderatorID := c.Query("moderatorId")
	if moderatorID == "" {
		if claims := claimsFrom(c); claims != nil {
			moderatorID = claims.Subject
		}
	}

	article, err := h.services.Article.Approve(c.Request.Context(), c.Param("id"), moderatorID, req.Status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Rate handles PATCH /api/articles/:id/rate
func (h *ArticleHandler) Rate(c *gin.Context) {
	var req models.RateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, apperr.BadRequest("rating must be an integer between 1 and 5"))
		return
	}

	article, err := h.services.Article.Rate(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// BatchUpdate handles PATCH /api/articles/batch-update
func (h *ArticleHandler) BatchUpdate(c *gin.Context) {
	var updates []models.StatusUpdate
	if !bindJSON(c, h.log, &updates) {
		return
	}

	result, err := h.services.Article.BatchUpdateStatus(c.Request.Context(), updates)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SubmitToAnalyst handles POST /api/articles/submitToAnalyst
func (h *ArticleHandler) SubmitToAnalyst(c *gin.Context) {
	var req models.SubmitToAnalystRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	result, err := h.services.Article.SubmitToAnalyst(c.Request.Context(), req.Articles)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// StoreRejected handles POST /api/articles/rejected
func (h *ArticleHandler) StoreRejected(c *gin.Context) {
	var rejections []models.Rejection
	if !bindJSON(c, h.log, &rejections) {
		return
	}

	result, err := h.services.Article.StoreRejected(c.Request.Context(), rejections)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SubmitReviewed handles POST /api/articles/submitReviewed
func (h *ArticleHandler) SubmitReviewed(c *gin.Context) {
	var req models.SubmitReviewedRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	result, err := h.services.Article.SubmitReviewed(c.Request.Context(), req.Articles)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// parseFilter reads the list and export query parameters
func parseFilter(c *gin.Context) (models.ArticleFilter, error) {
	var f models.ArticleFilter

	for _, raw := range c.QueryArray("status") {
		status, ok := models.ParseStatus(raw)
		if !ok {
			return f, apperr.BadRequest("invalid status %q", raw)
		}
		f.Statuses = append(f.Statuses, status)
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"fromYear", &f.FromYear},
		{"toYear", &f.ToYear},
		{"limit", &f.Limit},
		{"offset", &f.Offset},
	}
	for _, p := range ints {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, apperr.BadRequest("%s must be a non-negative integer", p.name)
		}
		*p.dst = n
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}

	f.Query = c.Query("q")
	return f, nil
}
