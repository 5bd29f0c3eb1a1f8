package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/speed-article-api/internal/models"
	"github.com/speed-article-api/internal/service"
)

// ModeratorHandler handles moderator accounts and login
type ModeratorHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewModeratorHandler creates a new ModeratorHandler
func NewModeratorHandler(services *service.Services, log zerolog.Logger) *ModeratorHandler {
	return &ModeratorHandler{
		services: services,
		log:      log.With().Str("handler", "moderator").Logger(),
	}
}

// Register handles POST /api/moderators and POST /auth/register
func (h *ModeratorHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	moderator, err := h.services.Moderator.Register(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, moderator)
}

// Get handles GET /api/moderators/:id
func (h *ModeratorHandler) Get(c *gin.Context) {
	moderator, err := h.services.Moderator.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, moderator)
}

// Login handles POST /auth/login
func (h *ModeratorHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	resp, err := h.services.Moderator.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
