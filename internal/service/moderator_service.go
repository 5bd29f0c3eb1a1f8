package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/speed-article-api/internal/apperr"
	"github.com/speed-article-api/internal/auth"
	"github.com/speed-article-api/internal/models"
	"github.com/speed-article-api/internal/repository"
	"github.com/speed-article-api/internal/validation"
)

// moderatorService is the concrete implementation of ModeratorService
type moderatorService struct {
	moderators repository.ModeratorRepository
	tokens     *auth.TokenManager
	validator  *validation.Validator
	log        zerolog.Logger
}

// NewModeratorService builds a ModeratorService
func NewModeratorService(repo repository.ModeratorRepository, tokens *auth.TokenManager, log zerolog.Logger) ModeratorService {
	return newModeratorService(repo, tokens, validation.NewValidator(), log)
}

func newModeratorService(repo repository.ModeratorRepository, tokens *auth.TokenManager, v *validation.Validator, log zerolog.Logger) *moderatorService {
	return &moderatorService{
		moderators: repo,
		tokens:     tokens,
		validator:  v,
		log:        log.With().Str("service", "moderator").Logger(),
	}
}

func (s *moderatorService) Register(ctx context.Context, req *models.RegisterRequest) (*models.Moderator, error) {
	if details := s.validator.Struct(req); len(details) > 0 {
		return nil, apperr.Invalid(details)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err, "failed to register moderator")
	}

	moderator := &models.Moderator{
		ID:           uuid.New().String(),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         models.Role(req.TypeOfUser),
	}
	if err := s.moderators.Create(ctx, moderator); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("email is already registered")
		}
		return nil, apperr.Internal(err, "failed to register moderator")
	}

	s.log.Info().Str("moderator_id", moderator.ID).Str("role", string(moderator.Role)).Msg("Moderator registered")
	return moderator, nil
}

func (s *moderatorService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if details := s.validator.Struct(req); len(details) > 0 {
		return nil, apperr.Invalid(details)
	}

	moderator, err := s.moderators.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, apperr.Internal(err, "failed to log in")
	}
	if moderator == nil || auth.CheckPassword(moderator.PasswordHash, req.Password) != nil {
		return nil, apperr.Unauthorized(auth.ErrInvalidCredentials.Error())
	}

	token, expiresAt, err := s.tokens.Issue(moderator)
	if err != nil {
		return nil, apperr.Internal(err, "failed to issue token")
	}

	return &models.LoginResponse{Token: token, ExpiresAt: expiresAt, Moderator: moderator}, nil
}

func (s *moderatorService) Get(ctx context.Context, id string) (*models.Moderator, error) {
	moderator, err := s.moderators.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "failed to get moderator")
	}
	if moderator == nil {
		return nil, apperr.NotFound("moderator not found")
	}
	return moderator, nil
}

// Authenticate resolves a bearer token to its claims
func (s *moderatorService) Authenticate(token string) (*auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	return claims, nil
}

func (s *moderatorService) Count(ctx context.Context) (int, error) {
	n, err := s.moderators.Count(ctx)
	if err != nil {
		return 0, apperr.Internal(err, "failed to count moderators")
	}
	return n, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
