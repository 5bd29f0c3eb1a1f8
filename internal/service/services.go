package service

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/speed-article-api/internal/auth"
	"github.com/speed-article-api/internal/config"
	"github.com/speed-article-api/internal/models"
	"github.com/speed-article-api/internal/repository"
	"github.com/speed-article-api/internal/validation"
)

// ArticleService defines the article lifecycle operations.
// Errors are *apperr.Error values classified for the transport layer.
type ArticleService interface {
	List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, error)
	ListByStatus(ctx context.Context, statuses ...models.ArticleStatus) ([]*models.Article, error)
	Get(ctx context.Context, id string) (*models.Article, error)
	Create(ctx context.Context, req *models.CreateArticleRequest) (*models.Article, error)
	Update(ctx context.Context, id string, req *models.UpdateArticleRequest) (*models.Article, error)
	Delete(ctx context.Context, id string) error
	Approve(ctx context.Context, id, moderatorID, status string) (*models.Article, error)
	Rate(ctx context.Context, id string, req *models.RateArticleRequest) (*models.Article, error)
	BatchUpdateStatus(ctx context.Context, updates []models.StatusUpdate) (*models.BatchResult, error)
	SubmitToAnalyst(ctx context.Context, decisions []models.AnalystDecision) (*models.BatchResult, error)
	StoreRejected(ctx context.Context, rejections []models.Rejection) (*models.BatchResult, error)
	SubmitReviewed(ctx context.Context, reviewed []models.ReviewedArticle) (*models.BatchResult, error)
	CountByStatus(ctx context.Context) (models.StatusCounts, error)
}

// ModeratorService defines account management and authentication
type ModeratorService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.Moderator, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	Get(ctx context.Context, id string) (*models.Moderator, error)
	Authenticate(token string) (*auth.Claims, error)
	Count(ctx context.Context) (int, error)
}

// ExportService streams articles in bulk formats
type ExportService interface {
	StreamArticles(ctx context.Context, w http.ResponseWriter, format string, filter models.ArticleFilter) error
}

// ImportService creates Pending articles from CSV or NDJSON uploads
type ImportService interface {
	ImportArticles(ctx context.Context, r io.Reader, format string) (*models.BatchResult, error)
}

// Services holds all service interfaces
type Services struct {
	Article   ArticleService
	Moderator ModeratorService
	Export    ExportService
	Import    ImportService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, tokens *auth.TokenManager, importCfg config.ImportConfig, log zerolog.Logger) *Services {
	v := validation.NewValidator()
	articles := newArticleService(repos, v, log)

	return &Services{
		Article:   articles,
		Moderator: newModeratorService(repos.Moderator, tokens, v, log),
		Export:    newExportService(repos.Article, log),
		Import:    newImportService(articles, importCfg, log),
	}
}
