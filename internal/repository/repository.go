package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/speed-article-api/internal/database"
	"github.com/speed-article-api/internal/models"
)

// ErrDuplicate is returned when a unique constraint (DOI, email) rejects a write
var ErrDuplicate = errors.New("duplicate key")

// psql builds PostgreSQL-style ($1) placeholders
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ArticleRepository defines the interface for article data operations.
// Lookups return (nil, nil) when the row does not exist.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id string) (*models.Article, error)
	List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, error)
	Update(ctx context.Context, id string, changes *models.ArticleChanges) (*models.Article, error)
	SetStatus(ctx context.Context, id string, status models.ArticleStatus, reason *string) (*models.Article, error)
	SetEvidence(ctx context.Context, id, evidence string, status models.ArticleStatus) (*models.Article, error)
	AddRating(ctx context.Context, id string, rating int) (*models.Article, error)
	Delete(ctx context.Context, id string) (bool, error)
	CountByStatus(ctx context.Context) (models.StatusCounts, error)
	StreamAll(ctx context.Context, filter models.ArticleFilter, callback func(*models.Article) error) error
}

// ModeratorRepository defines the interface for moderator data operations
type ModeratorRepository interface {
	Create(ctx context.Context, moderator *models.Moderator) error
	GetByID(ctx context.Context, id string) (*models.Moderator, error)
	GetByEmail(ctx context.Context, email string) (*models.Moderator, error)
	Count(ctx context.Context) (int, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Article   ArticleRepository
	Moderator ModeratorRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Article:   NewArticleRepo(db),
		Moderator: NewModeratorRepo(db),
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
