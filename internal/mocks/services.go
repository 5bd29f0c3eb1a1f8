package mocks

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/speed-article-api/internal/apperr"
	"github.com/speed-article-api/internal/auth"
	"github.com/speed-article-api/internal/models"
	"github.com/speed-article-api/internal/service"
)

// MockArticleService is a mock implementation of ArticleService.
// Unset funcs return zero values.
type MockArticleService struct {
	ListFunc              func(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, error)
	GetFunc               func(ctx context.Context, id string) (*models.Article, error)
	CreateFunc            func(ctx context.Context, req *models.CreateArticleRequest) (*models.Article, error)
	UpdateFunc            func(ctx context.Context, id string, req *models.UpdateArticleRequest) (*models.Article, error)
	DeleteFunc            func(ctx context.Context, id string) error
	ApproveFunc           func(ctx context.Context, id, moderatorID, status string) (*models.Article, error)
	RateFunc              func(ctx context.Context, id string, req *models.RateArticleRequest) (*models.Article, error)
	BatchUpdateStatusFunc func(ctx context.Context, updates []models.StatusUpdate) (*models.BatchResult, error)
	BatchFunc             func(ctx context.Context, n int) (*models.BatchResult, error)
	Counts                models.StatusCounts

	// LastFilter and LastStatuses record the most recent list arguments
	LastFilter   models.ArticleFilter
	LastStatuses []models.ArticleStatus
}

// Verify interface compliance
var _ service.ArticleService = (*MockArticleService)(nil)

func NewMockArticleService() *MockArticleService {
	return &MockArticleService{Counts: models.StatusCounts{}}
}

func (m *MockArticleService) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, error) {
	m.LastFilter = filter
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.Article{}, nil
}

func (m *MockArticleService) ListByStatus(ctx context.Context, statuses ...models.ArticleStatus) ([]*models.Article, error) {
	m.LastStatuses = statuses
	return m.List(ctx, models.ArticleFilter{Statuses: statuses})
}

func (m *MockArticleService) Get(ctx context.Context, id string) (*models.Article, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, apperr.NotFound("article not found")
}

func (m *MockArticleService) Create(ctx context.Context, req *models.CreateArticleRequest) (*models.Article, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return &models.Article{ID: "test-article-id", Title: req.Title, Status: models.StatusPending}, nil
}

func (m *MockArticleService) Update(ctx context.Context, id string, req *models.UpdateArticleRequest) (*models.Article, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, req)
	}
	return &models.Article{ID: id}, nil
}

func (m *MockArticleService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockArticleService) Approve(ctx context.Context, id, moderatorID, status string) (*models.Article, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, id, moderatorID, status)
	}
	return &models.Article{ID: id, Status: models.ArticleStatus(status)}, nil
}

func (m *MockArticleService) Rate(ctx context.Context, id string, req *models.RateArticleRequest) (*models.Article, error) {
	if m.RateFunc != nil {
		return m.RateFunc(ctx, id, req)
	}
	return &models.Article{ID: id}, nil
}

func (m *MockArticleService) BatchUpdateStatus(ctx context.Context, updates []models.StatusUpdate) (*models.BatchResult, error) {
	if m.BatchUpdateStatusFunc != nil {
		return m.BatchUpdateStatusFunc(ctx, updates)
	}
	return m.batch(ctx, len(updates))
}

func (m *MockArticleService) SubmitToAnalyst(ctx context.Context, decisions []models.AnalystDecision) (*models.BatchResult, error) {
	return m.batch(ctx, len(decisions))
}

func (m *MockArticleService) StoreRejected(ctx context.Context, rejections []models.Rejection) (*models.BatchResult, error) {
	return m.batch(ctx, len(rejections))
}

func (m *MockArticleService) SubmitReviewed(ctx context.Context, reviewed []models.ReviewedArticle) (*models.BatchResult, error) {
	return m.batch(ctx, len(reviewed))
}

func (m *MockArticleService) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	return m.Counts, nil
}

func (m *MockArticleService) batch(ctx context.Context, n int) (*models.BatchResult, error) {
	if m.BatchFunc != nil {
		return m.BatchFunc(ctx, n)
	}
	return &models.BatchResult{Message: "ok", Succeeded: n}, nil
}

// MockModeratorService is a mock implementation of ModeratorService
type MockModeratorService struct {
	RegisterFunc func(ctx context.Context, req *models.RegisterRequest) (*models.Moderator, error)
	LoginFunc    func(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	Moderators   map[string]*models.Moderator

	// Tokens maps accepted bearer tokens to their claims
	Tokens map[string]*auth.Claims
}

// Verify interface compliance
var _ service.ModeratorService = (*MockModeratorService)(nil)

func NewMockModeratorService() *MockModeratorService {
	return &MockModeratorService{
		Moderators: make(map[string]*models.Moderator),
		Tokens:     make(map[string]*auth.Claims),
	}
}

func (m *MockModeratorService) Register(ctx context.Context, req *models.RegisterRequest) (*models.Moderator, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	mod := &models.Moderator{ID: "test-moderator-id", Email: req.Email, Role: models.Role(req.TypeOfUser)}
	m.Moderators[mod.ID] = mod
	return mod, nil
}

func (m *MockModeratorService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, req)
	}
	return nil, apperr.Unauthorized(auth.ErrInvalidCredentials.Error())
}

func (m *MockModeratorService) Get(ctx context.Context, id string) (*models.Moderator, error) {
	if mod, ok := m.Moderators[id]; ok {
		return mod, nil
	}
	return nil, apperr.NotFound("moderator not found")
}

func (m *MockModeratorService) Authenticate(token string) (*auth.Claims, error) {
	if claims, ok := m.Tokens[token]; ok {
		return claims, nil
	}
	return nil, apperr.Unauthorized("invalid or expired token")
}

func (m *MockModeratorService) Count(ctx context.Context) (int, error) {
	return len(m.Moderators), nil
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamArticlesFunc func(ctx context.Context, w http.ResponseWriter, format string, filter models.ArticleFilter) error
	LastFormat         string
	LastFilter         models.ArticleFilter
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{}
}

func (m *MockExportService) StreamArticles(ctx context.Context, w http.ResponseWriter, format string, filter models.ArticleFilter) error {
	m.LastFormat = format
	m.LastFilter = filter
	if m.StreamArticlesFunc != nil {
		return m.StreamArticlesFunc(ctx, w, format, filter)
	}
	return nil
}

// MockImportService records the uploaded body and delegates to ImportFunc when set
type MockImportService struct {
	ImportFunc func(ctx context.Context, r io.Reader, format string) (*models.BatchResult, error)
	LastFormat string
	LastBody   string
}

// Verify interface compliance
var _ service.ImportService = (*MockImportService)(nil)

func NewMockImportService() *MockImportService {
	return &MockImportService{}
}

func (m *MockImportService) ImportArticles(ctx context.Context, r io.Reader, format string) (*models.BatchResult, error) {
	m.LastFormat = format
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.LastBody = string(data)
	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, strings.NewReader(m.LastBody), format)
	}
	return &models.BatchResult{Message: "Import completed"}, nil
}

// MockHealthChecker reports Err from every health check
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Err
}
