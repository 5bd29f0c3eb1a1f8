package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/speed-article-api/internal/models"
	"github.com/speed-article-api/internal/repository"
)

// MockArticleRepository is an in-memory ArticleRepository safe for concurrent use
type MockArticleRepository struct {
	mu       sync.Mutex
	Articles map[string]*models.Article

	// Err, when set, is returned by every method
	Err error

	SetStatusCalls int
	AddRatingCalls int
}

// Verify interface compliance
var _ repository.ArticleRepository = (*MockArticleRepository)(nil)

func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{
		Articles: make(map[string]*models.Article),
	}
}

// Put stores a copy of article, filling the timestamps a real insert would set
func (m *MockArticleRepository) Put(article *models.Article) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if article.SubmittedDate.IsZero() {
		article.SubmittedDate = time.Now().UTC()
	}
	a := *article
	m.Articles[a.ID] = &a
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if article.DOI != nil {
		for _, existing := range m.Articles {
			if existing.DOI != nil && *existing.DOI == *article.DOI {
				return repository.ErrDuplicate
			}
		}
	}

	now := time.Now().UTC()
	if article.SubmittedDate.IsZero() {
		article.SubmittedDate = now
	}
	article.CreatedAt, article.UpdatedAt = now, now
	a := *article
	m.Articles[a.ID] = &a
	return nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.copyOf(id), nil
}

func (m *MockArticleRepository) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, error) {
	articles := make([]*models.Article, 0)
	err := m.StreamAll(ctx, filter, func(a *models.Article) error {
		articles = append(articles, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return articles, nil
}

func (m *MockArticleRepository) StreamAll(ctx context.Context, filter models.ArticleFilter, callback func(*models.Article) error) error {
	m.mu.Lock()
	if m.Err != nil {
		m.mu.Unlock()
		return m.Err
	}
	matched := make([]*models.Article, 0, len(m.Articles))
	for _, a := range m.Articles {
		if matches(a, filter) {
			c := *a
			matched = append(matched, &c)
		}
	}
	m.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].SubmittedDate.Equal(matched[j].SubmittedDate) {
			return matched[i].SubmittedDate.After(matched[j].SubmittedDate)
		}
		return matched[i].ID < matched[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	for _, a := range matched {
		if err := callback(a); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockArticleRepository) Update(ctx context.Context, id string, c *models.ArticleChanges) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.Articles[id]
	if !ok {
		return nil, nil
	}

	if c.Title != nil {
		a.Title = *c.Title
	}
	if c.Authors != nil {
		a.Authors = *c.Authors
	}
	if c.Source != nil {
		a.Source = *c.Source
	}
	if c.YearOfPublication != nil {
		a.YearOfPublication = *c.YearOfPublication
	}
	if c.Pages != nil {
		a.Pages = c.Pages
	}
	if c.Volume != nil {
		a.Volume = c.Volume
	}
	if c.DOI != nil {
		a.DOI = emptyToNil(c.DOI)
	}
	if c.Claim != nil {
		a.Claim = *c.Claim
	}
	if c.Evidence != nil {
		a.Evidence = emptyToNil(c.Evidence)
	}
	if c.IsEvidencePositive != nil {
		a.IsEvidencePositive = c.IsEvidencePositive
	}
	if c.TypeOfResearch != nil {
		a.TypeOfResearch = c.TypeOfResearch
	}
	if c.TypeOfParticipant != nil {
		a.TypeOfParticipant = c.TypeOfParticipant
	}
	if c.Link != nil {
		a.Link = emptyToNil(c.Link)
	}
	if c.ReasonForRejection != nil {
		a.ReasonForRejection = emptyToNil(c.ReasonForRejection)
	}
	if c.Status != nil {
		setStatus(a, *c.Status)
	}
	a.UpdatedAt = time.Now().UTC()
	return m.copyOf(id), nil
}

func (m *MockArticleRepository) SetStatus(ctx context.Context, id string, status models.ArticleStatus, reason *string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetStatusCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.Articles[id]
	if !ok {
		return nil, nil
	}
	setStatus(a, status)
	if reason != nil {
		r := *reason
		a.ReasonForRejection = &r
	}
	return m.copyOf(id), nil
}

func (m *MockArticleRepository) SetEvidence(ctx context.Context, id, evidence string, status models.ArticleStatus) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.Articles[id]
	if !ok {
		return nil, nil
	}
	a.Evidence = &evidence
	a.Status = status
	return m.copyOf(id), nil
}

// AddRating applies the vote under the lock, mirroring the single-statement update
func (m *MockArticleRepository) AddRating(ctx context.Context, id string, rating int) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddRatingCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.Articles[id]
	if !ok {
		return nil, nil
	}
	a.RatingCounter++
	a.TotalRating += rating
	a.AverageRating = float64(a.TotalRating) / float64(a.RatingCounter)
	return m.copyOf(id), nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if _, ok := m.Articles[id]; !ok {
		return false, nil
	}
	delete(m.Articles, id)
	return true, nil
}

func (m *MockArticleRepository) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	counts := make(models.StatusCounts, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		counts[s] = 0
	}
	for _, a := range m.Articles {
		counts[a.Status]++
	}
	return counts, nil
}

func (m *MockArticleRepository) copyOf(id string) *models.Article {
	a, ok := m.Articles[id]
	if !ok {
		return nil
	}
	c := *a
	return &c
}

func setStatus(a *models.Article, status models.ArticleStatus) {
	a.Status = status
	if status == models.StatusApproved {
		now := time.Now().UTC()
		a.ApprovedDate = &now
	}
}

func matches(a *models.Article, f models.ArticleFilter) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if a.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.FromYear > 0 && a.YearOfPublication < f.FromYear {
		return false
	}
	if f.ToYear > 0 && a.YearOfPublication > f.ToYear {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(a.Title), q) &&
			!strings.Contains(strings.ToLower(a.Authors), q) &&
			!strings.Contains(strings.ToLower(a.Claim), q) {
			return false
		}
	}
	return true
}

// MockModeratorRepository is an in-memory ModeratorRepository
type MockModeratorRepository struct {
	mu         sync.Mutex
	Moderators map[string]*models.Moderator
	Err        error
}

// Verify interface compliance
var _ repository.ModeratorRepository = (*MockModeratorRepository)(nil)

func NewMockModeratorRepository() *MockModeratorRepository {
	return &MockModeratorRepository{
		Moderators: make(map[string]*models.Moderator),
	}
}

func (m *MockModeratorRepository) Create(ctx context.Context, moderator *models.Moderator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, existing := range m.Moderators {
		if existing.Email == moderator.Email {
			return repository.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	moderator.CreatedAt, moderator.UpdatedAt = now, now
	c := *moderator
	m.Moderators[c.ID] = &c
	return nil
}

func (m *MockModeratorRepository) GetByID(ctx context.Context, id string) (*models.Moderator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	mod, ok := m.Moderators[id]
	if !ok {
		return nil, nil
	}
	c := *mod
	return &c, nil
}

func (m *MockModeratorRepository) GetByEmail(ctx context.Context, email string) (*models.Moderator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, mod := range m.Moderators {
		if mod.Email == email {
			c := *mod
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MockModeratorRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.Moderators), nil
}

// emptyToNil mirrors the store writing an empty optional text field as NULL
func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
