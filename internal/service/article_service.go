package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/speed-article-api/internal/apperr"
	"github.com/speed-article-api/internal/models"
	"github.com/speed-article-api/internal/repository"
	"github.com/speed-article-api/internal/validation"
)

// articleService is the concrete implementation of ArticleService
type articleService struct {
	articles   repository.ArticleRepository
	moderators repository.ModeratorRepository
	validator  *validation.Validator
	log        zerolog.Logger
}

// NewArticleService builds an ArticleService over the given repositories
func NewArticleService(repos *repository.Repositories, log zerolog.Logger) ArticleService {
	return newArticleService(repos, validation.NewValidator(), log)
}

func newArticleService(repos *repository.Repositories, v *validation.Validator, log zerolog.Logger) *articleService {
	return &articleService{
		articles:   repos.Article,
		moderators: repos.Moderator,
		validator:  v,
		log:        log.With().Str("service", "article").Logger(),
	}
}

func (s *articleService) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, error) {
	if filter.FromYear > 0 && filter.ToYear > 0 && filter.FromYear > filter.ToYear {
		return nil, apperr.BadRequest("fromYear must not be after toYear")
	}
	articles, err := s.articles.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list articles")
	}
	return articles, nil
}

func (s *articleService) ListByStatus(ctx context.Context, statuses ...models.ArticleStatus) ([]*models.Article, error) {
	return s.List(ctx, models.ArticleFilter{Statuses: statuses})
}

func (s *articleService) Get(ctx context.Context, id string) (*models.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "failed to get article")
	}
	if article == nil {
		return nil, apperr.NotFound("article not found")
	}
	return article, nil
}

func (s *articleService) Create(ctx context.Context, req *models.CreateArticleRequest) (*models.Article, error) {
	article, err := s.create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("article_id", article.ID).Str("title", article.Title).Msg("Article submitted")
	return article, nil
}

// create validates req and stores it as a new Pending article
func (s *articleService) create(ctx context.Context, req *models.CreateArticleRequest) (*models.Article, error) {
	if details := s.validator.Struct(req); len(details) > 0 {
		return nil, apperr.Invalid(details)
	}

	article := &models.Article{
		ID:                 uuid.New().String(),
		Title:              strings.TrimSpace(req.Title),
		Authors:            strings.TrimSpace(req.Authors),
		Source:             strings.TrimSpace(req.Source),
		YearOfPublication:  req.YearOfPublication,
		Pages:              req.Pages,
		Volume:             req.Volume,
		DOI:                optional(req.DOI),
		Claim:              strings.TrimSpace(req.Claim),
		Evidence:           optional(req.Evidence),
		IsEvidencePositive: req.IsEvidencePositive,
		Link:               optional(req.Link),
		Status:             models.StatusPending,
	}
	if req.TypeOfResearch != "" {
		rt := models.ResearchType(req.TypeOfResearch)
		article.TypeOfResearch = &rt
	}
	if req.TypeOfParticipant != "" {
		pt := models.ParticipantType(req.TypeOfParticipant)
		article.TypeOfParticipant = &pt
	}

	if err := s.articles.Create(ctx, article); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("an article with this DOI already exists")
		}
		return nil, apperr.Internal(err, "failed to create article")
	}
	return article, nil
}

func (s *articleService) Update(ctx context.Context, id string, req *models.UpdateArticleRequest) (*models.Article, error) {
	if details := s.validator.Struct(req); len(details) > 0 {
		return nil, apperr.Invalid(details)
	}

	changes := &models.ArticleChanges{
		Title:              trimmed(req.Title),
		Authors:            trimmed(req.Authors),
		Source:             trimmed(req.Source),
		YearOfPublication:  req.YearOfPublication,
		Pages:              req.Pages,
		Volume:             req.Volume,
		DOI:                trimmed(req.DOI),
		Claim:              trimmed(req.Claim),
		Evidence:           trimmed(req.Evidence),
		IsEvidencePositive: req.IsEvidencePositive,
		Link:               trimmed(req.Link),
		ReasonForRejection: trimmed(req.ReasonForRejection),
	}
	if req.TypeOfResearch != nil {
		rt := models.ResearchType(*req.TypeOfResearch)
		changes.TypeOfResearch = &rt
	}
	if req.TypeOfParticipant != nil {
		pt := models.ParticipantType(*req.TypeOfParticipant)
		changes.TypeOfParticipant = &pt
	}
	if req.Status != nil {
		status, ok := models.ParseStatus(*req.Status)
		if !ok {
			return nil, invalidStatus(*req.Status)
		}
		changes.Status = &status
	}
	if changes.Empty() {
		return nil, apperr.BadRequest("no fields to update")
	}

	article, err := s.articles.Update(ctx, id, changes)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperr.Conflict("an article with this DOI already exists")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to update article")
	}
	if article == nil {
		return nil, apperr.NotFound("article not found")
	}
	return article, nil
}

func (s *articleService) Delete(ctx context.Context, id string) error {
	deleted, err := s.articles.Delete(ctx, id)
	if err != nil {
		return apperr.Internal(err, "failed to delete article")
	}
	if !deleted {
		return apperr.NotFound("article not found")
	}
	s.log.Info().Str("article_id", id).Msg("Article deleted")
	return nil
}

// Approve transitions an article on behalf of a moderator whose role is "moderator"
func (s *articleService) Approve(ctx context.Context, id, moderatorID, status string) (*models.Article, error) {
	target, ok := models.ParseStatus(status)
	if !ok {
		return nil, invalidStatus(status)
	}
	if moderatorID == "" {
		return nil, apperr.BadRequest("moderatorId is required")
	}

	moderator, err := s.moderators.GetByID(ctx, moderatorID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to look up moderator")
	}
	if moderator == nil {
		return nil, apperr.NotFound("moderator not found")
	}
	if !moderator.CanApprove() {
		return nil, apperr.Forbidden("only moderators can approve articles")
	}

	article, err := s.articles.SetStatus(ctx, id, target, nil)
	if err != nil {
		return nil, apperr.Internal(err, "failed to update article status")
	}
	if article == nil {
		return nil, apperr.NotFound("article not found")
	}

	s.log.Info().
		Str("article_id", id).
		Str("moderator_id", moderatorID).
		Str("status", string(target)).
		Msg("Article status changed by moderator")
	return article, nil
}

// Rate records one vote; the repository applies it as a single atomic increment
func (s *articleService) Rate(ctx context.Context, id string, req *models.RateArticleRequest) (*models.Article, error) {
	if req == nil || req.Rating == nil || *req.Rating < 1 || *req.Rating > 5 {
		return nil, apperr.BadRequest("rating must be an integer between 1 and 5")
	}

	article, err := s.articles.AddRating(ctx, id, *req.Rating)
	if err != nil {
		return nil, apperr.Internal(err, "failed to rate article")
	}
	if article == nil {
		return nil, apperr.NotFound("article not found")
	}
	return article, nil
}

// BatchUpdateStatus applies each update independently and reports every outcome
func (s *articleService) BatchUpdateStatus(ctx context.Context, updates []models.StatusUpdate) (*models.BatchResult, error) {
	if len(updates) == 0 {
		return nil, apperr.BadRequest("no updates provided")
	}

	result := &models.BatchResult{Message: "Batch update completed"}
	for _, u := range updates {
		status, ok := models.ParseStatus(u.Status)
		if !ok {
			result.Add(models.ItemResult{ID: u.ID, Error: invalidStatus(u.Status).Message})
			continue
		}
		result.Add(s.setStatus(ctx, u.ID, status, nil))
	}

	s.log.Info().Int("succeeded", result.Succeeded).Int("failed", result.Failed).Msg("Batch status update finished")
	return result, nil
}

// SubmitToAnalyst stores the analyst's approve/reject decisions
func (s *articleService) SubmitToAnalyst(ctx context.Context, decisions []models.AnalystDecision) (*models.BatchResult, error) {
	if len(decisions) == 0 {
		return nil, apperr.BadRequest("no articles provided")
	}

	result := &models.BatchResult{Message: "Articles processed"}
	for _, d := range decisions {
		status, _ := models.ParseStatus(d.Status)
		switch status {
		case models.StatusApproved:
			result.Add(s.setStatus(ctx, d.ID, models.StatusApproved, nil))
		case models.StatusRejected:
			result.Add(s.setStatus(ctx, d.ID, models.StatusRejected, rejectionReason(d.ReasonForRejection)))
		default:
			result.Add(models.ItemResult{ID: d.ID, Error: "status must be Approved or Rejected"})
		}
	}
	return result, nil
}

// StoreRejected marks each article rejected with its reason
func (s *articleService) StoreRejected(ctx context.Context, rejections []models.Rejection) (*models.BatchResult, error) {
	if len(rejections) == 0 {
		return nil, apperr.BadRequest("no articles provided")
	}

	result := &models.BatchResult{Message: "Rejected articles stored"}
	for _, r := range rejections {
		result.Add(s.setStatus(ctx, r.ID, models.StatusRejected, rejectionReason(r.ReasonForRejection)))
	}
	return result, nil
}

// SubmitReviewed stores reviewer evidence and hands each article back as Submitted
func (s *articleService) SubmitReviewed(ctx context.Context, reviewed []models.ReviewedArticle) (*models.BatchResult, error) {
	if len(reviewed) == 0 {
		return nil, apperr.BadRequest("no articles provided")
	}

	result := &models.BatchResult{Message: "Reviewed articles submitted"}
	for _, r := range reviewed {
		if r.ID == "" {
			result.Add(models.ItemResult{Error: "_id is required"})
			continue
		}
		if strings.TrimSpace(r.Evidence) == "" {
			result.Add(models.ItemResult{ID: r.ID, Error: "evidence is required"})
			continue
		}

		article, err := s.articles.SetEvidence(ctx, r.ID, r.Evidence, models.StatusSubmitted)
		result.Add(s.itemResult(r.ID, article, err))
	}
	return result, nil
}

func (s *articleService) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	counts, err := s.articles.CountByStatus(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to count articles")
	}
	return counts, nil
}

func (s *articleService) setStatus(ctx context.Context, id string, status models.ArticleStatus, reason *string) models.ItemResult {
	if id == "" {
		return models.ItemResult{Error: "_id is required"}
	}
	article, err := s.articles.SetStatus(ctx, id, status, reason)
	return s.itemResult(id, article, err)
}

func (s *articleService) itemResult(id string, article *models.Article, err error) models.ItemResult {
	if err != nil {
		s.log.Error().Err(err).Str("article_id", id).Msg("Batch item failed")
		return models.ItemResult{ID: id, Error: "internal error"}
	}
	if article == nil {
		return models.ItemResult{ID: id, Error: "article not found"}
	}
	return models.ItemResult{ID: id, Status: article.Status, Success: true}
}

func invalidStatus(s string) *apperr.Error {
	names := make([]string, len(models.AllStatuses))
	for i, st := range models.AllStatuses {
		names[i] = string(st)
	}
	return apperr.BadRequest("invalid status %q, must be one of: %s", s, strings.Join(names, ", "))
}

func rejectionReason(reason *string) *string {
	if reason == nil || strings.TrimSpace(*reason) == "" {
		r := models.DefaultRejectionReason
		return &r
	}
	return reason
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// trimmed keeps nil as "unchanged" and an empty result as "clear"
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
