package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/speed-article-api/internal/database"
	"github.com/speed-article-api/internal/models"
)

var articleColumns = []string{
	"id", "title", "authors", "source", "year_of_publication", "pages", "volume", "doi",
	"claim", "evidence", "is_evidence_positive", "type_of_research", "type_of_participant", "link",
	"status", "reason_for_rejection", "submitted_date", "approved_date",
	"rating_counter", "total_rating", "average_rating", "created_at", "updated_at",
}

var returningArticle = "RETURNING " + strings.Join(articleColumns, ", ")

// approvedDateExpr stamps approved_date whenever the new status is Approved
const approvedDateExpr = "CASE WHEN ? = 'Approved' THEN NOW() ELSE approved_date END"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

// Create inserts a new article
func (r *articleRepo) Create(ctx context.Context, a *models.Article) error {
	query := `
		INSERT INTO articles (id, title, authors, source, year_of_publication, pages, volume, doi,
			claim, evidence, is_evidence_positive, type_of_research, type_of_participant, link,
			status, submitted_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	now := time.Now().UTC()
	if a.SubmittedDate.IsZero() {
		a.SubmittedDate = now
	}
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Title, a.Authors, a.Source, a.YearOfPublication, a.Pages, a.Volume, a.DOI,
		a.Claim, a.Evidence, a.IsEvidencePositive, a.TypeOfResearch, a.TypeOfParticipant, a.Link,
		a.Status, a.SubmittedDate, a.CreatedAt, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	query, args, err := psql.Select(articleColumns...).From("articles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryOne(ctx, query, args...)
}

// List returns articles matching the filter, newest submissions first
func (r *articleRepo) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, error) {
	articles := make([]*models.Article, 0)
	err := r.StreamAll(ctx, filter, func(a *models.Article) error {
		articles = append(articles, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// StreamAll streams matching articles to callback without buffering the result set
func (r *articleRepo) StreamAll(ctx context.Context, filter models.ArticleFilter, callback func(*models.Article) error) error {
	query, args, err := selectFiltered(filter).ToSql()
	if err != nil {
		return err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return fmt.Errorf("scan article: %w", err)
		}
		if err := callback(article); err != nil {
			return err
		}
	}

	return rows.Err()
}

// Update applies the non-nil fields of changes
func (r *articleRepo) Update(ctx context.Context, id string, c *models.ArticleChanges) (*models.Article, error) {
	set := map[string]interface{}{}
	put := func(col string, v interface{}, ok bool) {
		if ok {
			set[col] = v
		}
	}
	put("title", c.Title, c.Title != nil)
	put("authors", c.Authors, c.Authors != nil)
	put("source", c.Source, c.Source != nil)
	put("year_of_publication", c.YearOfPublication, c.YearOfPublication != nil)
	put("pages", c.Pages, c.Pages != nil)
	put("volume", c.Volume, c.Volume != nil)
	put("doi", nullIfEmpty(c.DOI), c.DOI != nil)
	put("claim", c.Claim, c.Claim != nil)
	put("evidence", nullIfEmpty(c.Evidence), c.Evidence != nil)
	put("is_evidence_positive", c.IsEvidencePositive, c.IsEvidencePositive != nil)
	put("type_of_research", c.TypeOfResearch, c.TypeOfResearch != nil)
	put("type_of_participant", c.TypeOfParticipant, c.TypeOfParticipant != nil)
	put("link", nullIfEmpty(c.Link), c.Link != nil)
	put("reason_for_rejection", nullIfEmpty(c.ReasonForRejection), c.ReasonForRejection != nil)
	if c.Status != nil {
		set["status"] = string(*c.Status)
		set["approved_date"] = sq.Expr(approvedDateExpr, string(*c.Status))
	}
	set["updated_at"] = sq.Expr("NOW()")

	query, args, err := psql.Update("articles").
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix(returningArticle).
		ToSql()
	if err != nil {
		return nil, err
	}

	article, err := r.queryOne(ctx, query, args...)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	return article, err
}

// SetStatus moves a single article to status; a nil reason keeps the stored one
func (r *articleRepo) SetStatus(ctx context.Context, id string, status models.ArticleStatus, reason *string) (*models.Article, error) {
	query := `
		UPDATE articles SET
			status = $2,
			approved_date = CASE WHEN $2 = 'Approved' THEN NOW() ELSE approved_date END,
			reason_for_rejection = COALESCE($3, reason_for_rejection),
			updated_at = NOW()
		WHERE id = $1
		` + returningArticle
	return r.queryOne(ctx, query, id, string(status), reason)
}

// SetEvidence stores reviewed evidence together with the follow-up status
func (r *articleRepo) SetEvidence(ctx context.Context, id, evidence string, status models.ArticleStatus) (*models.Article, error) {
	query := `
		UPDATE articles SET evidence = $2, status = $3, updated_at = NOW()
		WHERE id = $1
		` + returningArticle
	return r.queryOne(ctx, query, id, evidence, string(status))
}

// AddRating records one vote in a single statement. The right-hand side of
// each assignment sees the pre-update row, so concurrent votes never lose an increment.
func (r *articleRepo) AddRating(ctx context.Context, id string, rating int) (*models.Article, error) {
	query := `
		UPDATE articles SET
			rating_counter = rating_counter + 1,
			total_rating = total_rating + $2,
			average_rating = (total_rating + $2)::double precision / (rating_counter + 1),
			updated_at = NOW()
		WHERE id = $1
		` + returningArticle
	return r.queryOne(ctx, query, id, rating)
}

// Delete removes an article, reporting whether a row existed
func (r *articleRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountByStatus returns the number of articles in each status, zero-filled
func (r *articleRepo) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM articles GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}
	defer rows.Close()

	counts := make(models.StatusCounts, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		counts[st] = 0
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[models.ArticleStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *articleRepo) queryOne(ctx context.Context, query string, args ...interface{}) (*models.Article, error) {
	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return article, nil
}

func selectFiltered(f models.ArticleFilter) sq.SelectBuilder {
	q := psql.Select(articleColumns...).From("articles")

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where(sq.Eq{"status": statuses})
	}
	if f.FromYear > 0 {
		q = q.Where(sq.GtOrEq{"year_of_publication": f.FromYear})
	}
	if f.ToYear > 0 {
		q = q.Where(sq.LtOrEq{"year_of_publication": f.ToYear})
	}
	if f.Query != "" {
		like := "%" + likeEscaper.Replace(f.Query) + "%"
		q = q.Where(sq.Or{
			sq.ILike{"title": like},
			sq.ILike{"authors": like},
			sq.ILike{"claim": like},
		})
	}

	q = q.OrderBy("submitted_date DESC", "id")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var (
		a             models.Article
		status        string
		pages, volume sql.NullInt64
		positive      sql.NullBool
		approved      sql.NullTime
	)
	var doi, evidence, research, participant, link, reason sql.NullString

	err := row.Scan(
		&a.ID, &a.Title, &a.Authors, &a.Source, &a.YearOfPublication, &pages, &volume, &doi,
		&a.Claim, &evidence, &positive, &research, &participant, &link,
		&status, &reason, &a.SubmittedDate, &approved,
		&a.RatingCounter, &a.TotalRating, &a.AverageRating, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Status = models.ArticleStatus(status)
	a.Pages = intPtr(pages)
	a.Volume = intPtr(volume)
	a.DOI = stringPtr(doi)
	a.Evidence = stringPtr(evidence)
	a.Link = stringPtr(link)
	a.ReasonForRejection = stringPtr(reason)
	if positive.Valid {
		a.IsEvidencePositive = &positive.Bool
	}
	if research.Valid {
		rt := models.ResearchType(research.String)
		a.TypeOfResearch = &rt
	}
	if participant.Valid {
		pt := models.ParticipantType(participant.String)
		a.TypeOfParticipant = &pt
	}
	if approved.Valid {
		a.ApprovedDate = &approved.Time
	}

	return &a, nil
}

// nullIfEmpty stores an empty optional text field as NULL
func nullIfEmpty(s *string) interface{} {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return *s
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
