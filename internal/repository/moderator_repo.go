package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/speed-article-api/internal/database"
	"github.com/speed-article-api/internal/models"
)

// moderatorRepo is the concrete implementation of ModeratorRepository
type moderatorRepo struct {
	db *database.DB
}

// NewModeratorRepo creates a new moderator repository
func NewModeratorRepo(db *database.DB) ModeratorRepository {
	return &moderatorRepo{db: db}
}

// Create inserts a new moderator; a taken email yields ErrDuplicate
func (r *moderatorRepo) Create(ctx context.Context, m *models.Moderator) error {
	query := `
		INSERT INTO moderators (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query, m.ID, m.Email, m.PasswordHash, string(m.Role), m.CreatedAt, m.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert moderator: %w", err)
	}
	return nil
}

// GetByID retrieves a moderator by ID
func (r *moderatorRepo) GetByID(ctx context.Context, id string) (*models.Moderator, error) {
	query := `SELECT id, email, password_hash, role, created_at, updated_at FROM moderators WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

// GetByEmail retrieves a moderator by email
func (r *moderatorRepo) GetByEmail(ctx context.Context, email string) (*models.Moderator, error) {
	query := `SELECT id, email, password_hash, role, created_at, updated_at FROM moderators WHERE email = $1`
	return r.queryOne(ctx, query, email)
}

// Count returns the total number of moderators
func (r *moderatorRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM moderators").Scan(&count)
	return count, err
}

func (r *moderatorRepo) queryOne(ctx context.Context, query string, arg string) (*models.Moderator, error) {
	var m models.Moderator
	var role string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&m.ID, &m.Email, &m.PasswordHash, &role, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Role = models.Role(role)
	return &m, nil
}
