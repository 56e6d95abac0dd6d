package reviews

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexlearn/backend/internal/models"
)

// Repository handles review persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a review repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert inserts a review or replaces the user's existing one for the course.
func (r *Repository) Upsert(ctx context.Context, rev *models.Review) error {
	const q = `INSERT INTO reviews (course_id, user_id, rating, comment)
		VALUES ($1, $2, $3, NULLIF($4,''))
		ON CONFLICT (course_id, user_id)
		DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = NOW()
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, rev.CourseID, rev.UserID, rev.Rating, rev.Comment).
		Scan(&rev.ID, &rev.CreatedAt, &rev.UpdatedAt)
}

// GetByID returns a review, or nil if not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	const q = `SELECT id, course_id, user_id, rating, COALESCE(comment,''), created_at, updated_at
		FROM reviews WHERE id = $1`
	var rev models.Review
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&rev.ID, &rev.CourseID, &rev.UserID, &rev.Rating, &rev.Comment, &rev.CreatedAt, &rev.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

// ListByCourse returns a course's reviews, newest first.
func (r *Repository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Review, error) {
	const q = `SELECT id, course_id, user_id, rating, COALESCE(comment,''), created_at, updated_at
		FROM reviews WHERE course_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Review
	for rows.Next() {
		var rev models.Review
		if err := rows.Scan(&rev.ID, &rev.CourseID, &rev.UserID, &rev.Rating, &rev.Comment, &rev.CreatedAt, &rev.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

// AverageRating returns the mean rating and review count for a course.
func (r *Repository) AverageRating(ctx context.Context, courseID uuid.UUID) (float64, int, error) {
	const q = `SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE course_id = $1`
	var avg float64
	var count int
	err := r.pool.QueryRow(ctx, q, courseID).Scan(&avg, &count)
	return avg, count, err
}

// Delete removes a review.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	return err
}
