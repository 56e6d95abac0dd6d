package courses

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexlearn/backend/internal/models"
)

const courseColumns = `id, title, category, COALESCE(description,''), price_cents, currency, is_free,
		COALESCE(thumbnail_url,''), COALESCE(thumbnail_key,''),
		COALESCE(tutorial_video_url,''), COALESCE(tutorial_video_key,''), COALESCE(tutorial_description,''),
		creator_id, total_minutes, total_hours, is_published, created_at, updated_at`

// Repository handles course and enrollment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a course repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	var c models.Course
	err := row.Scan(&c.ID, &c.Title, &c.Category, &c.Description, &c.PriceCents, &c.Currency, &c.IsFree,
		&c.ThumbnailURL, &c.ThumbnailKey,
		&c.Tutorial.VideoURL, &c.Tutorial.VideoKey, &c.Tutorial.Description,
		&c.CreatorID, &c.TotalMinutes, &c.TotalHours, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new course.
func (r *Repository) Create(ctx context.Context, c *models.Course) error {
	const q = `INSERT INTO courses (title, category, description, price_cents, currency, is_free, tutorial_description, creator_id)
		VALUES ($1, $2, NULLIF($3,''), $4, $5, $6, NULLIF($7,''), $8)
		RETURNING id, created_at, updated_at`
	if c.Currency == "" {
		c.Currency = "USD"
	}
	return r.pool.QueryRow(ctx, q, c.Title, c.Category, c.Description, c.PriceCents, c.Currency, c.IsFree, c.Tutorial.Description, c.CreatorID).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// GetByID returns a course by ID, or nil if not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	return scanCourse(r.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
}

// ListPublished returns all published courses.
func (r *Repository) ListPublished(ctx context.Context) ([]models.Course, error) {
	return r.list(ctx, `SELECT `+courseColumns+` FROM courses WHERE is_published ORDER BY created_at DESC`)
}

// ListByCreator returns all courses owned by an instructor, drafts included.
func (r *Repository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Course, error) {
	return r.list(ctx, `SELECT `+courseColumns+` FROM courses WHERE creator_id = $1 ORDER BY created_at DESC`, creatorID)
}

func (r *Repository) list(ctx context.Context, q string, args ...interface{}) ([]models.Course, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Update updates course metadata fields. Empty strings leave text fields unchanged.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title, category, description string, priceCents *int, isFree *bool, tutorialDescription *string) error {
	const q = `UPDATE courses SET
		title = COALESCE(NULLIF($1,''), title),
		category = COALESCE(NULLIF($2,''), category),
		description = COALESCE(NULLIF($3,''), description),
		price_cents = COALESCE($4, price_cents),
		is_free = COALESCE($5, is_free),
		tutorial_description = COALESCE($6, tutorial_description),
		updated_at = NOW()
		WHERE id = $7`
	_, err := r.pool.Exec(ctx, q, title, category, description, priceCents, isFree, tutorialDescription, id)
	return err
}

// UpdateThumbnail stores the new thumbnail URL and object key.
func (r *Repository) UpdateThumbnail(ctx context.Context, id uuid.UUID, url, key string) error {
	const q = `UPDATE courses SET thumbnail_url = $1, thumbnail_key = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.pool.Exec(ctx, q, url, key, id)
	return err
}

// UpdateTutorialVideo stores the new tutorial video URL and object key.
func (r *Repository) UpdateTutorialVideo(ctx context.Context, id uuid.UUID, url, key string) error {
	const q = `UPDATE courses SET tutorial_video_url = $1, tutorial_video_key = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.pool.Exec(ctx, q, url, key, id)
	return err
}

// SetPublished toggles course visibility.
func (r *Repository) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	const q = `UPDATE courses SET is_published = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, published, id)
	return err
}

// UpdateDuration persists the course duration roll-up. Returns false when the
// course no longer exists (recompute racing a course delete).
func (r *Repository) UpdateDuration(ctx context.Context, id uuid.UUID, totalMinutes int, totalHours float64) (bool, error) {
	const q = `UPDATE courses SET total_minutes = $1, total_hours = $2, updated_at = NOW() WHERE id = $3`
	tag, err := r.pool.Exec(ctx, q, totalMinutes, totalHours, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a course. Lectures, sub-lectures, enrollments, purchases and
// reviews go with it via foreign keys; object storage cleanup is the caller's job.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	return err
}

// Enroll adds a user to the course's enrolled set. Idempotent.
func (r *Repository) Enroll(ctx context.Context, courseID, userID uuid.UUID) error {
	const q = `INSERT INTO enrollments (course_id, user_id) VALUES ($1, $2)
		ON CONFLICT (course_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, courseID, userID)
	return err
}

// IsEnrolled reports whether the user is enrolled in the course.
func (r *Repository) IsEnrolled(ctx context.Context, courseID, userID uuid.UUID) (bool, error) {
	const q = `SELECT 1 FROM enrollments WHERE course_id = $1 AND user_id = $2`
	var one int
	err := r.pool.QueryRow(ctx, q, courseID, userID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// EnrolledCount returns the number of enrolled students.
func (r *Repository) EnrolledCount(ctx context.Context, courseID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments WHERE course_id = $1`, courseID).Scan(&n)
	return n, err
}
