package lectures

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexlearn/backend/internal/models"
)

// Repository handles lecture and sub-lecture persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a lecture repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new lecture at the end of the course's lecture list.
func (r *Repository) Create(ctx context.Context, l *models.Lecture) error {
	const q = `INSERT INTO lectures (course_id, title, position)
		VALUES ($1, $2, (SELECT COALESCE(MAX(position), -1) + 1 FROM lectures WHERE course_id = $1))
		RETURNING id, position, total_minutes, total_hours, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, l.CourseID, l.Title).
		Scan(&l.ID, &l.Position, &l.TotalMinutes, &l.TotalHours, &l.CreatedAt, &l.UpdatedAt)
}

// GetByID returns a lecture by ID without sub-lectures, or nil if not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lecture, error) {
	const q = `SELECT id, course_id, title, position, total_minutes, total_hours, created_at, updated_at
		FROM lectures WHERE id = $1`
	var l models.Lecture
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&l.ID, &l.CourseID, &l.Title, &l.Position, &l.TotalMinutes, &l.TotalHours, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListByCourse returns the course's lectures in order, without sub-lectures.
func (r *Repository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Lecture, error) {
	const q = `SELECT id, course_id, title, position, total_minutes, total_hours, created_at, updated_at
		FROM lectures WHERE course_id = $1 ORDER BY position, created_at`
	rows, err := r.pool.Query(ctx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Lecture
	for rows.Next() {
		var l models.Lecture
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Position, &l.TotalMinutes, &l.TotalHours, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CourseLectures returns the full lecture tree (sub-lectures attached) and
// whether the course exists. Used for progress denominators and detail reads.
func (r *Repository) CourseLectures(ctx context.Context, courseID uuid.UUID) ([]models.Lecture, bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, courseID).Scan(&exists); err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}

	list, err := r.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, true, err
	}
	subs, err := r.ListSubLecturesByCourse(ctx, courseID)
	if err != nil {
		return nil, true, err
	}
	byLecture := make(map[uuid.UUID][]models.SubLecture, len(list))
	for _, s := range subs {
		byLecture[s.LectureID] = append(byLecture[s.LectureID], s)
	}
	for i := range list {
		list[i].SubLectures = byLecture[list[i].ID]
	}
	return list, true, nil
}

// UpdateTitle renames a lecture. Returns false when the lecture does not exist.
func (r *Repository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE lectures SET title = $1, updated_at = NOW() WHERE id = $2`, title, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateDuration persists the lecture duration roll-up. Returns false when the
// lecture no longer exists.
func (r *Repository) UpdateDuration(ctx context.Context, id uuid.UUID, totalMinutes int, totalHours float64) (bool, error) {
	const q = `UPDATE lectures SET total_minutes = $1, total_hours = $2, updated_at = NOW() WHERE id = $3`
	tag, err := r.pool.Exec(ctx, q, totalMinutes, totalHours, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SumMinutesByCourse sums the already-persisted lecture totals for a course.
func (r *Repository) SumMinutesByCourse(ctx context.Context, courseID uuid.UUID) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total_minutes), 0) FROM lectures WHERE course_id = $1`, courseID).Scan(&total)
	return total, err
}

// Delete removes a lecture; its sub-lectures cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM lectures WHERE id = $1`, id)
	return err
}

// CreateSubLecture inserts a sub-lecture at the end of the lecture's list.
func (r *Repository) CreateSubLecture(ctx context.Context, s *models.SubLecture) error {
	const q = `INSERT INTO sub_lectures (id, lecture_id, title, video_url, video_key, duration_hours, duration_minutes, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, (SELECT COALESCE(MAX(position), -1) + 1 FROM sub_lectures WHERE lecture_id = $2))
		RETURNING position, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.ID, s.LectureID, s.Title, s.VideoURL, s.VideoKey, s.Duration.Hours, s.Duration.Minutes).
		Scan(&s.Position, &s.CreatedAt, &s.UpdatedAt)
}

// GetSubLecture returns a sub-lecture scoped to its lecture, or nil if not found.
func (r *Repository) GetSubLecture(ctx context.Context, lectureID, subLectureID uuid.UUID) (*models.SubLecture, error) {
	const q = `SELECT id, lecture_id, title, video_url, video_key, duration_hours, duration_minutes, position, created_at, updated_at
		FROM sub_lectures WHERE id = $1 AND lecture_id = $2`
	var s models.SubLecture
	err := r.pool.QueryRow(ctx, q, subLectureID, lectureID).
		Scan(&s.ID, &s.LectureID, &s.Title, &s.VideoURL, &s.VideoKey, &s.Duration.Hours, &s.Duration.Minutes, &s.Position, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSubLectures returns a lecture's sub-lectures in order.
func (r *Repository) ListSubLectures(ctx context.Context, lectureID uuid.UUID) ([]models.SubLecture, error) {
	const q = `SELECT id, lecture_id, title, video_url, video_key, duration_hours, duration_minutes, position, created_at, updated_at
		FROM sub_lectures WHERE lecture_id = $1 ORDER BY position, created_at`
	return r.listSubs(ctx, q, lectureID)
}

// ListSubLecturesByCourse returns every sub-lecture in a course, lecture order first.
func (r *Repository) ListSubLecturesByCourse(ctx context.Context, courseID uuid.UUID) ([]models.SubLecture, error) {
	const q = `SELECT s.id, s.lecture_id, s.title, s.video_url, s.video_key, s.duration_hours, s.duration_minutes, s.position, s.created_at, s.updated_at
		FROM sub_lectures s
		JOIN lectures l ON l.id = s.lecture_id
		WHERE l.course_id = $1
		ORDER BY l.position, s.position, s.created_at`
	return r.listSubs(ctx, q, courseID)
}

func (r *Repository) listSubs(ctx context.Context, q string, arg interface{}) ([]models.SubLecture, error) {
	rows, err := r.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SubLecture
	for rows.Next() {
		var s models.SubLecture
		if err := rows.Scan(&s.ID, &s.LectureID, &s.Title, &s.VideoURL, &s.VideoKey, &s.Duration.Hours, &s.Duration.Minutes, &s.Position, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateSubLecture persists an edited sub-lecture (title, duration, video).
func (r *Repository) UpdateSubLecture(ctx context.Context, s *models.SubLecture) error {
	const q = `UPDATE sub_lectures SET title = $1, video_url = $2, video_key = $3,
		duration_hours = $4, duration_minutes = $5, updated_at = NOW()
		WHERE id = $6`
	_, err := r.pool.Exec(ctx, q, s.Title, s.VideoURL, s.VideoKey, s.Duration.Hours, s.Duration.Minutes, s.ID)
	return err
}

// DeleteSubLecture removes a sub-lecture from its lecture.
func (r *Repository) DeleteSubLecture(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sub_lectures WHERE id = $1`, id)
	return err
}
