package progress

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexlearn/backend/internal/models"
)

// Repository handles progress record persistence. A record is stored as one
// course_progress row plus its lecture_progress / sub_lecture_progress rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a progress repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get loads the full progress record for a user/course pair, or nil when none
// exists. Reads never create records.
func (r *Repository) Get(ctx context.Context, userID, courseID uuid.UUID) (*models.ProgressRecord, error) {
	const q = `SELECT id, user_id, course_id, completed, progress_percentage, created_at, updated_at
		FROM course_progress WHERE user_id = $1 AND course_id = $2`
	var rec models.ProgressRecord
	err := r.pool.QueryRow(ctx, q, userID, courseID).
		Scan(&rec.ID, &rec.UserID, &rec.CourseID, &rec.Completed, &rec.ProgressPercentage, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	const lq = `SELECT lp.id, lp.lecture_id, lp.viewed, sp.sub_lecture_id, sp.viewed
		FROM lecture_progress lp
		LEFT JOIN sub_lecture_progress sp ON sp.lecture_progress_id = lp.id
		WHERE lp.progress_id = $1
		ORDER BY lp.id, sp.id`
	rows, err := r.pool.Query(ctx, lq, rec.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lastID uuid.UUID
	for rows.Next() {
		var (
			lpID      uuid.UUID
			lectureID uuid.UUID
			lpViewed  bool
			subID     *uuid.UUID
			spViewed  *bool
		)
		if err := rows.Scan(&lpID, &lectureID, &lpViewed, &subID, &spViewed); err != nil {
			return nil, err
		}
		if lpID != lastID {
			rec.Lectures = append(rec.Lectures, models.LectureProgress{LectureID: lectureID, Viewed: lpViewed})
			lastID = lpID
		}
		if subID != nil {
			lp := &rec.Lectures[len(rec.Lectures)-1]
			lp.SubLectures = append(lp.SubLectures, models.SubLectureProgress{SubLectureID: *subID, Viewed: *spViewed})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save upserts the whole record tree in one transaction. Creates the
// course_progress row on first write (lazy materialization).
func (r *Repository) Save(ctx context.Context, rec *models.ProgressRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const upsert = `INSERT INTO course_progress (user_id, course_id, completed, progress_percentage)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, course_id) DO UPDATE
		SET completed = EXCLUDED.completed, progress_percentage = EXCLUDED.progress_percentage, updated_at = NOW()
		RETURNING id`
	if err := tx.QueryRow(ctx, upsert, rec.UserID, rec.CourseID, rec.Completed, rec.ProgressPercentage).Scan(&rec.ID); err != nil {
		return err
	}

	const lectureUpsert = `INSERT INTO lecture_progress (progress_id, lecture_id, viewed)
		VALUES ($1, $2, $3)
		ON CONFLICT (progress_id, lecture_id) DO UPDATE SET viewed = EXCLUDED.viewed
		RETURNING id`
	const subUpsert = `INSERT INTO sub_lecture_progress (lecture_progress_id, sub_lecture_id, viewed)
		VALUES ($1, $2, $3)
		ON CONFLICT (lecture_progress_id, sub_lecture_id) DO UPDATE SET viewed = EXCLUDED.viewed`
	for i := range rec.Lectures {
		lp := &rec.Lectures[i]
		var lpID uuid.UUID
		if err := tx.QueryRow(ctx, lectureUpsert, rec.ID, lp.LectureID, lp.Viewed).Scan(&lpID); err != nil {
			return err
		}
		for _, sp := range lp.SubLectures {
			if _, err := tx.Exec(ctx, subUpsert, lpID, sp.SubLectureID, sp.Viewed); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}
