package lectures

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexlearn/backend/internal/models"
)

// Rollup is the derived duration cache for one content node: the raw minute
// sum, the same figure in decimal hours (2 places), and as {hours, minutes}.
// The three fields are always persisted together.
type Rollup struct {
	TotalMinutes int             `json:"total_minutes"`
	TotalHours   float64         `json:"total_hours"`
	Duration     models.Duration `json:"duration"`
}

// AggregateSubLectures sums sub-lecture durations into a Rollup. Order is
// irrelevant and an empty input yields all zeros; it never fails.
func AggregateSubLectures(subs []models.SubLecture) Rollup {
	total := 0
	for _, s := range subs {
		total += s.Duration.TotalMinutes()
	}
	return RollupFromMinutes(total)
}

// RollupFromMinutes derives all three cached fields from a minute count.
func RollupFromMinutes(totalMinutes int) Rollup {
	if totalMinutes < 0 {
		totalMinutes = 0
	}
	return Rollup{
		TotalMinutes: totalMinutes,
		TotalHours:   models.HoursDecimal(totalMinutes),
		Duration:     models.DurationFromMinutes(totalMinutes),
	}
}

// CourseDurationStore persists the course-level roll-up. Implemented by the
// courses repository; returns false when the course no longer exists.
type CourseDurationStore interface {
	UpdateDuration(ctx context.Context, courseID uuid.UUID, totalMinutes int, totalHours float64) (bool, error)
}

// Aggregator recomputes the cached duration totals after any sub-lecture
// mutation. Totals are derived caches, never authoritative: a vanished parent
// degrades to a logged no-op rather than an error, because the sub-lecture
// rows can always rebuild the cache on the next mutation.
type Aggregator struct {
	lectures *Repository
	courses  CourseDurationStore
	logger   *zap.Logger
}

// NewAggregator creates a duration aggregator.
func NewAggregator(lectures *Repository, courses CourseDurationStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{lectures: lectures, courses: courses, logger: logger}
}

// RecomputeLecture reloads a lecture's sub-lectures, aggregates them and
// persists the roll-up onto the lecture. The returned Rollup reflects the new
// totals even when the lecture row has disappeared mid-operation.
func (a *Aggregator) RecomputeLecture(ctx context.Context, lectureID uuid.UUID) (Rollup, error) {
	subs, err := a.lectures.ListSubLectures(ctx, lectureID)
	if err != nil {
		return Rollup{}, err
	}
	roll := AggregateSubLectures(subs)
	found, err := a.lectures.UpdateDuration(ctx, lectureID, roll.TotalMinutes, roll.TotalHours)
	if err != nil {
		return Rollup{}, err
	}
	if !found {
		a.logger.Warn("lecture vanished during duration recompute", zap.String("lecture_id", lectureID.String()))
	}
	return roll, nil
}

// RecomputeCourse re-derives the course roll-up from the already-persisted
// lecture totals. Call only after RecomputeLecture has committed for the
// mutated lecture. A missing course is a silent no-op.
func (a *Aggregator) RecomputeCourse(ctx context.Context, courseID uuid.UUID) error {
	total, err := a.lectures.SumMinutesByCourse(ctx, courseID)
	if err != nil {
		return err
	}
	roll := RollupFromMinutes(total)
	found, err := a.courses.UpdateDuration(ctx, courseID, roll.TotalMinutes, roll.TotalHours)
	if err != nil {
		return err
	}
	if !found {
		a.logger.Warn("course vanished during duration recompute", zap.String("course_id", courseID.String()))
	}
	return nil
}

// RecomputeCascade runs the lecture recompute then the course recompute, in
// that order, returning the lecture's new roll-up.
func (a *Aggregator) RecomputeCascade(ctx context.Context, lectureID, courseID uuid.UUID) (Rollup, error) {
	roll, err := a.RecomputeLecture(ctx, lectureID)
	if err != nil {
		return Rollup{}, err
	}
	if err := a.RecomputeCourse(ctx, courseID); err != nil {
		return Rollup{}, err
	}
	return roll, nil
}
