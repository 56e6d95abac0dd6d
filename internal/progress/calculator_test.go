package progress

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexlearn/backend/internal/models"
)

// courseWith builds a live course structure: one lecture per entry, each with
// the given number of sub-lectures.
func courseWith(subCounts ...int) []models.Lecture {
	lectures := make([]models.Lecture, 0, len(subCounts))
	for _, n := range subCounts {
		l := models.Lecture{ID: uuid.New()}
		for i := 0; i < n; i++ {
			l.SubLectures = append(l.SubLectures, models.SubLecture{ID: uuid.New(), LectureID: l.ID})
		}
		lectures = append(lectures, l)
	}
	return lectures
}

func newRecord() *models.ProgressRecord {
	return &models.ProgressRecord{UserID: uuid.New(), CourseID: uuid.New()}
}

func TestMarkViewedCreatesEntriesLazily(t *testing.T) {
	rec := newRecord()
	lectureID, subID := uuid.New(), uuid.New()

	changed := MarkViewed(rec, lectureID, subID)
	assert.True(t, changed)
	require.Len(t, rec.Lectures, 1)
	require.Len(t, rec.Lectures[0].SubLectures, 1)
	assert.True(t, rec.Lectures[0].SubLectures[0].Viewed)
	assert.False(t, rec.Lectures[0].Viewed, "lecture flag is derived, not set by MarkViewed")

	// Re-marking is a no-op on the flag.
	changed = MarkViewed(rec, lectureID, subID)
	assert.False(t, changed)
	require.Len(t, rec.Lectures[0].SubLectures, 1)
}

// One of four sub-lectures viewed -> 25%, not completed.
func TestQuarterProgress(t *testing.T) {
	lectures := courseWith(2, 2)
	rec := newRecord()
	MarkViewed(rec, lectures[0].ID, lectures[0].SubLectures[0].ID)
	Recalculate(rec, lectures)

	assert.Equal(t, 25, rec.ProgressPercentage)
	assert.False(t, rec.Completed)
	assert.False(t, rec.Lecture(lectures[0].ID).Viewed)
}

// All four viewed -> 100% and completed, without any force override.
func TestFullProgress(t *testing.T) {
	lectures := courseWith(2, 2)
	rec := newRecord()
	for _, l := range lectures {
		for _, s := range l.SubLectures {
			MarkViewed(rec, l.ID, s.ID)
		}
	}
	Recalculate(rec, lectures)

	assert.Equal(t, 100, rec.ProgressPercentage)
	assert.True(t, rec.Completed)
	for _, l := range lectures {
		assert.True(t, rec.Lecture(l.ID).Viewed)
	}
}

func TestIdempotentRemark(t *testing.T) {
	lectures := courseWith(3)
	rec := newRecord()

	MarkViewed(rec, lectures[0].ID, lectures[0].SubLectures[0].ID)
	Recalculate(rec, lectures)
	first := rec.ProgressPercentage

	MarkViewed(rec, lectures[0].ID, lectures[0].SubLectures[0].ID)
	Recalculate(rec, lectures)
	assert.Equal(t, first, rec.ProgressPercentage)
	assert.Equal(t, 33, first)
}

// A lecture is viewed only when every one of its current sub-lectures is.
func TestLectureViewedDerivation(t *testing.T) {
	lectures := courseWith(2)
	rec := newRecord()

	MarkViewed(rec, lectures[0].ID, lectures[0].SubLectures[0].ID)
	Recalculate(rec, lectures)
	assert.False(t, rec.Lecture(lectures[0].ID).Viewed)

	MarkViewed(rec, lectures[0].ID, lectures[0].SubLectures[1].ID)
	Recalculate(rec, lectures)
	assert.True(t, rec.Lecture(lectures[0].ID).Viewed)
}

// A lecture with zero sub-lectures is never auto-marked viewed.
func TestEmptyLectureNeverViewed(t *testing.T) {
	lectures := courseWith(1, 0)
	rec := newRecord()
	MarkViewed(rec, lectures[0].ID, lectures[0].SubLectures[0].ID)
	// Touch the empty lecture so it has an entry at all.
	rec.Lectures = append(rec.Lectures, models.LectureProgress{LectureID: lectures[1].ID})
	Recalculate(rec, lectures)

	assert.True(t, rec.Lecture(lectures[0].ID).Viewed)
	assert.False(t, rec.Lecture(lectures[1].ID).Viewed)
	assert.Equal(t, 100, rec.ProgressPercentage, "empty lecture adds nothing to the denominator")
}

// Adding content after a student hit 100% lowers the percentage on the next
// recompute: the denominator is always the live sub-lecture count.
func TestNewContentLowersPercentage(t *testing.T) {
	lectures := courseWith(2)
	rec := newRecord()
	for _, s := range lectures[0].SubLectures {
		MarkViewed(rec, lectures[0].ID, s.ID)
	}
	Recalculate(rec, lectures)
	require.Equal(t, 100, rec.ProgressPercentage)
	require.True(t, rec.Completed)

	// Instructor adds two more sub-lectures to the lecture.
	lectures[0].SubLectures = append(lectures[0].SubLectures,
		models.SubLecture{ID: uuid.New()}, models.SubLecture{ID: uuid.New()})
	Recalculate(rec, lectures)

	assert.Equal(t, 50, rec.ProgressPercentage)
	assert.False(t, rec.Completed)
	assert.False(t, rec.Lecture(lectures[0].ID).Viewed)
}

// Viewed entries for since-deleted sub-lectures are ignored: the percentage
// stays within [0,100] and completion is judged against current content only.
func TestStaleEntriesIgnored(t *testing.T) {
	lectures := courseWith(3)
	rec := newRecord()
	for _, s := range lectures[0].SubLectures {
		MarkViewed(rec, lectures[0].ID, s.ID)
	}
	// Two of the three are deleted from the course.
	lectures[0].SubLectures = lectures[0].SubLectures[:1]
	Recalculate(rec, lectures)

	assert.Equal(t, 100, rec.ProgressPercentage)
	assert.True(t, rec.Completed)
}

func TestForceCompleteAndIncomplete(t *testing.T) {
	lectures := courseWith(2, 3)
	rec := newRecord()
	MarkViewed(rec, lectures[0].ID, lectures[0].SubLectures[0].ID)
	Recalculate(rec, lectures)
	require.Equal(t, 20, rec.ProgressPercentage)

	ForceComplete(rec)
	assert.True(t, rec.Completed)
	assert.Equal(t, 100, rec.ProgressPercentage)
	for _, lp := range rec.Lectures {
		assert.True(t, lp.Viewed)
		for _, sp := range lp.SubLectures {
			assert.True(t, sp.Viewed)
		}
	}

	ForceIncomplete(rec)
	assert.False(t, rec.Completed)
	assert.Equal(t, 0, rec.ProgressPercentage)
	for _, lp := range rec.Lectures {
		assert.False(t, lp.Viewed)
		for _, sp := range lp.SubLectures {
			assert.False(t, sp.Viewed)
		}
	}
}

func TestPercentageBounds(t *testing.T) {
	assert.Equal(t, 0, Percentage(0, 0))
	assert.Equal(t, 0, Percentage(5, 0), "empty course is always 0")
	assert.Equal(t, 0, Percentage(0, 7))
	assert.Equal(t, 33, Percentage(1, 3))
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 100, Percentage(3, 3))
	assert.Equal(t, 100, Percentage(9, 3), "clamped")
	for viewed := 0; viewed <= 10; viewed++ {
		for total := 0; total <= 10; total++ {
			p := Percentage(viewed, total)
			assert.GreaterOrEqual(t, p, 0)
			assert.LessOrEqual(t, p, 100)
		}
	}
}

// An empty course never reports completed, even with a stale record around.
func TestEmptyCourseNotCompleted(t *testing.T) {
	rec := newRecord()
	MarkViewed(rec, uuid.New(), uuid.New())
	Recalculate(rec, nil)
	assert.Equal(t, 0, rec.ProgressPercentage)
	assert.False(t, rec.Completed)
}
