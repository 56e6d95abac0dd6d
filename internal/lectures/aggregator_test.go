package lectures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexlearn/backend/internal/models"
)

func sub(hours, minutes int) models.SubLecture {
	return models.SubLecture{Duration: models.NewDuration(hours, minutes)}
}

func TestAggregateSubLectures(t *testing.T) {
	t.Run("empty input is all zeros", func(t *testing.T) {
		roll := AggregateSubLectures(nil)
		assert.Equal(t, 0, roll.TotalMinutes)
		assert.Equal(t, 0.0, roll.TotalHours)
		assert.Equal(t, models.Duration{}, roll.Duration)
	})

	t.Run("one hour plus forty-five minutes", func(t *testing.T) {
		roll := AggregateSubLectures([]models.SubLecture{sub(1, 0), sub(0, 45)})
		assert.Equal(t, 105, roll.TotalMinutes)
		assert.Equal(t, 1.75, roll.TotalHours)
		assert.Equal(t, models.Duration{Hours: 1, Minutes: 45}, roll.Duration)
	})

	t.Run("order is irrelevant", func(t *testing.T) {
		a := AggregateSubLectures([]models.SubLecture{sub(0, 45), sub(1, 0), sub(2, 30)})
		b := AggregateSubLectures([]models.SubLecture{sub(2, 30), sub(0, 45), sub(1, 0)})
		assert.Equal(t, a, b)
	})

	t.Run("zero-duration items contribute nothing", func(t *testing.T) {
		roll := AggregateSubLectures([]models.SubLecture{sub(0, 30), sub(0, 0), sub(0, 30)})
		assert.Equal(t, 60, roll.TotalMinutes)
	})
}

func TestRollupFromMinutes(t *testing.T) {
	cases := []struct {
		minutes  int
		hours    float64
		duration models.Duration
	}{
		{0, 0, models.Duration{}},
		{30, 0.5, models.Duration{Minutes: 30}},
		{60, 1, models.Duration{Hours: 1}},
		{105, 1.75, models.Duration{Hours: 1, Minutes: 45}},
		{125, 2.08, models.Duration{Hours: 2, Minutes: 5}},
		{210, 3.5, models.Duration{Hours: 3, Minutes: 30}},
		{61, 1.02, models.Duration{Hours: 1, Minutes: 1}},
	}
	for _, tc := range cases {
		roll := RollupFromMinutes(tc.minutes)
		assert.Equal(t, tc.minutes, roll.TotalMinutes, "minutes=%d", tc.minutes)
		assert.Equal(t, tc.hours, roll.TotalHours, "minutes=%d", tc.minutes)
		assert.Equal(t, tc.duration, roll.Duration, "minutes=%d", tc.minutes)
	}
}

// Deleting one of two half-hour sub-lectures halves the lecture total.
func TestAggregateAfterDelete(t *testing.T) {
	before := AggregateSubLectures([]models.SubLecture{sub(0, 30), sub(0, 30)})
	require.Equal(t, 60, before.TotalMinutes)

	after := AggregateSubLectures([]models.SubLecture{sub(0, 30)})
	assert.Equal(t, 30, after.TotalMinutes)
	assert.Equal(t, 0.5, after.TotalHours)
}

// A course holding two lectures like the one above re-derives from the
// already-persisted lecture totals: 105 + 105 = 210 minutes, 3.5 hours.
func TestCourseRollupFromLectureTotals(t *testing.T) {
	lectureTotal := AggregateSubLectures([]models.SubLecture{sub(1, 0), sub(0, 45)}).TotalMinutes
	roll := RollupFromMinutes(lectureTotal * 2)
	assert.Equal(t, 210, roll.TotalMinutes)
	assert.Equal(t, 3.5, roll.TotalHours)
	assert.Equal(t, models.Duration{Hours: 3, Minutes: 30}, roll.Duration)
}

// Re-deriving the course total from the flattened sub-lectures must produce
// the same figures as summing lecture totals.
func TestFlattenedEqualsLectureSum(t *testing.T) {
	l1 := []models.SubLecture{sub(1, 0), sub(0, 45)}
	l2 := []models.SubLecture{sub(0, 25), sub(0, 55), sub(2, 5)}

	viaLectures := AggregateSubLectures(l1).TotalMinutes + AggregateSubLectures(l2).TotalMinutes
	flattened := AggregateSubLectures(append(append([]models.SubLecture{}, l1...), l2...))
	assert.Equal(t, viaLectures, flattened.TotalMinutes)
}
