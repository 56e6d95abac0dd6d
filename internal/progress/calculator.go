package progress

import (
	"math"

	"github.com/google/uuid"

	"github.com/nexlearn/backend/internal/models"
)

// MarkViewed flips the viewed flag for one sub-lecture, creating the lecture
// and sub-lecture entries on first touch. Idempotent: re-marking an already
// viewed sub-lecture changes nothing. Returns true when the flag was newly set.
func MarkViewed(rec *models.ProgressRecord, lectureID, subLectureID uuid.UUID) bool {
	lp := rec.Lecture(lectureID)
	if lp == nil {
		rec.Lectures = append(rec.Lectures, models.LectureProgress{LectureID: lectureID})
		lp = &rec.Lectures[len(rec.Lectures)-1]
	}
	sp := lp.SubLecture(subLectureID)
	if sp == nil {
		lp.SubLectures = append(lp.SubLectures, models.SubLectureProgress{SubLectureID: subLectureID})
		sp = &lp.SubLectures[len(lp.SubLectures)-1]
	}
	if sp.Viewed {
		return false
	}
	sp.Viewed = true
	return true
}

// Recalculate derives the lecture viewed flags, the completion percentage and
// the completed flag from the leaf viewed flags against the live course
// structure. The denominator is always the course's current sub-lecture
// count, so content edits retroactively move existing students' percentages.
// Viewed entries pointing at sub-lectures that no longer exist are ignored;
// they neither inflate the percentage past 100 nor fake completion.
func Recalculate(rec *models.ProgressRecord, lectures []models.Lecture) {
	total := 0
	viewed := 0

	for _, lecture := range lectures {
		total += len(lecture.SubLectures)
		lp := rec.Lecture(lecture.ID)

		// A lecture with zero sub-lectures is never auto-marked viewed.
		allViewed := len(lecture.SubLectures) > 0
		for _, s := range lecture.SubLectures {
			sp := (*models.SubLectureProgress)(nil)
			if lp != nil {
				sp = lp.SubLecture(s.ID)
			}
			if sp != nil && sp.Viewed {
				viewed++
			} else {
				allViewed = false
			}
		}
		if lp != nil {
			lp.Viewed = allViewed
		}
	}

	rec.ProgressPercentage = Percentage(viewed, total)
	rec.Completed = total > 0 && viewed == total
}

// Percentage returns round(100*viewed/total) clamped to [0,100]; 0 when total is 0.
func Percentage(viewed, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(viewed) / float64(total)))
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return p
}

// ForceComplete is the blunt "mark as completed" override: every flag true,
// percentage exactly 100. It deliberately does not consult the live course
// structure, so it can desynchronize if content is added afterward.
func ForceComplete(rec *models.ProgressRecord) {
	for i := range rec.Lectures {
		rec.Lectures[i].Viewed = true
		for j := range rec.Lectures[i].SubLectures {
			rec.Lectures[i].SubLectures[j].Viewed = true
		}
	}
	rec.Completed = true
	rec.ProgressPercentage = 100
}

// ForceIncomplete zeroes every flag and the percentage.
func ForceIncomplete(rec *models.ProgressRecord) {
	for i := range rec.Lectures {
		rec.Lectures[i].Viewed = false
		for j := range rec.Lectures[i].SubLectures {
			rec.Lectures[i].SubLectures[j].Viewed = false
		}
	}
	rec.Completed = false
	rec.ProgressPercentage = 0
}
