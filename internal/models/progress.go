package models

import (
	"time"

	"github.com/google/uuid"
)

// SubLectureProgress is the per-sub-lecture viewed flag inside a lecture entry.
// SubLectureID is a plain reference, not a foreign key: the entry survives the
// sub-lecture being deleted from the course.
type SubLectureProgress struct {
	SubLectureID uuid.UUID `json:"sub_lecture_id"`
	Viewed       bool      `json:"viewed"`
}

// LectureProgress is the per-lecture entry of a progress record. Viewed is
// derived: true only when the lecture has at least one sub-lecture and every
// current sub-lecture id has a viewed entry here.
type LectureProgress struct {
	LectureID    uuid.UUID            `json:"lecture_id"`
	Viewed       bool                 `json:"viewed"`
	SubLectures  []SubLectureProgress `json:"sub_lectures"`
}

// ProgressRecord tracks one user's viewing state in one course. Created lazily
// on the first progress write, never by reads. ProgressPercentage and Completed
// are derived from the leaf viewed flags against the live course structure.
type ProgressRecord struct {
	ID                 uuid.UUID         `json:"id"`
	UserID             uuid.UUID         `json:"user_id"`
	CourseID           uuid.UUID         `json:"course_id"`
	Completed          bool              `json:"completed"`
	ProgressPercentage int               `json:"progress_percentage"`
	Lectures           []LectureProgress `json:"lectures"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// Lecture returns the entry for lectureID, or nil.
func (p *ProgressRecord) Lecture(lectureID uuid.UUID) *LectureProgress {
	for i := range p.Lectures {
		if p.Lectures[i].LectureID == lectureID {
			return &p.Lectures[i]
		}
	}
	return nil
}

// SubLecture returns the entry for subLectureID, or nil.
func (lp *LectureProgress) SubLecture(subLectureID uuid.UUID) *SubLectureProgress {
	for i := range lp.SubLectures {
		if lp.SubLectures[i].SubLectureID == subLectureID {
			return &lp.SubLectures[i]
		}
	}
	return nil
}
