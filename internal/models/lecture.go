package models

import (
	"time"

	"github.com/google/uuid"
)

// Lecture is an ordered section of a course. TotalMinutes/TotalHours are the
// cached sum over its sub-lectures, recomputed on every sub-lecture mutation.
type Lecture struct {
	ID           uuid.UUID `json:"id"`
	CourseID     uuid.UUID `json:"course_id"`
	Title        string    `json:"title"`
	Position     int       `json:"position"`
	TotalMinutes int       `json:"total_minutes"`
	TotalHours   float64   `json:"total_hours"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Loaded on detail reads, nil otherwise.
	SubLectures []SubLecture `json:"sub_lectures,omitempty"`
}

// TotalDuration returns the lecture roll-up as {hours, minutes}.
func (l *Lecture) TotalDuration() Duration {
	return DurationFromMinutes(l.TotalMinutes)
}

// SubLecture is the atomic playable video unit, owned by exactly one lecture.
type SubLecture struct {
	ID        uuid.UUID `json:"id"`
	LectureID uuid.UUID `json:"lecture_id"`
	Title     string    `json:"title"`
	VideoURL  string    `json:"video_url"`
	VideoKey  string    `json:"-"`
	Duration  Duration  `json:"duration"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
