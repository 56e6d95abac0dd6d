package models

import (
	"time"

	"github.com/google/uuid"
)

// Tutorial is the free preview video shown on the course landing page.
type Tutorial struct {
	VideoURL    string `json:"video_url,omitempty"`
	VideoKey    string `json:"-"`
	Description string `json:"description,omitempty"`
}

// Course is a published or draft course owned by an instructor.
// TotalMinutes/TotalHours are duration roll-up caches over all lectures;
// they are recomputed after every sub-lecture mutation and never written
// directly by any client-facing operation.
type Course struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	Description  string    `json:"description,omitempty"`
	PriceCents   int       `json:"price_cents"`
	Currency     string    `json:"currency"`
	IsFree       bool      `json:"is_free"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	ThumbnailKey string    `json:"-"`
	Tutorial     Tutorial  `json:"tutorial"`
	CreatorID    uuid.UUID `json:"creator_id"`
	TotalMinutes int       `json:"total_minutes"`
	TotalHours   float64   `json:"total_hours"`
	IsPublished  bool      `json:"is_published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Loaded on detail reads, nil otherwise.
	Lectures []Lecture `json:"lectures,omitempty"`
}

// TotalDuration returns the course roll-up as {hours, minutes}.
func (c *Course) TotalDuration() Duration {
	return DurationFromMinutes(c.TotalMinutes)
}
