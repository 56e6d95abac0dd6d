package models

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseStatus represents purchase lifecycle.
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
)

// Purchase is the authoritative record that a user bought (or was granted)
// access to a course. Enrollment derives from purchases, never from progress.
type Purchase struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	CourseID    uuid.UUID `json:"course_id"`
	AmountCents int       `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Provider    string    `json:"provider,omitempty"`
	ProviderRef string    `json:"provider_ref,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
