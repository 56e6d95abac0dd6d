package reviews

import (
	"context"
	"math"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexlearn/backend/internal/middleware"
	"github.com/nexlearn/backend/internal/models"
	"github.com/nexlearn/backend/pkg/response"
)

// CourseStore is the slice of the courses repository the review handler needs.
type CourseStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	IsEnrolled(ctx context.Context, courseID, userID uuid.UUID) (bool, error)
}

// Handler handles review HTTP endpoints.
type Handler struct {
	repo    *Repository
	courses CourseStore
	logger  *zap.Logger
}

// NewHandler creates a review handler.
func NewHandler(repo *Repository, courses CourseStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, courses: courses, logger: logger}
}

// CreateReviewRequest is the body for PUT /courses/:id/review.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// PutReview handles PUT /courses/:id/review. Enrolled students only; a
// second submission replaces the first.
func (h *Handler) PutReview(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "rating must be between 1 and 5")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	course, err := h.courses.GetByID(c.Request.Context(), courseID)
	if err != nil {
		response.Internal(c, "failed to load course")
		return
	}
	if course == nil {
		response.NotFound(c, "course not found")
		return
	}
	enrolled, err := h.courses.IsEnrolled(c.Request.Context(), courseID, userID)
	if err != nil {
		response.Internal(c, "failed to check enrollment")
		return
	}
	if !enrolled {
		response.Forbidden(c, "only enrolled students can review")
		return
	}

	rev := &models.Review{CourseID: courseID, UserID: userID, Rating: req.Rating, Comment: req.Comment}
	if err := h.repo.Upsert(c.Request.Context(), rev); err != nil {
		h.logger.Error("save review failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.Internal(c, "failed to save review")
		return
	}
	response.OK(c, rev)
}

// ListReviews handles GET /courses/:id/reviews (public).
func (h *Handler) ListReviews(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	list, err := h.repo.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		response.Internal(c, "failed to list reviews")
		return
	}
	if list == nil {
		list = []models.Review{}
	}
	avg, count, err := h.repo.AverageRating(c.Request.Context(), courseID)
	if err != nil {
		response.Internal(c, "failed to compute rating")
		return
	}
	response.OK(c, gin.H{
		"reviews":        list,
		"average_rating": math.Round(avg*10) / 10,
		"review_count":   count,
	})
}

// DeleteReview handles DELETE /reviews/:id (review author or admin).
func (h *Handler) DeleteReview(c *gin.Context) {
	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid review id")
		return
	}
	rev, err := h.repo.GetByID(c.Request.Context(), reviewID)
	if err != nil {
		response.Internal(c, "failed to load review")
		return
	}
	if rev == nil {
		response.NotFound(c, "review not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role, _ := c.Get(middleware.ContextUserRole)
	if rev.UserID != userID && role != string(models.RoleAdmin) {
		response.Forbidden(c, "not the review author")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), reviewID); err != nil {
		response.Internal(c, "failed to delete review")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
