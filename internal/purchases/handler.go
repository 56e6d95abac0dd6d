package purchases

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexlearn/backend/internal/middleware"
	"github.com/nexlearn/backend/internal/models"
	"github.com/nexlearn/backend/pkg/response"
)

// Handler handles purchase and enrollment HTTP endpoints.
type Handler struct {
	repo     *Repository
	enroller Enroller
	logger   *zap.Logger
}

// NewHandler creates a purchase handler.
func NewHandler(repo *Repository, enroller Enroller, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, enroller: enroller, logger: logger}
}

// ListPurchases handles GET /purchases: the caller's own purchase history.
func (h *Handler) ListPurchases(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	purchases, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list purchases")
		return
	}
	if purchases == nil {
		purchases = []models.Purchase{}
	}
	response.OK(c, purchases)
}

// EnrollFree handles POST /courses/:id/enroll. Only free published courses
// can be joined directly; paid courses enroll through the payment webhook.
func (h *Handler) EnrollFree(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	course, err := h.enroller.GetByID(c.Request.Context(), courseID)
	if err != nil {
		response.Internal(c, "failed to load course")
		return
	}
	if course == nil || !course.IsPublished {
		response.NotFound(c, "course not found")
		return
	}
	if !course.IsFree {
		response.Forbidden(c, "course requires purchase")
		return
	}

	if err := h.enroller.Enroll(c.Request.Context(), courseID, userID); err != nil {
		h.logger.Error("free enroll failed", zap.Error(err),
			zap.String("course_id", courseID.String()), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to enroll")
		return
	}
	response.OK(c, gin.H{"enrolled": true})
}
