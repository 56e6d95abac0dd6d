package progress

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexlearn/backend/internal/middleware"
	"github.com/nexlearn/backend/internal/models"
	"github.com/nexlearn/backend/pkg/response"
)

// CourseStore is the slice of the courses repository the progress handler
// needs for access checks and course details.
type CourseStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	IsEnrolled(ctx context.Context, courseID, userID uuid.UUID) (bool, error)
}

// StructureStore loads the live lecture/sub-lecture tree of a course. The
// bool result reports whether the course exists at all.
type StructureStore interface {
	CourseLectures(ctx context.Context, courseID uuid.UUID) ([]models.Lecture, bool, error)
}

// Store persists progress records. Implemented by Repository.
type Store interface {
	Get(ctx context.Context, userID, courseID uuid.UUID) (*models.ProgressRecord, error)
	Save(ctx context.Context, rec *models.ProgressRecord) error
}

// Handler handles per-student course progress endpoints.
type Handler struct {
	repo      Store
	courses   CourseStore
	structure StructureStore
	logger    *zap.Logger
}

// NewHandler creates a progress handler.
func NewHandler(repo Store, courses CourseStore, structure StructureStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, courses: courses, structure: structure, logger: logger}
}

// authorize loads the course and verifies the caller may track progress in it
// (enrolled student, course owner or admin). Writes the failure response and
// returns nil when not authorized.
func (h *Handler) authorize(c *gin.Context, courseID uuid.UUID) *models.Course {
	course, err := h.courses.GetByID(c.Request.Context(), courseID)
	if err != nil {
		response.Internal(c, "failed to load course")
		return nil
	}
	if course == nil {
		response.NotFound(c, "course not found")
		return nil
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role, _ := c.Get(middleware.ContextUserRole)
	if course.CreatorID == userID || role == string(models.RoleAdmin) {
		return course
	}
	enrolled, err := h.courses.IsEnrolled(c.Request.Context(), courseID, userID)
	if err != nil {
		response.Internal(c, "failed to check enrollment")
		return nil
	}
	if !enrolled {
		response.Forbidden(c, "not enrolled in this course")
		return nil
	}
	return course
}

// GetCourseProgress handles GET /courses/:id/progress. Read-only: when no
// record exists yet it returns zero defaults without creating one.
func (h *Handler) GetCourseProgress(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	course := h.authorize(c, courseID)
	if course == nil {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	lectures, _, err := h.structure.CourseLectures(c.Request.Context(), courseID)
	if err != nil {
		response.Internal(c, "failed to load course content")
		return
	}
	course.Lectures = lectures

	rec, err := h.repo.Get(c.Request.Context(), userID, courseID)
	if err != nil {
		h.logger.Error("load progress failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.Internal(c, "failed to load progress")
		return
	}

	progressEntries := []models.LectureProgress{}
	completed := false
	percentage := 0
	if rec != nil {
		if rec.Lectures != nil {
			progressEntries = rec.Lectures
		}
		completed = rec.Completed
		percentage = rec.ProgressPercentage
	}

	response.OK(c, gin.H{
		"course_details":      course,
		"progress":            progressEntries,
		"completed":           completed,
		"progress_percentage": percentage,
	})
}

// MarkSubLectureViewed handles POST /courses/:id/lectures/:lectureId/sub-lectures/:subId/viewed.
// Creates the progress record lazily, flips the leaf flag, then re-derives the
// lecture flags, percentage and completed against the live course structure.
func (h *Handler) MarkSubLectureViewed(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	lectureID, err := uuid.Parse(c.Param("lectureId"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return
	}
	subID, err := uuid.Parse(c.Param("subId"))
	if err != nil {
		response.BadRequest(c, "invalid sub-lecture id")
		return
	}
	if h.authorize(c, courseID) == nil {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	rec, err := h.repo.Get(c.Request.Context(), userID, courseID)
	if err != nil {
		response.Internal(c, "failed to load progress")
		return
	}
	if rec == nil {
		rec = &models.ProgressRecord{UserID: userID, CourseID: courseID}
	}

	MarkViewed(rec, lectureID, subID)

	// Degraded path: if the live structure cannot be loaded, persist the flag
	// update alone and leave percentage/completed at their cached values.
	lectures, exists, serr := h.structure.CourseLectures(c.Request.Context(), courseID)
	if serr != nil || !exists {
		h.logger.Warn("course structure unavailable, skipping progress recompute",
			zap.Error(serr), zap.String("course_id", courseID.String()))
	} else {
		Recalculate(rec, lectures)
	}

	if err := h.repo.Save(c.Request.Context(), rec); err != nil {
		h.logger.Error("save progress failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.Internal(c, "failed to save progress")
		return
	}
	response.OK(c, gin.H{"progress_percentage": rec.ProgressPercentage, "completed": rec.Completed})
}

// MarkCompleted handles POST /courses/:id/progress/complete. A blunt override
// on the existing record; it cannot create one.
func (h *Handler) MarkCompleted(c *gin.Context) {
	h.force(c, ForceComplete)
}

// MarkIncomplete handles POST /courses/:id/progress/incomplete.
func (h *Handler) MarkIncomplete(c *gin.Context) {
	h.force(c, ForceIncomplete)
}

func (h *Handler) force(c *gin.Context, apply func(*models.ProgressRecord)) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	if h.authorize(c, courseID) == nil {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	rec, err := h.repo.Get(c.Request.Context(), userID, courseID)
	if err != nil {
		response.Internal(c, "failed to load progress")
		return
	}
	if rec == nil {
		response.NotFound(c, "no progress record for this course")
		return
	}

	apply(rec)

	if err := h.repo.Save(c.Request.Context(), rec); err != nil {
		h.logger.Error("save progress failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.Internal(c, "failed to save progress")
		return
	}
	response.OK(c, gin.H{"progress_percentage": rec.ProgressPercentage, "completed": rec.Completed})
}
