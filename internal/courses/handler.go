package courses

import (
	"context"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexlearn/backend/internal/middleware"
	"github.com/nexlearn/backend/internal/models"
	"github.com/nexlearn/backend/pkg/response"
	"github.com/nexlearn/backend/pkg/storage"
)

// LectureStore is the slice of the lectures repository the course handler
// needs: the full tree for course detail and the flat sub-lecture list for
// cascade deletes.
type LectureStore interface {
	CourseLectures(ctx context.Context, courseID uuid.UUID) ([]models.Lecture, bool, error)
	ListSubLecturesByCourse(ctx context.Context, courseID uuid.UUID) ([]models.SubLecture, error)
}

// Handler handles course HTTP endpoints.
type Handler struct {
	repo     *Repository
	lectures LectureStore
	s3       *storage.S3
	releaser *storage.Releaser
	logger   *zap.Logger
}

// NewHandler creates a course handler.
func NewHandler(repo *Repository, lectures LectureStore, s3 *storage.S3, releaser *storage.Releaser, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, lectures: lectures, s3: s3, releaser: releaser, logger: logger}
}

// CreateCourseRequest is the body for POST /courses.
type CreateCourseRequest struct {
	Title               string `json:"title" binding:"required"`
	Category            string `json:"category" binding:"required"`
	Description         string `json:"description"`
	PriceCents          int    `json:"price_cents"`
	Currency            string `json:"currency"`
	IsFree              bool   `json:"is_free"`
	TutorialDescription string `json:"tutorial_description"`
}

// UpdateCourseRequest is the body for PATCH /courses/:id. Absent fields are
// left unchanged.
type UpdateCourseRequest struct {
	Title               string  `json:"title"`
	Category            string  `json:"category"`
	Description         string  `json:"description"`
	PriceCents          *int    `json:"price_cents"`
	IsFree              *bool   `json:"is_free"`
	TutorialDescription *string `json:"tutorial_description"`
}

// authorize loads the course and verifies the caller owns it (or is admin).
// Writes the failure response itself and returns nil when not authorized.
func (h *Handler) authorize(c *gin.Context, courseID uuid.UUID) *models.Course {
	course, err := h.repo.GetByID(c.Request.Context(), courseID)
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
	if course.CreatorID != userID && role != string(models.RoleAdmin) {
		response.Forbidden(c, "not the course owner")
		return nil
	}
	return course
}

// CreateCourse handles POST /courses (instructor).
func (h *Handler) CreateCourse(c *gin.Context) {
	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.PriceCents < 0 {
		response.BadRequest(c, "price must not be negative")
		return
	}

	course := &models.Course{
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Currency:    req.Currency,
		IsFree:      req.IsFree || req.PriceCents == 0,
		CreatorID:   c.MustGet(middleware.ContextUserID).(uuid.UUID),
	}
	course.Tutorial.Description = req.TutorialDescription

	if err := h.repo.Create(c.Request.Context(), course); err != nil {
		h.logger.Error("create course failed", zap.Error(err))
		response.Internal(c, "failed to create course")
		return
	}
	response.Created(c, course)
}

// UpdateCourse handles PATCH /courses/:id (course owner).
func (h *Handler) UpdateCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	if h.authorize(c, courseID) == nil {
		return
	}
	var req UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.PriceCents != nil && *req.PriceCents < 0 {
		response.BadRequest(c, "price must not be negative")
		return
	}

	if err := h.repo.Update(c.Request.Context(), courseID, req.Title, req.Category, req.Description, req.PriceCents, req.IsFree, req.TutorialDescription); err != nil {
		h.logger.Error("update course failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.Internal(c, "failed to update course")
		return
	}
	course, err := h.repo.GetByID(c.Request.Context(), courseID)
	if err != nil || course == nil {
		response.Internal(c, "failed to load course")
		return
	}
	response.OK(c, course)
}

// SetPublished handles PUT /courses/:id/publish and /unpublish (course owner).
func (h *Handler) SetPublished(published bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid course id")
			return
		}
		if h.authorize(c, courseID) == nil {
			return
		}
		if err := h.repo.SetPublished(c.Request.Context(), courseID, published); err != nil {
			response.Internal(c, "failed to update course")
			return
		}
		response.OK(c, gin.H{"published": published})
	}
}

// ListCourses handles GET /courses: the public published catalogue.
func (h *Handler) ListCourses(c *gin.Context) {
	courses, err := h.repo.ListPublished(c.Request.Context())
	if err != nil {
		h.logger.Error("list courses failed", zap.Error(err))
		response.Internal(c, "failed to list courses")
		return
	}
	if courses == nil {
		courses = []models.Course{}
	}
	response.OK(c, courses)
}

// MyCourses handles GET /courses/mine (instructor): drafts included.
func (h *Handler) MyCourses(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	courses, err := h.repo.ListByCreator(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list courses")
		return
	}
	if courses == nil {
		courses = []models.Course{}
	}
	response.OK(c, courses)
}

// GetCourse handles GET /courses/:id: the course with its full lecture tree
// and enrollment count. Unpublished courses are visible to the owner only.
func (h *Handler) GetCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	course, err := h.repo.GetByID(c.Request.Context(), courseID)
	if err != nil {
		response.Internal(c, "failed to load course")
		return
	}
	if course == nil {
		response.NotFound(c, "course not found")
		return
	}
	if !course.IsPublished {
		userID, ok := c.Get(middleware.ContextUserID)
		role, _ := c.Get(middleware.ContextUserRole)
		if !ok || (userID != course.CreatorID && role != string(models.RoleAdmin)) {
			response.NotFound(c, "course not found")
			return
		}
	}

	lectures, _, err := h.lectures.CourseLectures(c.Request.Context(), courseID)
	if err != nil {
		h.logger.Error("load course lectures failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.Internal(c, "failed to load course content")
		return
	}
	if lectures == nil {
		lectures = []models.Lecture{}
	}
	course.Lectures = lectures

	enrolled, err := h.repo.EnrolledCount(c.Request.Context(), courseID)
	if err != nil {
		h.logger.Warn("enrolled count failed", zap.Error(err), zap.String("course_id", courseID.String()))
	}
	response.OK(c, gin.H{"course": course, "enrolled_count": enrolled})
}

// UploadThumbnail handles PUT /courses/:id/thumbnail (course owner).
// Multipart form with an image file. The previous thumbnail is released.
func (h *Handler) UploadThumbnail(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	course := h.authorize(c, courseID)
	if course == nil {
		return
	}

	file, header, err := c.Request.FormFile("thumbnail")
	if err != nil {
		response.BadRequest(c, "thumbnail file required")
		return
	}
	defer file.Close()
	if header.Size > storage.MaxImageFileSize {
		response.BadRequest(c, "thumbnail exceeds size limit")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !storage.ValidateImageType(contentType, header.Filename) {
		response.BadRequest(c, "invalid image type: only jpeg, png and webp allowed")
		return
	}
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}

	h.releaser.Release(c.Request.Context(), course.ThumbnailKey, storage.KindMedia)
	key := storage.ThumbnailKey(courseID.String(), uuid.New().String()+path.Ext(header.Filename))
	url, err := h.s3.Upload(c.Request.Context(), h.s3.MediaBucket(), key, contentType, file, header.Size, true)
	if err != nil {
		h.logger.Error("thumbnail upload failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.BadGateway(c, "thumbnail upload failed")
		return
	}
	if err := h.repo.UpdateThumbnail(c.Request.Context(), courseID, url, key); err != nil {
		h.releaser.Release(c.Request.Context(), key, storage.KindMedia)
		response.Internal(c, "failed to save thumbnail")
		return
	}
	response.OK(c, gin.H{"thumbnail_url": url})
}

// UploadTutorialVideo handles PUT /courses/:id/tutorial-video (course owner).
// Multipart form with a video file. The previous preview video is released.
func (h *Handler) UploadTutorialVideo(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	course := h.authorize(c, courseID)
	if course == nil {
		return
	}

	file, header, err := c.Request.FormFile("video")
	if err != nil {
		response.BadRequest(c, "video file required")
		return
	}
	defer file.Close()
	if header.Size > storage.MaxVideoFileSize {
		response.BadRequest(c, "video exceeds size limit")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !storage.ValidateVideoType(contentType, header.Filename) {
		response.BadRequest(c, "invalid video type: only mp4, mov and webm allowed")
		return
	}
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}

	h.releaser.Release(c.Request.Context(), course.Tutorial.VideoKey, storage.KindVideo)
	key := storage.TutorialKey(courseID.String(), uuid.New().String())
	url, err := h.s3.Upload(c.Request.Context(), h.s3.VideosBucket(), key, contentType, file, header.Size, false)
	if err != nil {
		h.logger.Error("tutorial video upload failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.BadGateway(c, "video upload failed")
		return
	}
	if err := h.repo.UpdateTutorialVideo(c.Request.Context(), courseID, url, key); err != nil {
		h.releaser.Release(c.Request.Context(), key, storage.KindVideo)
		response.Internal(c, "failed to save tutorial video")
		return
	}
	response.OK(c, gin.H{"tutorial_video_url": url})
}

// DeleteCourse handles DELETE /courses/:id (course owner). Every owned S3
// object is released; lectures, enrollments, purchases, reviews and progress
// rows go via foreign keys.
func (h *Handler) DeleteCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	course := h.authorize(c, courseID)
	if course == nil {
		return
	}

	subs, err := h.lectures.ListSubLecturesByCourse(c.Request.Context(), courseID)
	if err != nil {
		response.Internal(c, "failed to load course content")
		return
	}
	for _, s := range subs {
		h.releaser.Release(c.Request.Context(), s.VideoKey, storage.KindVideo)
	}
	h.releaser.Release(c.Request.Context(), course.Tutorial.VideoKey, storage.KindVideo)
	h.releaser.Release(c.Request.Context(), course.ThumbnailKey, storage.KindMedia)

	if err := h.repo.Delete(c.Request.Context(), courseID); err != nil {
		h.logger.Error("delete course failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.Internal(c, "failed to delete course")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
