package lectures

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexlearn/backend/internal/middleware"
	"github.com/nexlearn/backend/internal/models"
	"github.com/nexlearn/backend/pkg/response"
	"github.com/nexlearn/backend/pkg/storage"
)

// CourseStore is the slice of the courses repository the lecture handler
// needs for ownership and enrollment checks.
type CourseStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	IsEnrolled(ctx context.Context, courseID, userID uuid.UUID) (bool, error)
}

// Handler handles lecture and sub-lecture HTTP endpoints.
type Handler struct {
	repo     *Repository
	courses  CourseStore
	agg      *Aggregator
	s3       *storage.S3
	releaser *storage.Releaser
	logger   *zap.Logger
}

// NewHandler creates a lecture handler.
func NewHandler(repo *Repository, courses CourseStore, agg *Aggregator, s3 *storage.S3, releaser *storage.Releaser, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, courses: courses, agg: agg, s3: s3, releaser: releaser, logger: logger}
}

// CreateLectureRequest is the body for POST /courses/:id/lectures.
type CreateLectureRequest struct {
	Title string `json:"title" binding:"required"`
}

// UpdateLectureRequest is the body for PATCH /lectures/:id.
type UpdateLectureRequest struct {
	Title string `json:"title" binding:"required"`
}

// authorizeCourse loads the course and verifies the caller owns it (or is admin).
// Writes the failure response itself and returns nil when not authorized.
func (h *Handler) authorizeCourse(c *gin.Context, courseID uuid.UUID) *models.Course {
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
	if course.CreatorID != userID && role != string(models.RoleAdmin) {
		response.Forbidden(c, "not the course owner")
		return nil
	}
	return course
}

// authorizeLecture resolves a lecture and verifies course ownership.
func (h *Handler) authorizeLecture(c *gin.Context, lectureID uuid.UUID) *models.Lecture {
	lecture, err := h.repo.GetByID(c.Request.Context(), lectureID)
	if err != nil {
		response.Internal(c, "failed to load lecture")
		return nil
	}
	if lecture == nil {
		response.NotFound(c, "lecture not found")
		return nil
	}
	if h.authorizeCourse(c, lecture.CourseID) == nil {
		return nil
	}
	return lecture
}

// CreateLecture handles POST /courses/:id/lectures (course owner).
func (h *Handler) CreateLecture(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	if h.authorizeCourse(c, courseID) == nil {
		return
	}
	var req CreateLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	l := &models.Lecture{CourseID: courseID, Title: req.Title}
	if err := h.repo.Create(c.Request.Context(), l); err != nil {
		h.logger.Error("create lecture failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.Internal(c, "failed to create lecture")
		return
	}
	response.Created(c, l)
}

// UpdateLecture handles PATCH /lectures/:id (course owner).
func (h *Handler) UpdateLecture(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return
	}
	lecture := h.authorizeLecture(c, lectureID)
	if lecture == nil {
		return
	}
	var req UpdateLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if _, err := h.repo.UpdateTitle(c.Request.Context(), lectureID, req.Title); err != nil {
		response.Internal(c, "failed to update lecture")
		return
	}
	lecture.Title = req.Title
	response.OK(c, lecture)
}

// DeleteLecture handles DELETE /lectures/:id (course owner). Releases every
// owned sub-lecture video, drops the lecture and recomputes the course total.
func (h *Handler) DeleteLecture(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return
	}
	lecture := h.authorizeLecture(c, lectureID)
	if lecture == nil {
		return
	}

	subs, err := h.repo.ListSubLectures(c.Request.Context(), lectureID)
	if err != nil {
		response.Internal(c, "failed to load sub-lectures")
		return
	}
	for _, s := range subs {
		h.releaser.Release(c.Request.Context(), s.VideoKey, storage.KindVideo)
	}

	if err := h.repo.Delete(c.Request.Context(), lectureID); err != nil {
		h.logger.Error("delete lecture failed", zap.Error(err), zap.String("lecture_id", lectureID.String()))
		response.Internal(c, "failed to delete lecture")
		return
	}
	if err := h.agg.RecomputeCourse(c.Request.Context(), lecture.CourseID); err != nil {
		h.logger.Warn("course duration recompute failed after lecture delete", zap.Error(err), zap.String("course_id", lecture.CourseID.String()))
	}
	response.OK(c, gin.H{"deleted": true})
}

// CreateSubLecture handles POST /lectures/:id/sub-lectures (course owner).
// Multipart form: title (required), hours, minutes, video file (required).
func (h *Handler) CreateSubLecture(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return
	}
	lecture := h.authorizeLecture(c, lectureID)
	if lecture == nil {
		return
	}

	title := c.PostForm("title")
	if title == "" {
		response.BadRequest(c, "title required")
		return
	}
	hours, minutes, err := parseDurationForm(c, 0, 0)
	if err != nil {
		response.BadRequest(c, err.Error())
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

	s := &models.SubLecture{
		ID:        uuid.New(),
		LectureID: lectureID,
		Title:     title,
		Duration:  models.NewDuration(hours, minutes),
	}
	key := storage.VideoKey(lectureID.String(), uuid.New().String())
	url, err := h.s3.Upload(c.Request.Context(), h.s3.VideosBucket(), key, contentType, file, header.Size, false)
	if err != nil {
		// Upload of a required new video is fatal: the create does not proceed.
		h.logger.Error("sub-lecture video upload failed", zap.Error(err), zap.String("lecture_id", lectureID.String()))
		response.BadGateway(c, "video upload failed")
		return
	}
	s.VideoURL = url
	s.VideoKey = key

	if err := h.repo.CreateSubLecture(c.Request.Context(), s); err != nil {
		h.releaser.Release(c.Request.Context(), key, storage.KindVideo)
		h.logger.Error("create sub-lecture failed", zap.Error(err), zap.String("lecture_id", lectureID.String()))
		response.Internal(c, "failed to create sub-lecture")
		return
	}

	roll, err := h.agg.RecomputeCascade(c.Request.Context(), lectureID, lecture.CourseID)
	if err != nil {
		h.logger.Warn("duration recompute failed after sub-lecture create", zap.Error(err), zap.String("lecture_id", lectureID.String()))
	}
	response.Created(c, gin.H{"sub_lecture": s, "lecture_duration": roll})
}

// UpdateSubLecture handles PATCH /lectures/:id/sub-lectures/:subId (course
// owner). Multipart form; every field optional. Hours and minutes default to
// their existing values independently, never to zero. A new video file
// replaces the old one: old object released first, then the new one stored.
func (h *Handler) UpdateSubLecture(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return
	}
	subID, err := uuid.Parse(c.Param("subId"))
	if err != nil {
		response.BadRequest(c, "invalid sub-lecture id")
		return
	}
	lecture := h.authorizeLecture(c, lectureID)
	if lecture == nil {
		return
	}
	s, err := h.repo.GetSubLecture(c.Request.Context(), lectureID, subID)
	if err != nil {
		response.Internal(c, "failed to load sub-lecture")
		return
	}
	if s == nil {
		response.NotFound(c, "sub-lecture not found")
		return
	}

	if title := c.PostForm("title"); title != "" {
		s.Title = title
	}
	hours, minutes, err := parseDurationForm(c, s.Duration.Hours, s.Duration.Minutes)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	s.Duration = models.NewDuration(hours, minutes)

	if file, header, ferr := c.Request.FormFile("video"); ferr == nil {
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
		h.releaser.Release(c.Request.Context(), s.VideoKey, storage.KindVideo)
		key := storage.VideoKey(lectureID.String(), uuid.New().String())
		url, uerr := h.s3.Upload(c.Request.Context(), h.s3.VideosBucket(), key, contentType, file, header.Size, false)
		if uerr != nil {
			h.logger.Error("sub-lecture video replace failed", zap.Error(uerr), zap.String("sub_lecture_id", subID.String()))
			response.BadGateway(c, "video upload failed")
			return
		}
		s.VideoURL = url
		s.VideoKey = key
	}

	if err := h.repo.UpdateSubLecture(c.Request.Context(), s); err != nil {
		h.logger.Error("update sub-lecture failed", zap.Error(err), zap.String("sub_lecture_id", subID.String()))
		response.Internal(c, "failed to update sub-lecture")
		return
	}

	roll, err := h.agg.RecomputeCascade(c.Request.Context(), lectureID, lecture.CourseID)
	if err != nil {
		h.logger.Warn("duration recompute failed after sub-lecture edit", zap.Error(err), zap.String("lecture_id", lectureID.String()))
	}
	response.OK(c, gin.H{"sub_lecture": s, "lecture_duration": roll})
}

// DeleteSubLecture handles DELETE /lectures/:id/sub-lectures/:subId (course owner).
func (h *Handler) DeleteSubLecture(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return
	}
	subID, err := uuid.Parse(c.Param("subId"))
	if err != nil {
		response.BadRequest(c, "invalid sub-lecture id")
		return
	}
	lecture := h.authorizeLecture(c, lectureID)
	if lecture == nil {
		return
	}
	s, err := h.repo.GetSubLecture(c.Request.Context(), lectureID, subID)
	if err != nil {
		response.Internal(c, "failed to load sub-lecture")
		return
	}
	if s == nil {
		response.NotFound(c, "sub-lecture not found")
		return
	}

	h.releaser.Release(c.Request.Context(), s.VideoKey, storage.KindVideo)

	if err := h.repo.DeleteSubLecture(c.Request.Context(), subID); err != nil {
		h.logger.Error("delete sub-lecture failed", zap.Error(err), zap.String("sub_lecture_id", subID.String()))
		response.Internal(c, "failed to delete sub-lecture")
		return
	}

	roll, err := h.agg.RecomputeCascade(c.Request.Context(), lectureID, lecture.CourseID)
	if err != nil {
		h.logger.Warn("duration recompute failed after sub-lecture delete", zap.Error(err), zap.String("lecture_id", lectureID.String()))
	}
	response.OK(c, gin.H{"deleted": true, "lecture_duration": roll})
}

// PlaybackURL handles GET /lectures/:id/sub-lectures/:subId/play. Enrolled
// students and the course owner get a presigned playback URL.
func (h *Handler) PlaybackURL(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return
	}
	subID, err := uuid.Parse(c.Param("subId"))
	if err != nil {
		response.BadRequest(c, "invalid sub-lecture id")
		return
	}
	lecture, err := h.repo.GetByID(c.Request.Context(), lectureID)
	if err != nil {
		response.Internal(c, "failed to load lecture")
		return
	}
	if lecture == nil {
		response.NotFound(c, "lecture not found")
		return
	}
	course, err := h.courses.GetByID(c.Request.Context(), lecture.CourseID)
	if err != nil || course == nil {
		response.NotFound(c, "course not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if course.CreatorID != userID {
		enrolled, err := h.courses.IsEnrolled(c.Request.Context(), course.ID, userID)
		if err != nil || !enrolled {
			response.Forbidden(c, "not enrolled in this course")
			return
		}
	}
	s, err := h.repo.GetSubLecture(c.Request.Context(), lectureID, subID)
	if err != nil {
		response.Internal(c, "failed to load sub-lecture")
		return
	}
	if s == nil {
		response.NotFound(c, "sub-lecture not found")
		return
	}
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	expire := h.s3.PresignExpire()
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), h.s3.VideosBucket(), s.VideoKey, expire)
	if err != nil {
		h.logger.Error("presign playback URL failed", zap.Error(err), zap.String("sub_lecture_id", subID.String()))
		response.Internal(c, "failed to generate playback URL")
		return
	}
	response.OK(c, gin.H{"playback_url": url, "expires_in": int(expire.Seconds())})
}

// parseDurationForm reads optional hours/minutes form fields, falling back to
// the given values when a field is absent.
func parseDurationForm(c *gin.Context, defHours, defMinutes int) (int, int, error) {
	hours, minutes := defHours, defMinutes
	if v, ok := c.GetPostForm("hours"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, errInvalidDuration
		}
		hours = n
	}
	if v, ok := c.GetPostForm("minutes"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, errInvalidDuration
		}
		minutes = n
	}
	return hours, minutes, nil
}
