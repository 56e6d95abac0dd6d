package progress

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexlearn/backend/internal/middleware"
	"github.com/nexlearn/backend/internal/models"
)

type stubCourses struct {
	course   *models.Course
	enrolled bool
}

func (s *stubCourses) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	return s.course, nil
}

func (s *stubCourses) IsEnrolled(ctx context.Context, courseID, userID uuid.UUID) (bool, error) {
	return s.enrolled, nil
}

type stubStructure struct {
	lectures []models.Lecture
	exists   bool
	err      error
}

func (s *stubStructure) CourseLectures(ctx context.Context, courseID uuid.UUID) ([]models.Lecture, bool, error) {
	return s.lectures, s.exists, s.err
}

type stubStore struct {
	rec   *models.ProgressRecord
	saved *models.ProgressRecord
}

func (s *stubStore) Get(ctx context.Context, userID, courseID uuid.UUID) (*models.ProgressRecord, error) {
	return s.rec, nil
}

func (s *stubStore) Save(ctx context.Context, rec *models.ProgressRecord) error {
	s.saved = rec
	return nil
}

func serveProgress(h *Handler, userID uuid.UUID, method, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	withUser := func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextUserRole, string(models.RoleStudent))
	}
	r.POST("/courses/:id/lectures/:lectureId/sub-lectures/:subId/viewed", withUser, h.MarkSubLectureViewed)
	r.POST("/courses/:id/progress/complete", withUser, h.MarkCompleted)
	r.POST("/courses/:id/progress/incomplete", withUser, h.MarkIncomplete)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

// When the course structure cannot be loaded, the flag update is persisted
// alone and percentage/completed keep their cached values.
func TestMarkViewedStructureUnavailableKeepsCachedTotals(t *testing.T) {
	userID, courseID := uuid.New(), uuid.New()
	lectureID, subID := uuid.New(), uuid.New()

	rec := &models.ProgressRecord{
		UserID:             userID,
		CourseID:           courseID,
		ProgressPercentage: 40,
		Completed:          false,
	}
	store := &stubStore{rec: rec}
	h := NewHandler(store,
		&stubCourses{course: &models.Course{ID: courseID}, enrolled: true},
		&stubStructure{err: assert.AnError},
		nil)

	w := serveProgress(h, userID, http.MethodPost,
		"/courses/"+courseID.String()+"/lectures/"+lectureID.String()+"/sub-lectures/"+subID.String()+"/viewed")

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, store.saved)
	assert.Equal(t, 40, store.saved.ProgressPercentage, "cached percentage untouched without the live denominator")
	assert.False(t, store.saved.Completed)

	lp := store.saved.Lecture(lectureID)
	require.NotNil(t, lp)
	sp := lp.SubLecture(subID)
	require.NotNil(t, sp)
	assert.True(t, sp.Viewed, "leaf flag is still persisted on the degraded path")
}

// A structure load reporting the course gone behaves the same as a load error.
func TestMarkViewedCourseVanishedKeepsCachedTotals(t *testing.T) {
	userID, courseID := uuid.New(), uuid.New()
	lectureID, subID := uuid.New(), uuid.New()

	store := &stubStore{rec: &models.ProgressRecord{
		UserID:             userID,
		CourseID:           courseID,
		ProgressPercentage: 100,
		Completed:          true,
	}}
	h := NewHandler(store,
		&stubCourses{course: &models.Course{ID: courseID}, enrolled: true},
		&stubStructure{exists: false},
		nil)

	w := serveProgress(h, userID, http.MethodPost,
		"/courses/"+courseID.String()+"/lectures/"+lectureID.String()+"/sub-lectures/"+subID.String()+"/viewed")

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, store.saved)
	assert.Equal(t, 100, store.saved.ProgressPercentage)
	assert.True(t, store.saved.Completed)
}

// The force overrides operate on an existing record only; they never create one.
func TestForceOverridesRequireExistingRecord(t *testing.T) {
	userID, courseID := uuid.New(), uuid.New()
	for _, op := range []string{"complete", "incomplete"} {
		store := &stubStore{}
		h := NewHandler(store,
			&stubCourses{course: &models.Course{ID: courseID}, enrolled: true},
			&stubStructure{exists: true},
			nil)

		w := serveProgress(h, userID, http.MethodPost,
			"/courses/"+courseID.String()+"/progress/"+op)

		assert.Equal(t, http.StatusNotFound, w.Code, op)
		assert.Nil(t, store.saved, "no record may be created by a force override")
	}
}

// With a record present, the overrides flip every flag and pin the percentage.
func TestForceOverridesApplyToExistingRecord(t *testing.T) {
	userID, courseID := uuid.New(), uuid.New()
	rec := newRecord()
	rec.UserID, rec.CourseID = userID, courseID
	MarkViewed(rec, uuid.New(), uuid.New())

	store := &stubStore{rec: rec}
	h := NewHandler(store,
		&stubCourses{course: &models.Course{ID: courseID}, enrolled: true},
		&stubStructure{exists: true},
		nil)

	w := serveProgress(h, userID, http.MethodPost, "/courses/"+courseID.String()+"/progress/complete")
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, store.saved)
	assert.True(t, store.saved.Completed)
	assert.Equal(t, 100, store.saved.ProgressPercentage)
}
