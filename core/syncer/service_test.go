package syncer

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/classroom"
	"github.com/darasahq/darasa/core/mirror"
	"github.com/darasahq/darasa/core/token"
	inmemdb "github.com/darasahq/darasa/storage/database/inmem"
)

type (
	coursePage struct {
		courses []classroom.Course
		next    string
	}
	courseworkPage struct {
		items []classroom.CourseWork
		next  string
	}
	submissionPage struct {
		items []classroom.StudentSubmission
		next  string
	}

	// fakeClient serves scripted pages. Probe maps hold the outcome per
	// course id; an absent entry means not enrolled.
	fakeClient struct {
		coursePages     map[string]coursePage               // by page token
		courseworkPages map[string]map[string]courseworkPage // course id -> page token
		submissionPages map[string]map[string]submissionPage // coursework id -> page token
		studentProbes   map[string]error                    // course id -> nil means hit
		teacherProbes   map[string]error
		listCoursesErr  error
	}
)

var _ classroom.Client = (*fakeClient)(nil)

func (c *fakeClient) ListCourses(ctx context.Context, pageToken string) ([]classroom.Course, string, error) {
	if c.listCoursesErr != nil {
		return nil, "", c.listCoursesErr
	}
	page := c.coursePages[pageToken]
	return page.courses, page.next, nil
}

func (c *fakeClient) ListCourseWork(ctx context.Context, courseID, pageToken string) ([]classroom.CourseWork, string, error) {
	page := c.courseworkPages[courseID][pageToken]
	return page.items, page.next, nil
}

func (c *fakeClient) ListSubmissions(ctx context.Context, courseID, courseWorkID, pageToken string) ([]classroom.StudentSubmission, string, error) {
	page := c.submissionPages[courseWorkID][pageToken]
	return page.items, page.next, nil
}

func (c *fakeClient) GetStudent(ctx context.Context, courseID string) (classroom.Student, error) {
	err, ok := c.studentProbes[courseID]
	if !ok {
		return classroom.Student{}, classroom.ErrNotEnrolled
	}
	return classroom.Student{CourseID: courseID, UserID: "user-1"}, err
}

func (c *fakeClient) GetTeacher(ctx context.Context, courseID string) (classroom.Teacher, error) {
	err, ok := c.teacherProbes[courseID]
	if !ok {
		return classroom.Teacher{}, classroom.ErrNotEnrolled
	}
	return classroom.Teacher{CourseID: courseID, UserID: "user-1"}, err
}

func newTestService(client classroom.Client) (*Service, *inmemdb.DB) {
	db := inmemdb.Open()
	svc := NewService(
		func(userID string) classroom.Client { return client },
		inmemdb.NewMirrorRepository(db),
		testLogger(),
	)
	return svc, db
}

func testLogger() core.Logger {
	return core.NewStdLogger(log.New(ioutil.Discard, "", 0))
}

func courseworkItems(n int, prefix string) []classroom.CourseWork {
	items := make([]classroom.CourseWork, n)
	for i := range items {
		items[i] = classroom.CourseWork{
			ID:    fmt.Sprintf("%s-%d", prefix, i),
			Title: fmt.Sprintf("Assignment %d", i),
			State: "PUBLISHED",
		}
	}
	return items
}

func TestService_SyncCoursework_pagination(t *testing.T) {
	client := &fakeClient{
		courseworkPages: map[string]map[string]courseworkPage{
			"ext-c1": {
				"":      {items: courseworkItems(50, "cw-a"), next: "page2"},
				"page2": {items: courseworkItems(12, "cw-b")},
			},
		},
	}
	svc, db := newTestService(client)

	res, err := svc.SyncCoursework(context.Background(), "user-1", "ext-c1", "course-1")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 62, res.Synced)
	assert.Empty(t, res.Errors)
	assert.False(t, res.LastSyncAt.IsZero())
	assert.Equal(t, 62, db.Counts()["coursework"])
}

func TestService_SyncCoursework_skipsMalformedItems(t *testing.T) {
	client := &fakeClient{
		courseworkPages: map[string]map[string]courseworkPage{
			"ext-c1": {
				"": {items: []classroom.CourseWork{
					{ID: "cw-1", Title: "Essay"},
					{ID: "cw-2"}, // no title
					{ID: "cw-3", Title: "Quiz"},
				}},
			},
		},
	}
	svc, db := newTestService(client)

	res, err := svc.SyncCoursework(context.Background(), "user-1", "ext-c1", "course-1")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, 2, res.Synced)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "cw-2")
	assert.Equal(t, 2, db.Counts()["coursework"])
}

func TestService_SyncSubmissions_unresolvedCoursework(t *testing.T) {
	client := &fakeClient{
		submissionPages: map[string]map[string]submissionPage{
			"ext-cw1": {
				"": {items: []classroom.StudentSubmission{{ID: "s1", State: "TURNED_IN"}}},
			},
		},
	}
	svc, db := newTestService(client)

	// the coursework row was never mirrored; the call must skip, not fail
	res, err := svc.SyncSubmissions(context.Background(), "user-1", "ext-c1", "ext-cw1")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Zero(t, res.Synced)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "ext-cw1")
	assert.Zero(t, db.Counts()["submission"])
}

func TestService_SyncRosterProbe(t *testing.T) {
	t.Run("teacher hit after student miss", func(t *testing.T) {
		client := &fakeClient{teacherProbes: map[string]error{"ext-c1": nil}}
		svc, db := newTestService(client)

		role, err := svc.SyncRosterProbe(context.Background(), "user-1", "ext-c1", "course-1")
		require.NoError(t, err)

		assert.Equal(t, mirror.RoleTeacher, role)
		assert.Equal(t, 1, db.Counts()["enrollment"])
	})

	t.Run("both probes miss", func(t *testing.T) {
		client := &fakeClient{}
		svc, db := newTestService(client)

		role, err := svc.SyncRosterProbe(context.Background(), "user-1", "ext-c1", "course-1")
		require.NoError(t, err)

		assert.Equal(t, mirror.RoleNone, role)
		assert.Zero(t, db.Counts()["enrollment"])
	})

	t.Run("provider outage is an error, not a miss", func(t *testing.T) {
		client := &fakeClient{
			studentProbes: map[string]error{
				"ext-c1": &classroom.APIError{Op: "get student", Status: 500},
			},
		}
		svc, db := newTestService(client)

		role, err := svc.SyncRosterProbe(context.Background(), "user-1", "ext-c1", "course-1")
		require.Error(t, err)

		assert.Equal(t, mirror.RoleNone, role)
		assert.Zero(t, db.Counts()["enrollment"])
	})
}

func newFullSyncClient() *fakeClient {
	return &fakeClient{
		coursePages: map[string]coursePage{
			"": {courses: []classroom.Course{
				{ID: "ext-c1", Name: "Algebra", CourseState: "ACTIVE"},
				{ID: "ext-c2", Name: "History", CourseState: "ARCHIVED"},
			}},
		},
		courseworkPages: map[string]map[string]courseworkPage{
			"ext-c1": {
				"": {items: []classroom.CourseWork{
					{ID: "ext-cw1", Title: "Essay", TopicID: "ext-t1"},
					{ID: "ext-cw2", Title: "Quiz"},
				}},
			},
			"ext-c2": {
				"": {items: []classroom.CourseWork{
					{ID: "ext-cw3", Title: "Reading"},
				}},
			},
		},
		submissionPages: map[string]map[string]submissionPage{
			"ext-cw1": {
				"": {items: []classroom.StudentSubmission{{ID: "ext-s1", UserID: "user-1", State: "TURNED_IN"}}},
			},
			"ext-cw2": {
				"": {items: []classroom.StudentSubmission{{ID: "ext-s2", UserID: "user-1", State: "NEW"}}},
			},
		},
		studentProbes: map[string]error{"ext-c1": nil},
	}
}

func TestService_FullSyncForUser(t *testing.T) {
	svc, db := newTestService(newFullSyncClient())

	full, err := svc.FullSyncForUser(context.Background(), "user-1")
	require.NoError(t, err)

	assert.True(t, full.Courses.Success)
	assert.Equal(t, 2, full.Courses.Synced)
	require.Len(t, full.Coursework, 2)
	assert.Equal(t, 2, full.Coursework[0].Synced)
	assert.Equal(t, 1, full.Coursework[1].Synced)

	// submissions run only for courses the user is enrolled in
	require.Len(t, full.Submissions, 2)
	for _, res := range full.Submissions {
		assert.True(t, res.Success)
		assert.Equal(t, 1, res.Synced)
	}

	want := map[string]int{"course": 2, "coursework": 3, "submission": 2, "topic": 1, "enrollment": 1}
	assert.Equal(t, want, db.Counts())
}

func TestService_FullSyncForUser_idempotent(t *testing.T) {
	svc, db := newTestService(newFullSyncClient())

	_, err := svc.FullSyncForUser(context.Background(), "user-1")
	require.NoError(t, err)
	first := db.Counts()

	full, err := svc.FullSyncForUser(context.Background(), "user-1")
	require.NoError(t, err)

	assert.True(t, full.Courses.Success)
	assert.Equal(t, first, db.Counts())
}

func TestService_FullSyncForUser_authErrorAbortsRun(t *testing.T) {
	client := &fakeClient{listCoursesErr: token.ErrNoRefreshToken}
	svc, db := newTestService(client)

	full, err := svc.FullSyncForUser(context.Background(), "user-1")
	require.Error(t, err)

	assert.True(t, token.IsAuthError(err))
	assert.Equal(t, FullSyncResult{}, full)
	assert.Zero(t, db.Counts()["course"])
}
