package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/mirror"
)

type mirrorRepository struct {
	exec core.DBExecutor
}

var _ mirror.Repository = (*mirrorRepository)(nil) // interface compliance check

func NewMirrorRepository(exec core.DBExecutor) *mirrorRepository {
	return &mirrorRepository{exec: exec}
}

// trapNoRowsErr maps psql "no rows" err to mirror.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return mirror.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

type courseRow struct {
	ID              string      `db:"id"`
	ExternalID      string      `db:"external_id"`
	Name            string      `db:"name"`
	Section         null.String `db:"section"`
	Description     null.String `db:"description"`
	State           string      `db:"state"`
	OwnerExternalID null.String `db:"owner_external_id"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

func (r courseRow) course() mirror.Course {
	return mirror.Course{
		ID:              r.ID,
		ExternalID:      r.ExternalID,
		Name:            r.Name,
		Section:         r.Section,
		Description:     r.Description,
		State:           mirror.CourseState(r.State),
		OwnerExternalID: r.OwnerExternalID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

const upsertCourseSQL = `
INSERT INTO course (id, external_id, name, section, description, state, owner_external_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
ON CONFLICT (external_id) DO UPDATE SET
	name = EXCLUDED.name,
	section = EXCLUDED.section,
	description = EXCLUDED.description,
	state = EXCLUDED.state,
	owner_external_id = EXCLUDED.owner_external_id,
	updated_at = EXCLUDED.updated_at
RETURNING id, external_id, name, section, description, state, owner_external_id, created_at, updated_at`

func (repo mirrorRepository) UpsertCourse(ctx context.Context, c mirror.Course) (mirror.Course, error) {
	var row courseRow
	err := repo.exec.GetContext(ctx, &row, upsertCourseSQL,
		uuid.New().String(), c.ExternalID, c.Name, c.Section, c.Description, string(c.State), c.OwnerExternalID, time.Now().UTC())
	if err != nil {
		return mirror.Course{}, errors.Wrap(err, "upserting course")
	}
	return row.course(), nil
}

type courseworkRow struct {
	ID              string       `db:"id"`
	CourseID        string       `db:"course_id"`
	ExternalID      string       `db:"external_id"`
	Title           string       `db:"title"`
	Description     null.String  `db:"description"`
	DueDate         null.Time    `db:"due_date"`
	MaxPoints       null.Float64 `db:"max_points"`
	State           string       `db:"state"`
	TopicExternalID null.String  `db:"topic_external_id"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
}

func (r courseworkRow) coursework() mirror.Coursework {
	return mirror.Coursework{
		ID:              r.ID,
		CourseID:        r.CourseID,
		ExternalID:      r.ExternalID,
		Title:           r.Title,
		Description:     r.Description,
		DueDate:         r.DueDate,
		MaxPoints:       r.MaxPoints,
		State:           mirror.CourseworkState(r.State),
		TopicExternalID: r.TopicExternalID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

const upsertCourseworkSQL = `
INSERT INTO coursework (id, course_id, external_id, title, description, due_date, max_points, state, topic_external_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
ON CONFLICT (external_id) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	due_date = EXCLUDED.due_date,
	max_points = EXCLUDED.max_points,
	state = EXCLUDED.state,
	topic_external_id = EXCLUDED.topic_external_id,
	updated_at = EXCLUDED.updated_at
RETURNING id, course_id, external_id, title, description, due_date, max_points, state, topic_external_id, created_at, updated_at`

func (repo mirrorRepository) UpsertCoursework(ctx context.Context, cw mirror.Coursework) (mirror.Coursework, error) {
	var row courseworkRow
	err := repo.exec.GetContext(ctx, &row, upsertCourseworkSQL,
		uuid.New().String(), cw.CourseID, cw.ExternalID, cw.Title, cw.Description, cw.DueDate, cw.MaxPoints, string(cw.State), cw.TopicExternalID, time.Now().UTC())
	if err != nil {
		return mirror.Coursework{}, errors.Wrap(err, "upserting coursework")
	}
	return row.coursework(), nil
}

type submissionRow struct {
	ID             string       `db:"id"`
	CourseworkID   string       `db:"coursework_id"`
	ExternalID     string       `db:"external_id"`
	UserExternalID string       `db:"user_external_id"`
	State          string       `db:"state"`
	Late           bool         `db:"late"`
	Grade          null.Float64 `db:"grade"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

func (r submissionRow) submission() mirror.Submission {
	return mirror.Submission{
		ID:             r.ID,
		CourseworkID:   r.CourseworkID,
		ExternalID:     r.ExternalID,
		UserExternalID: r.UserExternalID,
		State:          mirror.SubmissionState(r.State),
		Late:           r.Late,
		Grade:          r.Grade,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

const upsertSubmissionSQL = `
INSERT INTO submission (id, coursework_id, external_id, user_external_id, state, late, grade, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
ON CONFLICT (external_id) DO UPDATE SET
	state = EXCLUDED.state,
	late = EXCLUDED.late,
	grade = EXCLUDED.grade,
	updated_at = EXCLUDED.updated_at
RETURNING id, coursework_id, external_id, user_external_id, state, late, grade, created_at, updated_at`

func (repo mirrorRepository) UpsertSubmission(ctx context.Context, s mirror.Submission) (mirror.Submission, error) {
	var row submissionRow
	err := repo.exec.GetContext(ctx, &row, upsertSubmissionSQL,
		uuid.New().String(), s.CourseworkID, s.ExternalID, s.UserExternalID, string(s.State), s.Late, s.Grade, time.Now().UTC())
	if err != nil {
		return mirror.Submission{}, errors.Wrap(err, "upserting submission")
	}
	return row.submission(), nil
}

type topicRow struct {
	ID         string      `db:"id"`
	CourseID   string      `db:"course_id"`
	ExternalID string      `db:"external_id"`
	Name       null.String `db:"name"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

const upsertTopicSQL = `
INSERT INTO topic (id, course_id, external_id, name, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (external_id) DO UPDATE SET
	name = EXCLUDED.name,
	updated_at = EXCLUDED.updated_at
RETURNING id, course_id, external_id, name, created_at, updated_at`

func (repo mirrorRepository) UpsertTopic(ctx context.Context, t mirror.Topic) (mirror.Topic, error) {
	var row topicRow
	err := repo.exec.GetContext(ctx, &row, upsertTopicSQL,
		uuid.New().String(), t.CourseID, t.ExternalID, t.Name, time.Now().UTC())
	if err != nil {
		return mirror.Topic{}, errors.Wrap(err, "upserting topic")
	}
	return mirror.Topic{
		ID: row.ID, CourseID: row.CourseID, ExternalID: row.ExternalID,
		Name: row.Name, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}, nil
}

type enrollmentRow struct {
	ID        string    `db:"id"`
	CourseID  string    `db:"course_id"`
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r enrollmentRow) enrollment() mirror.Enrollment {
	return mirror.Enrollment{
		ID:        r.ID,
		CourseID:  r.CourseID,
		UserID:    r.UserID,
		Role:      mirror.EnrollmentRole(r.Role),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const upsertEnrollmentSQL = `
INSERT INTO enrollment (id, course_id, user_id, role, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (course_id, user_id) DO UPDATE SET
	role = EXCLUDED.role,
	updated_at = EXCLUDED.updated_at
RETURNING id, course_id, user_id, role, created_at, updated_at`

func (repo mirrorRepository) UpsertEnrollment(ctx context.Context, e mirror.Enrollment) (mirror.Enrollment, error) {
	var row enrollmentRow
	err := repo.exec.GetContext(ctx, &row, upsertEnrollmentSQL,
		uuid.New().String(), e.CourseID, e.UserID, string(e.Role), time.Now().UTC())
	if err != nil {
		return mirror.Enrollment{}, errors.Wrap(err, "upserting enrollment")
	}
	return row.enrollment(), nil
}

func (repo mirrorRepository) GetCourseworkByExternalID(ctx context.Context, externalID string) (mirror.Coursework, error) {
	var row courseworkRow
	err := repo.exec.GetContext(ctx, &row, `SELECT * FROM coursework WHERE external_id = $1`, externalID)
	if err != nil {
		return mirror.Coursework{}, trapNoRowsErr(err, "getting coursework by external id")
	}
	return row.coursework(), nil
}

func (repo mirrorRepository) GetEnrolledCourses(ctx context.Context, userID string) ([]mirror.Course, error) {
	var rows []courseRow
	err := repo.exec.SelectContext(ctx, &rows, `
SELECT c.* FROM course c
JOIN enrollment e ON e.course_id = c.id
WHERE e.user_id = $1
ORDER BY c.created_at`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "getting enrolled courses")
	}
	courses := make([]mirror.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses, nil
}

func (repo mirrorRepository) GetCourseworkForCourse(ctx context.Context, courseID string) ([]mirror.Coursework, error) {
	var rows []courseworkRow
	err := repo.exec.SelectContext(ctx, &rows, `SELECT * FROM coursework WHERE course_id = $1 ORDER BY created_at`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "getting coursework for course")
	}
	cwList := make([]mirror.Coursework, 0, len(rows))
	for _, r := range rows {
		cwList = append(cwList, r.coursework())
	}
	return cwList, nil
}

func (repo mirrorRepository) GetEnrollmentsForUser(ctx context.Context, userID string) ([]mirror.Enrollment, error) {
	var rows []enrollmentRow
	err := repo.exec.SelectContext(ctx, &rows, `SELECT * FROM enrollment WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "getting enrollments")
	}
	enrollments := make([]mirror.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.enrollment())
	}
	return enrollments, nil
}
