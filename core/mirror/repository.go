package mirror

import (
	"context"
	"errors"
)

var (
	// ErrNotFound: a local row referenced by external id does not exist yet.
	ErrNotFound = errors.New("mirror: row not found")
)

// Repository is the idempotent write layer over the local mirror tables.
// Upserts insert with a fresh surrogate id; on external-id conflict they
// update only the mutable fields, leaving the surrogate id and creation
// timestamp untouched.
type Repository interface {
	UpsertCourse(ctx context.Context, c Course) (Course, error)
	UpsertCoursework(ctx context.Context, cw Coursework) (Coursework, error)
	UpsertSubmission(ctx context.Context, s Submission) (Submission, error)
	UpsertTopic(ctx context.Context, t Topic) (Topic, error)
	// UpsertEnrollment is keyed by (course id, user id) instead: the roster
	// has no provider-assigned id of its own.
	UpsertEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)

	GetCourseworkByExternalID(ctx context.Context, externalID string) (Coursework, error)
	// GetEnrolledCourses returns the courses the user has any enrollment in.
	GetEnrolledCourses(ctx context.Context, userID string) ([]Course, error)
	GetCourseworkForCourse(ctx context.Context, courseID string) ([]Coursework, error)
	GetEnrollmentsForUser(ctx context.Context, userID string) ([]Enrollment, error)
}
