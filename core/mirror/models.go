package mirror

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Local mirror entities. Each carries a generated surrogate id plus the
// provider-assigned external id, unique per entity type. Re-syncing an
// unchanged external entity must neither duplicate the row nor change its
// surrogate id.

// CourseState is the closed local set of course states. Provider values
// outside the set map to CourseStateUnknown instead of hitting storage raw.
type CourseState string

const (
	CourseStateActive      CourseState = "ACTIVE"
	CourseStateArchived    CourseState = "ARCHIVED"
	CourseStateProvisioned CourseState = "PROVISIONED"
	CourseStateDeclined    CourseState = "DECLINED"
	CourseStateSuspended   CourseState = "SUSPENDED"
	CourseStateUnknown     CourseState = "UNKNOWN"
)

func CourseStateFromProvider(s string) CourseState {
	switch st := CourseState(s); st {
	case CourseStateActive, CourseStateArchived, CourseStateProvisioned, CourseStateDeclined, CourseStateSuspended:
		return st
	}
	return CourseStateUnknown
}

type CourseworkState string

const (
	CourseworkStatePublished CourseworkState = "PUBLISHED"
	CourseworkStateDraft     CourseworkState = "DRAFT"
	CourseworkStateDeleted   CourseworkState = "DELETED"
	CourseworkStateUnknown   CourseworkState = "UNKNOWN"
)

func CourseworkStateFromProvider(s string) CourseworkState {
	switch st := CourseworkState(s); st {
	case CourseworkStatePublished, CourseworkStateDraft, CourseworkStateDeleted:
		return st
	}
	return CourseworkStateUnknown
}

type SubmissionState string

const (
	SubmissionStateNew       SubmissionState = "NEW"
	SubmissionStateCreated   SubmissionState = "CREATED"
	SubmissionStateTurnedIn  SubmissionState = "TURNED_IN"
	SubmissionStateReturned  SubmissionState = "RETURNED"
	SubmissionStateReclaimed SubmissionState = "RECLAIMED_BY_STUDENT"
	SubmissionStateUnknown   SubmissionState = "UNKNOWN"
)

func SubmissionStateFromProvider(s string) SubmissionState {
	switch st := SubmissionState(s); st {
	case SubmissionStateNew, SubmissionStateCreated, SubmissionStateTurnedIn, SubmissionStateReturned, SubmissionStateReclaimed:
		return st
	}
	return SubmissionStateUnknown
}

// EnrollmentRole tags how the roster probe found the user in a course.
type EnrollmentRole string

const (
	RoleStudent EnrollmentRole = "STUDENT"
	RoleTeacher EnrollmentRole = "TEACHER"
	// RoleNone is a probe outcome, never persisted: neither probe matched.
	RoleNone EnrollmentRole = ""
)

type (
	Course struct {
		ID              string      `json:"id"`
		ExternalID      string      `json:"external_id"`
		Name            string      `json:"name"`
		Section         null.String `json:"section"`
		Description     null.String `json:"description"`
		State           CourseState `json:"state"`
		OwnerExternalID null.String `json:"owner_external_id"`
		CreatedAt       time.Time   `json:"created_at"` // UTC
		UpdatedAt       time.Time   `json:"updated_at"` // UTC
	}

	Coursework struct {
		ID              string          `json:"id"`
		CourseID        string          `json:"course_id"`
		ExternalID      string          `json:"external_id"`
		Title           string          `json:"title"`
		Description     null.String     `json:"description"`
		DueDate         null.Time       `json:"due_date"`
		MaxPoints       null.Float64    `json:"max_points"`
		State           CourseworkState `json:"state"`
		TopicExternalID null.String     `json:"topic_external_id"`
		CreatedAt       time.Time       `json:"created_at"`
		UpdatedAt       time.Time       `json:"updated_at"`
	}

	Submission struct {
		ID             string          `json:"id"`
		CourseworkID   string          `json:"coursework_id"`
		ExternalID     string          `json:"external_id"`
		UserExternalID string          `json:"user_external_id"`
		State          SubmissionState `json:"state"`
		Late           bool            `json:"late"`
		// Grade is the assigned grade when present, else the draft grade.
		Grade     null.Float64 `json:"grade"`
		CreatedAt time.Time    `json:"created_at"`
		UpdatedAt time.Time    `json:"updated_at"`
	}

	Enrollment struct {
		ID        string         `json:"id"`
		CourseID  string         `json:"course_id"`
		UserID    string         `json:"user_id"`
		Role      EnrollmentRole `json:"role"`
		CreatedAt time.Time      `json:"created_at"`
		UpdatedAt time.Time      `json:"updated_at"`
	}

	Topic struct {
		ID         string      `json:"id"`
		CourseID   string      `json:"course_id"`
		ExternalID string      `json:"external_id"`
		Name       null.String `json:"name"`
		CreatedAt  time.Time   `json:"created_at"`
		UpdatedAt  time.Time   `json:"updated_at"`
	}
)
