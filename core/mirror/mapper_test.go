package mirror

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/darasahq/darasa/core/classroom"
)

func float64Ptr(f float64) *float64 { return &f }

func TestCourseFromProvider(t *testing.T) {
	tests := []struct {
		name      string
		in        classroom.Course
		wantState CourseState
		wantErr   string
	}{
		{
			name:      "full course",
			in:        classroom.Course{ID: "c1", Name: "Algebra", Section: "A", CourseState: "ACTIVE", OwnerID: "t9"},
			wantState: CourseStateActive,
		},
		{
			name:      "unknown state maps to sentinel",
			in:        classroom.Course{ID: "c1", Name: "Algebra", CourseState: "SOMETHING_NEW"},
			wantState: CourseStateUnknown,
		},
		{
			name:    "missing id",
			in:      classroom.Course{Name: "Algebra"},
			wantErr: "missing id",
		},
		{
			name:    "missing name",
			in:      classroom.Course{ID: "c1"},
			wantErr: "missing name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CourseFromProvider(tt.in)
			if tt.wantErr != "" {
				itemErr, ok := err.(*ItemError)
				if assert.True(t, ok, "expected *ItemError, got %T", err) {
					assert.Equal(t, tt.wantErr, itemErr.Reason)
				}
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.in.ID, got.ExternalID)
			assert.Equal(t, tt.wantState, got.State)
		})
	}
}

func TestCourseworkFromProvider_dueDate(t *testing.T) {
	base := classroom.CourseWork{ID: "cw1", Title: "Homework 1"}

	tests := []struct {
		name     string
		due      *classroom.Date
		wantNull bool
		want     time.Time
	}{
		{name: "no due date", due: nil, wantNull: true},
		{name: "missing year", due: &classroom.Date{Month: 9, Day: 30}, wantNull: true},
		{name: "missing month", due: &classroom.Date{Year: 2025, Day: 30}, wantNull: true},
		{name: "missing day", due: &classroom.Date{Year: 2025, Month: 9}, wantNull: true},
		{
			name: "all parts combine into one date",
			due:  &classroom.Date{Year: 2025, Month: 9, Day: 30},
			want: time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			in.DueDate = tt.due
			got, err := CourseworkFromProvider(in, "course-uuid")
			assert.NoError(t, err)
			if tt.wantNull {
				assert.False(t, got.DueDate.Valid)
				return
			}
			assert.True(t, got.DueDate.Valid)
			assert.Equal(t, tt.want, got.DueDate.Time)
		})
	}
}

func TestCourseworkFromProvider_requiredFields(t *testing.T) {
	_, err := CourseworkFromProvider(classroom.CourseWork{Title: "Homework 1"}, "course-uuid")
	assert.Error(t, err)

	_, err = CourseworkFromProvider(classroom.CourseWork{ID: "cw1"}, "course-uuid")
	itemErr, ok := err.(*ItemError)
	if assert.True(t, ok) {
		assert.Equal(t, "missing title", itemErr.Reason)
		assert.Equal(t, "cw1", itemErr.ExternalID)
	}
}

func TestSubmissionFromProvider_gradeMerge(t *testing.T) {
	tests := []struct {
		name     string
		in       classroom.StudentSubmission
		wantNull bool
		want     float64
	}{
		{
			name: "assigned grade wins",
			in:   classroom.StudentSubmission{ID: "s1", DraftGrade: float64Ptr(40), AssignedGrade: float64Ptr(85)},
			want: 85,
		},
		{
			name: "draft grade as fallback",
			in:   classroom.StudentSubmission{ID: "s1", DraftGrade: float64Ptr(40)},
			want: 40,
		},
		{
			name:     "no grade",
			in:       classroom.StudentSubmission{ID: "s1"},
			wantNull: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SubmissionFromProvider(tt.in, "cw-uuid")
			assert.NoError(t, err)
			if tt.wantNull {
				assert.False(t, got.Grade.Valid)
				return
			}
			assert.True(t, got.Grade.Valid)
			assert.Equal(t, tt.want, got.Grade.Float64)
		})
	}
}

func TestSubmissionStateFromProvider(t *testing.T) {
	assert.Equal(t, SubmissionStateTurnedIn, SubmissionStateFromProvider("TURNED_IN"))
	assert.Equal(t, SubmissionStateReclaimed, SubmissionStateFromProvider("RECLAIMED_BY_STUDENT"))
	assert.Equal(t, SubmissionStateUnknown, SubmissionStateFromProvider("HANDED_TO_DOG"))
	assert.Equal(t, SubmissionStateUnknown, SubmissionStateFromProvider(""))
}
