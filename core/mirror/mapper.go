package mirror

import (
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/classroom"
)

// ItemError marks a fetched item unusable: a required field is missing.
// Non-terminal; the item is skipped and iteration continues.
type ItemError struct {
	Kind       string // "course", "coursework", "submission"
	ExternalID string
	Reason     string
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Kind, e.ExternalID, e.Reason)
}

// CourseFromProvider maps a provider course into the local shape.
func CourseFromProvider(c classroom.Course) (Course, error) {
	if c.ID == "" {
		return Course{}, &ItemError{Kind: "course", Reason: "missing id"}
	}
	if c.Name == "" {
		return Course{}, &ItemError{Kind: "course", ExternalID: c.ID, Reason: "missing name"}
	}
	return Course{
		ExternalID:      c.ID,
		Name:            c.Name,
		Section:         null.NewString(c.Section, c.Section != ""),
		Description:     null.NewString(c.Description, c.Description != ""),
		State:           CourseStateFromProvider(c.CourseState),
		OwnerExternalID: null.NewString(c.OwnerID, c.OwnerID != ""),
	}, nil
}

// CourseworkFromProvider maps a provider coursework item, combining the
// split due date parts into one date. Any absent part yields a null date.
func CourseworkFromProvider(cw classroom.CourseWork, courseID string) (Coursework, error) {
	if cw.ID == "" {
		return Coursework{}, &ItemError{Kind: "coursework", Reason: "missing id"}
	}
	if cw.Title == "" {
		return Coursework{}, &ItemError{Kind: "coursework", ExternalID: cw.ID, Reason: "missing title"}
	}
	return Coursework{
		CourseID:        courseID,
		ExternalID:      cw.ID,
		Title:           cw.Title,
		Description:     null.NewString(cw.Description, cw.Description != ""),
		DueDate:         dueDateFromParts(cw.DueDate),
		MaxPoints:       null.Float64FromPtr(cw.MaxPoints),
		State:           CourseworkStateFromProvider(cw.State),
		TopicExternalID: null.NewString(cw.TopicID, cw.TopicID != ""),
	}, nil
}

// SubmissionFromProvider maps a provider submission, merging the assigned
// grade over the draft grade.
func SubmissionFromProvider(s classroom.StudentSubmission, courseworkID string) (Submission, error) {
	if s.ID == "" {
		return Submission{}, &ItemError{Kind: "submission", Reason: "missing id"}
	}
	grade := s.AssignedGrade
	if grade == nil {
		grade = s.DraftGrade
	}
	return Submission{
		CourseworkID:   courseworkID,
		ExternalID:     s.ID,
		UserExternalID: s.UserID,
		State:          SubmissionStateFromProvider(s.State),
		Late:           s.Late,
		Grade:          null.Float64FromPtr(grade),
	}, nil
}

func dueDateFromParts(d *classroom.Date) null.Time {
	if d == nil || d.Year == 0 || d.Month == 0 || d.Day == 0 {
		return null.Time{}
	}
	return null.TimeFrom(time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC))
}
