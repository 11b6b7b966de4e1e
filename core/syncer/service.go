package syncer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/classroom"
	"github.com/darasahq/darasa/core/mirror"
	"github.com/darasahq/darasa/core/token"
)

type (
	// ClientFactory builds a provider client acting on behalf of one user.
	ClientFactory func(userID string) classroom.Client

	// Service sequences course → roster-probe → coursework → submission
	// synchronization per user. Single logical thread of control per run;
	// no internal parallelism across courses or coursework.
	Service struct {
		newClient ClientFactory
		repo      mirror.Repository
		log       core.Logger
	}
)

func NewService(newClient ClientFactory, repo mirror.Repository, log core.Logger) *Service {
	return &Service{newClient: newClient, repo: repo, log: log}
}

// FullSyncForUser runs a complete mirror refresh for one user: all courses
// (cascading into roster probes and coursework per course), then submissions
// for every coursework item of every course the user is enrolled in.
//
// The returned error is non-nil only when the user must re-authenticate;
// every other failure is captured in the result and the run keeps going.
func (svc *Service) FullSyncForUser(ctx context.Context, userID string) (FullSyncResult, error) {
	client := svc.newClient(userID)

	full := FullSyncResult{
		Coursework:  []SyncResult{},
		Submissions: []SyncResult{},
	}

	var err error
	full.Courses, full.Coursework, err = svc.syncCourses(ctx, client, userID)
	if err != nil {
		return FullSyncResult{}, err
	}

	enrolled, err := svc.repo.GetEnrolledCourses(ctx, userID)
	if err != nil {
		full.Courses.addError(errors.Wrap(err, "listing enrolled courses"))
		full.Courses.Success = false
		return full, nil
	}

	for _, course := range enrolled {
		cwList, err := svc.repo.GetCourseworkForCourse(ctx, course.ID)
		if err != nil {
			svc.log.Error("listing coursework for course "+course.ExternalID, err)
			continue
		}
		for _, cw := range cwList {
			res, err := svc.syncSubmissions(ctx, client, course.ExternalID, cw.ExternalID)
			if err != nil {
				return FullSyncResult{}, err
			}
			full.Submissions = append(full.Submissions, res)
		}
	}
	return full, nil
}

// SyncCoursesForUser pulls the user's ACTIVE and ARCHIVED courses page by
// page. Each course is mapped and upserted, then immediately roster-probed
// and coursework-synced before the next course is touched. A failing course
// is recorded and skipped; its siblings still sync.
func (svc *Service) SyncCoursesForUser(ctx context.Context, userID string) (SyncResult, error) {
	res, _, err := svc.syncCourses(ctx, svc.newClient(userID), userID)
	return res, err
}

func (svc *Service) syncCourses(ctx context.Context, client classroom.Client, userID string) (SyncResult, []SyncResult, error) {
	res := newResult()
	cwResults := []SyncResult{}

	err := classroom.ForEachPage(ctx, func(ctx context.Context, pageToken string) (string, error) {
		courses, next, err := client.ListCourses(ctx, pageToken)
		if err != nil {
			return "", err
		}
		for _, extCourse := range courses {
			course, err := mirror.CourseFromProvider(extCourse)
			if err != nil {
				res.addError(err)
				continue
			}
			course, err = svc.repo.UpsertCourse(ctx, course)
			if err != nil {
				res.addError(errors.Wrapf(err, "upserting course %s", extCourse.ID))
				continue
			}
			res.Synced++

			if _, err = svc.syncRosterProbe(ctx, client, extCourse.ID, course.ID, userID); err != nil {
				if token.IsAuthError(err) {
					return "", err
				}
				res.addError(errors.Wrapf(err, "probing roster of course %s", extCourse.ID))
			}

			cwRes, err := svc.syncCoursework(ctx, client, extCourse.ID, course.ID)
			if err != nil {
				return "", err
			}
			cwResults = append(cwResults, cwRes)
		}
		return next, nil
	})
	if err != nil {
		if token.IsAuthError(err) {
			return SyncResult{}, nil, err
		}
		res.addError(err)
	}
	return res.finish(), cwResults, nil
}

// SyncRosterProbe discovers the user's role in a course. The provider has no
// "my role in this course" call, so it probes "am I a student" then "am I a
// teacher"; both commonly miss and a clean miss is not an error. A hit
// upserts the matching enrollment row.
func (svc *Service) SyncRosterProbe(ctx context.Context, userID, courseExternalID, courseID string) (mirror.EnrollmentRole, error) {
	return svc.syncRosterProbe(ctx, svc.newClient(userID), courseExternalID, courseID, userID)
}

func (svc *Service) syncRosterProbe(ctx context.Context, client classroom.Client, courseExternalID, courseID, userID string) (mirror.EnrollmentRole, error) {
	role := mirror.RoleNone

	if _, err := client.GetStudent(ctx, courseExternalID); err == nil {
		role = mirror.RoleStudent
	} else if err != classroom.ErrNotEnrolled {
		return mirror.RoleNone, err
	}

	if role == mirror.RoleNone {
		if _, err := client.GetTeacher(ctx, courseExternalID); err == nil {
			role = mirror.RoleTeacher
		} else if err != classroom.ErrNotEnrolled {
			return mirror.RoleNone, err
		}
	}

	if role == mirror.RoleNone {
		return mirror.RoleNone, nil
	}
	_, err := svc.repo.UpsertEnrollment(ctx, mirror.Enrollment{
		CourseID: courseID,
		UserID:   userID,
		Role:     role,
	})
	if err != nil {
		return mirror.RoleNone, errors.Wrap(err, "upserting enrollment")
	}
	return role, nil
}

// SyncCoursework pulls every coursework item of one course. Malformed items
// are recorded and skipped; the page loop keeps going.
func (svc *Service) SyncCoursework(ctx context.Context, userID, courseExternalID, courseID string) (SyncResult, error) {
	return svc.syncCoursework(ctx, svc.newClient(userID), courseExternalID, courseID)
}

func (svc *Service) syncCoursework(ctx context.Context, client classroom.Client, courseExternalID, courseID string) (SyncResult, error) {
	res := newResult()

	err := classroom.ForEachPage(ctx, func(ctx context.Context, pageToken string) (string, error) {
		items, next, err := client.ListCourseWork(ctx, courseExternalID, pageToken)
		if err != nil {
			return "", err
		}
		for _, item := range items {
			cw, err := mirror.CourseworkFromProvider(item, courseID)
			if err != nil {
				res.addError(err)
				continue
			}
			if _, err = svc.repo.UpsertCoursework(ctx, cw); err != nil {
				res.addError(errors.Wrapf(err, "upserting coursework %s", item.ID))
				continue
			}
			res.Synced++

			if item.TopicID != "" {
				_, err = svc.repo.UpsertTopic(ctx, mirror.Topic{
					CourseID:   courseID,
					ExternalID: item.TopicID,
					Name:       null.String{}, // provider exposes no topic name here
				})
				if err != nil {
					res.addError(errors.Wrapf(err, "upserting topic %s", item.TopicID))
				}
			}
		}
		return next, nil
	})
	if err != nil {
		if token.IsAuthError(err) {
			return SyncResult{}, err
		}
		res.addError(err)
	}
	return res.finish(), nil
}

// SyncSubmissions pulls the user's submissions for one coursework item. The
// local coursework row must exist already; when it does not (its sync has
// not completed yet), the call is skipped with a logged error, not failed.
func (svc *Service) SyncSubmissions(ctx context.Context, userID, courseExternalID, courseworkExternalID string) (SyncResult, error) {
	return svc.syncSubmissions(ctx, svc.newClient(userID), courseExternalID, courseworkExternalID)
}

func (svc *Service) syncSubmissions(ctx context.Context, client classroom.Client, courseExternalID, courseworkExternalID string) (SyncResult, error) {
	res := newResult()

	cw, err := svc.repo.GetCourseworkByExternalID(ctx, courseworkExternalID)
	if err != nil {
		if errors.Cause(err) == mirror.ErrNotFound {
			svc.log.Error("coursework " + courseworkExternalID + " not mirrored yet; skipping its submissions")
		}
		res.addError(errors.Wrapf(err, "resolving coursework %s", courseworkExternalID))
		return res.finish(), nil
	}

	err = classroom.ForEachPage(ctx, func(ctx context.Context, pageToken string) (string, error) {
		items, next, err := client.ListSubmissions(ctx, courseExternalID, courseworkExternalID, pageToken)
		if err != nil {
			return "", err
		}
		for _, item := range items {
			sub, err := mirror.SubmissionFromProvider(item, cw.ID)
			if err != nil {
				res.addError(err)
				continue
			}
			if _, err = svc.repo.UpsertSubmission(ctx, sub); err != nil {
				res.addError(errors.Wrapf(err, "upserting submission %s", item.ID))
				continue
			}
			res.Synced++
		}
		return next, nil
	})
	if err != nil {
		if token.IsAuthError(err) {
			return SyncResult{}, err
		}
		res.addError(err)
	}
	return res.finish(), nil
}
