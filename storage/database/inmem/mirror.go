package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/mirror"
)

type mirrorRepository struct {
	db *DB
}

var _ mirror.Repository = (*mirrorRepository)(nil)

func NewMirrorRepository(db *DB) *mirrorRepository {
	return &mirrorRepository{db: db}
}

func (repo *mirrorRepository) UpsertCourse(ctx context.Context, c mirror.Course) (mirror.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := time.Now().UTC()
	for _, existing := range repo.db.courses {
		if existing.ExternalID == c.ExternalID {
			existing.Name = c.Name
			existing.Section = c.Section
			existing.Description = c.Description
			existing.State = c.State
			existing.OwnerExternalID = c.OwnerExternalID
			existing.UpdatedAt = now
			return *existing, nil
		}
	}
	c.ID = uuid.New().String()
	c.CreatedAt, c.UpdatedAt = now, now
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *mirrorRepository) UpsertCoursework(ctx context.Context, cw mirror.Coursework) (mirror.Coursework, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := time.Now().UTC()
	for _, existing := range repo.db.coursework {
		if existing.ExternalID == cw.ExternalID {
			existing.Title = cw.Title
			existing.Description = cw.Description
			existing.DueDate = cw.DueDate
			existing.MaxPoints = cw.MaxPoints
			existing.State = cw.State
			existing.TopicExternalID = cw.TopicExternalID
			existing.UpdatedAt = now
			return *existing, nil
		}
	}
	cw.ID = uuid.New().String()
	cw.CreatedAt, cw.UpdatedAt = now, now
	repo.db.coursework[cw.ID] = &cw
	return cw, nil
}

func (repo *mirrorRepository) UpsertSubmission(ctx context.Context, s mirror.Submission) (mirror.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := time.Now().UTC()
	for _, existing := range repo.db.submissions {
		if existing.ExternalID == s.ExternalID {
			existing.State = s.State
			existing.Late = s.Late
			existing.Grade = s.Grade
			existing.UpdatedAt = now
			return *existing, nil
		}
	}
	s.ID = uuid.New().String()
	s.CreatedAt, s.UpdatedAt = now, now
	repo.db.submissions[s.ID] = &s
	return s, nil
}

func (repo *mirrorRepository) UpsertTopic(ctx context.Context, t mirror.Topic) (mirror.Topic, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := time.Now().UTC()
	for _, existing := range repo.db.topics {
		if existing.ExternalID == t.ExternalID {
			existing.Name = t.Name
			existing.UpdatedAt = now
			return *existing, nil
		}
	}
	t.ID = uuid.New().String()
	t.CreatedAt, t.UpdatedAt = now, now
	repo.db.topics[t.ID] = &t
	return t, nil
}

func (repo *mirrorRepository) UpsertEnrollment(ctx context.Context, e mirror.Enrollment) (mirror.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := time.Now().UTC()
	for _, existing := range repo.db.enrollments {
		if existing.CourseID == e.CourseID && existing.UserID == e.UserID {
			existing.Role = e.Role
			existing.UpdatedAt = now
			return *existing, nil
		}
	}
	e.ID = uuid.New().String()
	e.CreatedAt, e.UpdatedAt = now, now
	repo.db.enrollments[e.ID] = &e
	return e, nil
}

func (repo *mirrorRepository) GetCourseworkByExternalID(ctx context.Context, externalID string) (mirror.Coursework, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, cw := range repo.db.coursework {
		if cw.ExternalID == externalID {
			return *cw, nil
		}
	}
	return mirror.Coursework{}, mirror.ErrNotFound
}

func (repo *mirrorRepository) GetEnrolledCourses(ctx context.Context, userID string) ([]mirror.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]mirror.Course, 0)
	for _, e := range repo.db.enrollments {
		if e.UserID != userID {
			continue
		}
		if c, ok := repo.db.courses[e.CourseID]; ok {
			courses = append(courses, *c)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses, nil
}

func (repo *mirrorRepository) GetCourseworkForCourse(ctx context.Context, courseID string) ([]mirror.Coursework, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	cwList := make([]mirror.Coursework, 0)
	for _, cw := range repo.db.coursework {
		if cw.CourseID == courseID {
			cwList = append(cwList, *cw)
		}
	}
	sort.Slice(cwList, func(i, j int) bool { return cwList[i].CreatedAt.Before(cwList[j].CreatedAt) })
	return cwList, nil
}

func (repo *mirrorRepository) GetEnrollmentsForUser(ctx context.Context, userID string) ([]mirror.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	enrollments := make([]mirror.Enrollment, 0)
	for _, e := range repo.db.enrollments {
		if e.UserID == userID {
			enrollments = append(enrollments, *e)
		}
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].CreatedAt.Before(enrollments[j].CreatedAt) })
	return enrollments, nil
}
