package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/enrollment"
	"github.com/trezcool/ums/core/user"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) Enroll(_ context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	key := enrollmentKey{studentID: e.StudentID, courseCode: e.CourseCode}
	if _, ok := repo.db.enrollments[key]; ok {
		return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
	}
	repo.db.enrollments[key] = e
	return e, nil
}

func (repo *enrollmentRepository) Drop(_ context.Context, studentID, courseCode string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	key := enrollmentKey{studentID: studentID, courseCode: courseCode}
	if _, ok := repo.db.enrollments[key]; !ok {
		return enrollment.ErrNotEnrolled
	}
	delete(repo.db.enrollments, key)
	return nil
}

func (repo *enrollmentRepository) IsEnrolled(_ context.Context, studentID, courseCode string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	_, ok := repo.db.enrollments[enrollmentKey{studentID: studentID, courseCode: courseCode}]
	return ok, nil
}

func (repo *enrollmentRepository) CoursesByStudent(_ context.Context, studentID string) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0)
	for k := range repo.db.enrollments {
		if k.studentID != studentID {
			continue
		}
		if c, ok := repo.db.courses[k.courseCode]; ok {
			courses = append(courses, c)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
	return courses, nil
}

func (repo *enrollmentRepository) StudentsByCourse(_ context.Context, courseCode string) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0)
	for k := range repo.db.enrollments {
		if k.courseCode != courseCode {
			continue
		}
		if usr, ok := repo.db.users[k.studentID]; ok {
			users = append(users, usr)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name == users[j].Name {
			return users[i].ID < users[j].ID
		}
		return users[i].Name < users[j].Name
	})
	return users, nil
}
