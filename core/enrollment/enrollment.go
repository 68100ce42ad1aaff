package enrollment

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/user"
)

var (
	// errors
	ErrNotEnrolled      = core.NewNotFoundError("enrollment")
	ErrAlreadyEnrolled  = errors.New("student is already enrolled in this course")
	ErrStudentsOnly     = errors.New("only students can enroll in courses")
	errCourseNotFound   = "course not found"
	errStudentNotFound  = "student not found"
	courseCodeFieldName = "course_code"
)

type Enrollment struct {
	StudentID  string    `json:"student_id"`
	CourseCode string    `json:"course_code"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC
}

// NewEnrollment is the payload of a student enrolling in a Course.
type NewEnrollment struct {
	StudentID  string `json:"student_id"`
	CourseCode string `json:"course_code" validate:"required"`
}

type (
	Repository interface {
		// Enroll returns ErrAlreadyEnrolled when the student is already enrolled.
		Enroll(ctx context.Context, e Enrollment) (Enrollment, error)
		// Drop returns ErrNotEnrolled when there is no such enrollment.
		Drop(ctx context.Context, studentID, courseCode string) error
		IsEnrolled(ctx context.Context, studentID, courseCode string) (bool, error)
		CoursesByStudent(ctx context.Context, studentID string) ([]course.Course, error)
		StudentsByCourse(ctx context.Context, courseCode string) ([]user.User, error)
	}

	Service interface {
		Enroll(ctx context.Context, studentID, courseCode string) (Enrollment, error)
		Drop(ctx context.Context, studentID, courseCode string) error
		IsEnrolled(ctx context.Context, studentID, courseCode string) (bool, error)
		CoursesByStudent(ctx context.Context, studentID string) ([]course.Course, error)
		StudentsByCourse(ctx context.Context, courseCode string) ([]user.User, error)
	}

	service struct {
		repo    Repository
		users   course.UserGetter
		courses course.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, users course.UserGetter, courses course.Service) Service {
	return &service{repo: repo, users: users, courses: courses}
}

func (svc *service) Enroll(ctx context.Context, studentID, courseCode string) (Enrollment, error) {
	usr, err := svc.users.GetByID(ctx, studentID)
	if err != nil {
		if core.IsNotFound(err) {
			return Enrollment{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: errStudentNotFound})
		}
		return Enrollment{}, pkgerrors.Wrap(err, "finding student")
	}
	if !usr.IsStudent() {
		return Enrollment{}, core.NewValidationError(ErrStudentsOnly, core.FieldError{Field: "student_id", Error: ErrStudentsOnly.Error()})
	}

	c, err := svc.courses.GetByCode(ctx, courseCode)
	if err != nil {
		if core.IsNotFound(err) {
			return Enrollment{}, core.NewValidationError(err, core.FieldError{Field: courseCodeFieldName, Error: errCourseNotFound})
		}
		return Enrollment{}, pkgerrors.Wrap(err, "finding course")
	}

	e, err := svc.repo.Enroll(ctx, Enrollment{StudentID: usr.ID, CourseCode: c.Code, EnrolledAt: time.Now().UTC()})
	if err == ErrAlreadyEnrolled {
		return Enrollment{}, core.NewValidationError(err, core.FieldError{Field: courseCodeFieldName, Error: err.Error()})
	}
	return e, err
}

func (svc *service) Drop(ctx context.Context, studentID, courseCode string) error {
	c, err := svc.courses.GetByCode(ctx, courseCode)
	if err != nil {
		if core.IsNotFound(err) {
			return ErrNotEnrolled
		}
		return pkgerrors.Wrap(err, "finding course")
	}
	return svc.repo.Drop(ctx, studentID, c.Code)
}

func (svc *service) IsEnrolled(ctx context.Context, studentID, courseCode string) (bool, error) {
	return svc.repo.IsEnrolled(ctx, studentID, courseCode)
}

func (svc *service) CoursesByStudent(ctx context.Context, studentID string) ([]course.Course, error) {
	return svc.repo.CoursesByStudent(ctx, studentID)
}

func (svc *service) StudentsByCourse(ctx context.Context, courseCode string) ([]user.User, error) {
	c, err := svc.courses.GetByCode(ctx, courseCode)
	if err != nil {
		return nil, err
	}
	return svc.repo.StudentsByCourse(ctx, c.Code)
}
