package course

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/user"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("course")
	ErrCodeExists    = errors.New("a course with this code already exists")
	ErrNotInstructor = errors.New("user is not an instructor")
)

type (
	Repository interface {
		// CreateCourse returns ErrCodeExists when the code is taken.
		CreateCourse(ctx context.Context, c Course) (Course, error)
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		GetCourse(ctx context.Context, code string) (Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		// DeleteCourse also removes the course enrollments and quizzes.
		DeleteCourse(ctx context.Context, code string) error
	}

	// UserGetter finds users; satisfied by user.Service.
	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service interface {
		CheckCodeUniqueness(ctx context.Context, code string) error
		Add(ctx context.Context, nc NewCourse) (Course, error)
		Update(ctx context.Context, code string, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, code string) error
		GetByCode(ctx context.Context, code string) (Course, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		QueryByInstructor(ctx context.Context, instructorID string) ([]Course, error)
		AssignInstructor(ctx context.Context, code string, instructorID *string) (Course, error)
	}

	service struct {
		repo  Repository
		users UserGetter
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, users UserGetter) Service {
	return &service{repo: repo, users: users}
}

func cleanCode(code string) string {
	return strings.ToUpper(core.CleanString(code))
}

func (svc *service) CheckCodeUniqueness(ctx context.Context, code string) error {
	_, err := svc.repo.GetCourse(ctx, cleanCode(code))
	switch {
	case err == nil:
		return core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
	case core.IsNotFound(err):
		return nil
	default:
		return pkgerrors.Wrap(err, "finding course by code")
	}
}

// checkInstructor makes sure id belongs to an instructor.
func (svc *service) checkInstructor(ctx context.Context, id string) error {
	usr, err := svc.users.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "instructor_id", Error: err.Error()})
		}
		return pkgerrors.Wrap(err, "finding instructor")
	}
	if !usr.IsInstructor() {
		return core.NewValidationError(ErrNotInstructor, core.FieldError{Field: "instructor_id", Error: ErrNotInstructor.Error()})
	}
	return nil
}

func (svc *service) Add(ctx context.Context, nc NewCourse) (Course, error) {
	if nc.InstructorID != nil {
		if err := svc.checkInstructor(ctx, *nc.InstructorID); err != nil {
			return Course{}, err
		}
	}

	now := time.Now().UTC()
	c, err := svc.repo.CreateCourse(ctx, Course{
		Code:         nc.Code,
		Name:         nc.Name,
		Level:        nc.Level,
		Major:        nc.Major,
		LectureTime:  nc.LectureTime,
		InstructorID: nc.InstructorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err == ErrCodeExists {
		return Course{}, core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
	}
	return c, err
}

func (svc *service) Update(ctx context.Context, code string, uc UpdateCourse) (Course, error) {
	c, err := svc.GetByCode(ctx, code)
	if err != nil {
		return Course{}, err
	}
	c.Name = uc.Name
	c.Level = uc.Level
	c.Major = uc.Major
	c.LectureTime = uc.LectureTime
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *service) Delete(ctx context.Context, code string) error {
	return svc.repo.DeleteCourse(ctx, cleanCode(code))
}

func (svc *service) GetByCode(ctx context.Context, code string) (Course, error) {
	code = cleanCode(code)
	if code == "" {
		return Course{}, ErrNotFound
	}
	return svc.repo.GetCourse(ctx, code)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *service) QueryByInstructor(ctx context.Context, instructorID string) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, &QueryFilter{InstructorID: instructorID}, nil)
}

func (svc *service) AssignInstructor(ctx context.Context, code string, instructorID *string) (Course, error) {
	c, err := svc.GetByCode(ctx, code)
	if err != nil {
		return Course{}, err
	}
	if instructorID != nil {
		if err = svc.checkInstructor(ctx, *instructorID); err != nil {
			return Course{}, err
		}
	}
	c.InstructorID = instructorID
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}
