package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/enrollment"
	"github.com/trezcool/ums/core/user"
)

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) Enroll(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	e.EnrolledAt = e.EnrolledAt.UTC()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO enrollment (student_id, course_code, enrolled_at) VALUES ($1, $2, $3)`,
		e.StudentID, e.CourseCode, e.EnrolledAt)
	if err != nil {
		if isUniqueViolation(err) {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func (repo *enrollmentRepository) Drop(ctx context.Context, studentID, courseCode string) error {
	if !validID(studentID) {
		return enrollment.ErrNotEnrolled
	}
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM enrollment WHERE student_id = $1 AND course_code = $2`, studentID, courseCode)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return checkAffected(res, enrollment.ErrNotEnrolled)
}

func (repo *enrollmentRepository) IsEnrolled(ctx context.Context, studentID, courseCode string) (bool, error) {
	if !validID(studentID) {
		return false, nil
	}
	var enrolled bool
	err := repo.db.GetContext(ctx, &enrolled,
		`SELECT EXISTS (SELECT 1 FROM enrollment WHERE student_id = $1 AND course_code = $2)`, studentID, courseCode)
	if err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return enrolled, nil
}

func (repo *enrollmentRepository) CoursesByStudent(ctx context.Context, studentID string) ([]course.Course, error) {
	if !validID(studentID) {
		return []course.Course{}, nil
	}
	q := `SELECT c.code, c.name, c.level, c.major, c.lecture_time, c.instructor_id, c.created_at, c.updated_at
		FROM course c
		JOIN enrollment e ON e.course_code = c.code
		WHERE e.student_id = $1
		ORDER BY c.code`

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying student courses")
	}
	return toCourses(rows), nil
}

func (repo *enrollmentRepository) StudentsByCourse(ctx context.Context, courseCode string) ([]user.User, error) {
	q := `SELECT u.id, u.name, u.email, u.password_hash, u.role, u.department, u.is_active, u.level, u.major, u.grade,
			u.created_at, u.updated_at, u.last_login
		FROM "user" u
		JOIN enrollment e ON e.student_id = u.id
		WHERE e.course_code = $1
		ORDER BY u.name`

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, courseCode); err != nil {
		return nil, errors.Wrap(err, "querying course students")
	}
	return toUsers(rows), nil
}
