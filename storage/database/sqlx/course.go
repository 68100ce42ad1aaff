package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/course"
)

const courseColumns = `code, name, level, major, lecture_time, instructor_id, created_at, updated_at`

var courseOrderColumns = map[string]string{
	"code":         "code",
	"name":         "name",
	"level":        "level",
	"major":        "major",
	"lecture_time": "lecture_time",
	"created_at":   "created_at",
}

type courseRow struct {
	Code         string      `db:"code"`
	Name         string      `db:"name"`
	Level        string      `db:"level"`
	Major        string      `db:"major"`
	LectureTime  string      `db:"lecture_time"`
	InstructorID null.String `db:"instructor_id"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func toCourseRow(c course.Course) courseRow {
	return courseRow{
		Code:         c.Code,
		Name:         c.Name,
		Level:        c.Level,
		Major:        c.Major,
		LectureTime:  c.LectureTime,
		InstructorID: null.StringFromPtr(c.InstructorID),
		CreatedAt:    c.CreatedAt.UTC(),
		UpdatedAt:    c.UpdatedAt.UTC(),
	}
}

func (r courseRow) toCourse() course.Course {
	return course.Course{
		Code:         r.Code,
		Name:         r.Name,
		Level:        r.Level,
		Major:        r.Major,
		LectureTime:  r.LectureTime,
		InstructorID: r.InstructorID.Ptr(),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func toCourses(rows []courseRow) []course.Course {
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.toCourse())
	}
	return courses
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := `INSERT INTO course (` + courseColumns + `)
		VALUES (:code, :name, :level, :major, :lecture_time, :instructor_id, :created_at, :updated_at)`

	row := toCourseRow(c)
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, "(code ILIKE ? OR name ILIKE ?)")
			args = append(args, val, val)
		}
		if filter.Level != "" {
			conds = append(conds, "level = ?")
			args = append(args, filter.Level)
		}
		if filter.Major != "" {
			conds = append(conds, "major ILIKE ?")
			args = append(args, filter.Major)
		}
		if filter.InstructorID != "" {
			if !validID(filter.InstructorID) {
				return []course.Course{}, nil
			}
			conds = append(conds, "instructor_id = ?")
			args = append(args, filter.InstructorID)
		}
	}

	q := `SELECT ` + courseColumns + ` FROM course` + where(conds) +
		` ORDER BY ` + core.OrderBy(ordering, courseOrderColumns, "code ASC")

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return toCourses(rows), nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, code string) (course.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+courseColumns+` FROM course WHERE code = $1`, code); err != nil {
		return course.Course{}, trapNoRows(err, course.ErrNotFound, "finding course")
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := `UPDATE course SET name = :name, level = :level, major = :major, lecture_time = :lecture_time,
		instructor_id = :instructor_id, updated_at = :updated_at
		WHERE code = :code`

	row := toCourseRow(c)
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if err = checkAffected(res, course.ErrNotFound); err != nil {
		return course.Course{}, err
	}
	return repo.GetCourse(ctx, c.Code)
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, code string) error {
	// enrollments & quizzes cascade
	res, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE code = $1`, code)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return checkAffected(res, course.ErrNotFound)
}
