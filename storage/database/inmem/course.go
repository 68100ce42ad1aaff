package inmemdb

import (
	"context"

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[c.Code]; ok {
		return course.Course{}, course.ErrCodeExists
	}
	repo.db.courses[c.Code] = c
	return c, nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		if filter != nil && !matchCourse(c, filter) {
			continue
		}
		courses = append(courses, c)
	}

	ordering = append(ordering, core.DBOrdering{Field: "code", Ascending: true})
	sortBy(len(courses), func(i, j int) { courses[i], courses[j] = courses[j], courses[i] }, ordering,
		func(i, j int, field string) (int, bool) {
			a, b := courses[i], courses[j]
			switch field {
			case "code":
				return compareStrings(a.Code, b.Code), true
			case "name":
				return compareStrings(a.Name, b.Name), true
			case "level":
				return compareStrings(a.Level, b.Level), true
			case "major":
				return compareStrings(a.Major, b.Major), true
			case "lecture_time":
				return compareStrings(a.LectureTime, b.LectureTime), true
			case "created_at":
				return compareTimes(a.CreatedAt, b.CreatedAt), true
			}
			return 0, false
		})
	return courses, nil
}

func matchCourse(c course.Course, filter *course.QueryFilter) bool {
	if filter.Search != "" && !contains(c.Code, filter.Search) && !contains(c.Name, filter.Search) {
		return false
	}
	if filter.Level != "" && c.Level != filter.Level {
		return false
	}
	if filter.Major != "" && compareStrings(c.Major, filter.Major) != 0 {
		return false
	}
	if filter.InstructorID != "" && !c.HasInstructor(filter.InstructorID) {
		return false
	}
	return true
}

func (repo *courseRepository) GetCourse(_ context.Context, code string) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.courses[code]; ok {
		return c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[c.Code]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.courses[c.Code] = c
	return c, nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, code string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.db.deleteCourse(code) {
		return course.ErrNotFound
	}
	return nil
}
