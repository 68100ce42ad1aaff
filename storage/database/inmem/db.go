// Package inmemdb implements the domain repositories in memory. It mirrors the constraints of the SQL schema
// (unique keys, cascading deletes) and is meant for tests and demos.
package inmemdb

import (
	"sort"
	"strings"
	"sync"

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/enrollment"
	"github.com/trezcool/ums/core/quiz"
	"github.com/trezcool/ums/core/user"
)

type enrollmentKey struct {
	studentID  string
	courseCode string
}

type DB struct {
	mu          sync.RWMutex
	users       map[string]user.User
	courses     map[string]course.Course
	enrollments map[enrollmentKey]enrollment.Enrollment
	quizzes     map[string]quiz.Quiz // without questions
	questions   map[string]quiz.Question
	results     map[string]quiz.Result
}

func Open() *DB {
	db := new(DB)
	db.reset()
	return db
}

func (db *DB) reset() {
	db.users = make(map[string]user.User)
	db.courses = make(map[string]course.Course)
	db.enrollments = make(map[enrollmentKey]enrollment.Enrollment)
	db.quizzes = make(map[string]quiz.Quiz)
	db.questions = make(map[string]quiz.Question)
	db.results = make(map[string]quiz.Result)
}

// Flush deletes all the data.
func (db *DB) Flush() {
	db.mu.Lock()
	db.reset()
	db.mu.Unlock()
}

// deleteUser removes a user along with their enrollments and results; courses and quizzes lose their instructor.
func (db *DB) deleteUser(id string) bool {
	if _, ok := db.users[id]; !ok {
		return false
	}
	delete(db.users, id)
	for k := range db.enrollments {
		if k.studentID == id {
			delete(db.enrollments, k)
		}
	}
	for k, r := range db.results {
		if r.StudentID == id {
			delete(db.results, k)
		}
	}
	for k, c := range db.courses {
		if c.HasInstructor(id) {
			c.InstructorID = nil
			db.courses[k] = c
		}
	}
	for k, qz := range db.quizzes {
		if qz.InstructorID != nil && *qz.InstructorID == id {
			qz.InstructorID = nil
			db.quizzes[k] = qz
		}
	}
	return true
}

// deleteCourse removes a course along with its enrollments and quizzes.
func (db *DB) deleteCourse(code string) bool {
	if _, ok := db.courses[code]; !ok {
		return false
	}
	delete(db.courses, code)
	for k := range db.enrollments {
		if k.courseCode == code {
			delete(db.enrollments, k)
		}
	}
	for id, qz := range db.quizzes {
		if qz.CourseCode == code {
			db.deleteQuiz(id)
		}
	}
	return true
}

// deleteQuiz removes a quiz along with its questions and results.
func (db *DB) deleteQuiz(id string) bool {
	if _, ok := db.quizzes[id]; !ok {
		return false
	}
	delete(db.quizzes, id)
	for k, q := range db.questions {
		if q.QuizID == id {
			delete(db.questions, k)
		}
	}
	for k, r := range db.results {
		if r.QuizID == id {
			delete(db.results, k)
		}
	}
	return true
}

func (db *DB) quizQuestions(quizID string) []quiz.Question {
	questions := make([]quiz.Question, 0)
	for _, q := range db.questions {
		if q.QuizID == quizID {
			q.Choices = append([]string(nil), q.Choices...)
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		if questions[i].Position == questions[j].Position {
			return questions[i].ID < questions[j].ID
		}
		return questions[i].Position < questions[j].Position
	})
	return questions
}

// contains does a case-insensitive substring match.
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sortBy stable-sorts n items following ordering; cmp compares items i and j on field and reports whether it knows the field.
func sortBy(n int, swap func(i, j int), ordering []core.DBOrdering, cmp func(i, j int, field string) (int, bool)) {
	sort.Stable(sorter{n: n, swap: swap, less: func(i, j int) bool {
		for _, ord := range ordering {
			c, ok := cmp(i, j, ord.Field)
			if !ok || c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	}})
}

type sorter struct {
	n    int
	swap func(i, j int)
	less func(i, j int) bool
}

func (s sorter) Len() int           { return s.n }
func (s sorter) Swap(i, j int)      { s.swap(i, j) }
func (s sorter) Less(i, j int) bool { return s.less(i, j) }

func compareStrings(a, b string) int { return strings.Compare(strings.ToLower(a), strings.ToLower(b)) }

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
