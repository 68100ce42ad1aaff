package report

import (
	"fmt"
	"time"

	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/user"
)

const (
	NotAvailable   = "N/A"
	NoQuizzesYet   = "No quizzes yet"
	fileTimeLayout = "20060102_150405"
)

// QuizLine is one quiz result of a student along with the quiz it belongs to.
type QuizLine struct {
	QuizID      string
	Title       string
	CourseCode  string
	Score       int
	Total       int
	SubmittedAt time.Time
}

func (ql QuizLine) ScoreString() string {
	return fmt.Sprintf("%d/%d", ql.Score, ql.Total)
}

// CourseGrade is the performance of a student in one of their courses: the points earned
// over all the quizzes of the course they took.
type CourseGrade struct {
	Code  string
	Name  string
	Score int
	Total int
	Taken int
}

func (cg CourseGrade) GradeString() string {
	if cg.Total == 0 {
		return NotAvailable
	}
	return percent(cg.Score, cg.Total)
}

func (cg CourseGrade) PointsString() string {
	if cg.Total == 0 {
		return NoQuizzesYet
	}
	return fmt.Sprintf("%d/%d", cg.Score, cg.Total)
}

type Summary struct {
	QuizzesTaken int
	Points       int
	Total        int
}

func (s Summary) PointsString() string {
	return fmt.Sprintf("%d/%d", s.Points, s.Total)
}

// Average returns the overall score; ok is false when no question was answered.
func (s Summary) Average() (avg string, ok bool) {
	if s.Total == 0 {
		return NotAvailable, false
	}
	return percent(s.Points, s.Total), true
}

// StudentReport gathers everything printed on the academic report of a student.
type StudentReport struct {
	Student     user.User
	GeneratedAt time.Time
	Courses     []course.Course
	Grades      []CourseGrade
	Quizzes     []QuizLine
	Summary     Summary
}

// GradeString is the overall grade of the student.
func (r StudentReport) GradeString() string {
	return fmt.Sprintf("%.2f%%", r.Student.Grade)
}

// Filename is the name of the PDF file of the report.
func (r StudentReport) Filename() string {
	return fmt.Sprintf("Student_Report_%s_%s.pdf", r.Student.ID, r.GeneratedAt.Format(fileTimeLayout))
}

// newStudentReport aggregates the quiz lines of a student per course.
func newStudentReport(student user.User, courses []course.Course, lines []QuizLine, now time.Time) StudentReport {
	rep := StudentReport{
		Student:     student,
		GeneratedAt: now,
		Courses:     courses,
		Grades:      make([]CourseGrade, 0, len(courses)),
		Quizzes:     lines,
	}

	type points struct{ score, total, taken int }
	perCourse := make(map[string]points, len(courses))
	for _, ql := range lines {
		p := perCourse[ql.CourseCode]
		p.score += ql.Score
		p.total += ql.Total
		p.taken++
		perCourse[ql.CourseCode] = p

		rep.Summary.Points += ql.Score
		rep.Summary.Total += ql.Total
	}
	rep.Summary.QuizzesTaken = len(lines)

	for _, c := range courses {
		p := perCourse[c.Code]
		rep.Grades = append(rep.Grades, CourseGrade{Code: c.Code, Name: c.Name, Score: p.score, Total: p.total, Taken: p.taken})
	}
	return rep
}

func percent(score, total int) string {
	return fmt.Sprintf("%.2f%%", float64(score)*100/float64(total))
}
