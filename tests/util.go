package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/enrollment"
	"github.com/trezcool/ums/core/quiz"
	"github.com/trezcool/ums/core/user"
	"github.com/trezcool/ums/services/logger"
)

// NewLogger returns a Logger that reports nowhere.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// NewValidator returns a validator with every app validator & translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	switch role {
	case user.RoleStudent:
		usr.Department = user.DefaultDept
		usr.Level = user.DefaultLevel
		usr.Major = user.DefaultMajor
	case user.RoleInstructor:
		usr.Department = user.DeptCS
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, code, name, level string, instructor *user.User) course.Course {
	now := time.Now().UTC()
	c := course.Course{
		Code:        code,
		Name:        name,
		Level:       level,
		Major:       course.DefaultMajor,
		LectureTime: course.DefaultLectureTime,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if instructor != nil {
		c.InstructorID = &instructor.ID
	}
	c, err := repo.CreateCourse(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func Enroll(t *testing.T, repo enrollment.Repository, student user.User, c course.Course) enrollment.Enrollment {
	e, err := repo.Enroll(context.Background(), enrollment.Enrollment{
		StudentID:  student.ID,
		CourseCode: c.Code,
		EnrolledAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return e
}

// CreateQuiz creates a quiz on c whose questions have the given correct indexes.
func CreateQuiz(t *testing.T, repo quiz.Repository, title string, c course.Course, correct ...int) quiz.Quiz {
	now := time.Now().UTC()
	qz := quiz.Quiz{
		Title:        title,
		CourseCode:   c.Code,
		InstructorID: c.InstructorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for i, idx := range correct {
		qz.Questions = append(qz.Questions, quiz.Question{
			Text:         title + " question",
			Choices:      []string{"A", "B", "C", "D"},
			CorrectIndex: idx,
			Position:     i,
		})
	}
	qz, err := repo.CreateQuiz(context.Background(), qz)
	if err != nil {
		t.Fatalf("CreateQuiz() failed: %v", err)
	}
	return qz
}

func CreateResult(t *testing.T, repo quiz.Repository, student user.User, qz quiz.Quiz, score int, submittedAt ...time.Time) quiz.Result {
	tstamp := time.Now().UTC()
	if len(submittedAt) > 0 {
		tstamp = submittedAt[0].UTC()
	}
	r, err := repo.CreateResult(context.Background(), quiz.Result{
		StudentID:   student.ID,
		QuizID:      qz.ID,
		Score:       score,
		Total:       len(qz.Questions),
		SubmittedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateResult() failed: %v", err)
	}
	return r
}
