package quiz

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
	ErrNotFound         = core.NewNotFoundError("quiz")
	ErrQuestionNotFound = core.NewNotFoundError("question")
	ErrAlreadySubmitted = errors.New("this quiz has already been submitted")
	ErrNotEnrolled      = errors.New("student is not enrolled in the course of this quiz")
	ErrNotCourseTeacher = core.NewPermissionError("only the instructor of the course can manage its quizzes")
	ErrStudentsOnly     = core.NewPermissionError("only students can submit quizzes")
	errCourseNotFound   = "course not found"
)

type (
	Repository interface {
		// CreateQuiz inserts the quiz and its questions in one transaction.
		CreateQuiz(ctx context.Context, qz Quiz) (Quiz, error)
		// GetQuiz returns the quiz with its questions ordered by position.
		GetQuiz(ctx context.Context, id string) (Quiz, error)
		QueryQuizzes(ctx context.Context, filter *QueryFilter) ([]Quiz, error)
		// UpdateQuiz saves the quiz; when replaceQuestions is set its questions are replaced by qz.Questions
		// in the same transaction.
		UpdateQuiz(ctx context.Context, qz Quiz, replaceQuestions bool) (Quiz, error)
		// DeleteQuiz also removes the quiz questions and results.
		DeleteQuiz(ctx context.Context, id string) error

		CreateQuestion(ctx context.Context, q Question) (Question, error)
		GetQuestion(ctx context.Context, id string) (Question, error)
		UpdateQuestion(ctx context.Context, q Question) (Question, error)
		DeleteQuestion(ctx context.Context, id string) error
		QuestionsByQuiz(ctx context.Context, quizID string) ([]Question, error)

		// CreateResult returns ErrAlreadySubmitted when the student already has a result for the quiz.
		CreateResult(ctx context.Context, r Result) (Result, error)
		QueryResults(ctx context.Context, filter ResultFilter) ([]Result, error)
	}

	// EnrollmentChecker tells whether a student is enrolled in a course; satisfied by enrollment.Service.
	EnrollmentChecker interface {
		IsEnrolled(ctx context.Context, studentID, courseCode string) (bool, error)
	}

	Service interface {
		Create(ctx context.Context, nq NewQuiz, actor user.User) (Quiz, error)
		Update(ctx context.Context, id string, uq UpdateQuiz, actor user.User) (Quiz, error)
		Delete(ctx context.Context, id string, actor user.User) error
		GetByID(ctx context.Context, id string) (Quiz, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Quiz, error)
		QueryByCourse(ctx context.Context, courseCode string) ([]Quiz, error)
		QueryByInstructor(ctx context.Context, instructorID string) ([]Quiz, error)

		AddQuestion(ctx context.Context, quizID string, nq NewQuestion, actor user.User) (Question, error)
		UpdateQuestion(ctx context.Context, id string, nq NewQuestion, actor user.User) (Question, error)
		DeleteQuestion(ctx context.Context, id string, actor user.User) error
		QuestionsByQuiz(ctx context.Context, quizID string) ([]Question, error)

		SaveResult(ctx context.Context, r Result) (Result, error)
		Submit(ctx context.Context, studentID, quizID string, answers []int) (Result, error)
		ResultsByStudent(ctx context.Context, studentID string) ([]Result, error)
		ResultsByQuiz(ctx context.Context, quizID string) ([]Result, error)
	}

	service struct {
		repo        Repository
		courses     course.Service
		users       course.UserGetter
		enrollments EnrollmentChecker
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, courses course.Service, users course.UserGetter, enrollments EnrollmentChecker) Service {
	return &service{repo: repo, courses: courses, users: users, enrollments: enrollments}
}

// Grade counts the answers matching the correct index of their question.
// Missing and out-of-range answers are wrong.
func Grade(questions []Question, answers []int) (score, total int) {
	for i, q := range questions {
		if i < len(answers) && answers[i] == q.CorrectIndex {
			score++
		}
	}
	return score, len(questions)
}

// AverageScore returns the mean percentage of results, nil when there are none.
func AverageScore(results []Result) *float64 {
	if len(results) == 0 {
		return nil
	}
	var sum float64
	for _, r := range results {
		sum += r.Percentage()
	}
	avg := sum / float64(len(results))
	return &avg
}

// courseFor returns the course with code that actor may manage quizzes of:
// admins manage every course, instructors the courses they teach.
func (svc *service) courseFor(ctx context.Context, code string, actor user.User) (course.Course, error) {
	c, err := svc.courses.GetByCode(ctx, code)
	if err != nil {
		if core.IsNotFound(err) {
			return course.Course{}, core.NewValidationError(err, core.FieldError{Field: "course_code", Error: errCourseNotFound})
		}
		return course.Course{}, pkgerrors.Wrap(err, "finding course")
	}
	if actor.IsAdmin() || (actor.IsInstructor() && c.HasInstructor(actor.ID)) {
		return c, nil
	}
	return course.Course{}, ErrNotCourseTeacher
}

func (svc *service) Create(ctx context.Context, nq NewQuiz, actor user.User) (Quiz, error) {
	c, err := svc.courseFor(ctx, nq.CourseCode, actor)
	if err != nil {
		return Quiz{}, err
	}

	now := time.Now().UTC()
	qz := Quiz{
		Title:        nq.Title,
		CourseCode:   c.Code,
		InstructorID: c.InstructorID,
		Questions:    make([]Question, 0, len(nq.Questions)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if actor.IsInstructor() {
		qz.InstructorID = &actor.ID
	}
	for i, q := range nq.Questions {
		qz.Questions = append(qz.Questions, q.toQuestion("", i))
	}
	return svc.repo.CreateQuiz(ctx, qz)
}

func (svc *service) Update(ctx context.Context, id string, uq UpdateQuiz, actor user.User) (Quiz, error) {
	qz, err := svc.GetByID(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	if _, err = svc.courseFor(ctx, qz.CourseCode, actor); err != nil {
		return Quiz{}, err
	}
	if uq.CourseCode != qz.CourseCode {
		c, err := svc.courseFor(ctx, uq.CourseCode, actor)
		if err != nil {
			return Quiz{}, err
		}
		qz.CourseCode = c.Code
	}

	qz.Title = uq.Title
	qz.UpdatedAt = time.Now().UTC()
	replace := uq.Questions != nil
	if replace {
		qz.Questions = make([]Question, 0, len(uq.Questions))
		for i, q := range uq.Questions {
			qz.Questions = append(qz.Questions, q.toQuestion(qz.ID, i))
		}
	}
	return svc.repo.UpdateQuiz(ctx, qz, replace)
}

func (svc *service) Delete(ctx context.Context, id string, actor user.User) error {
	qz, err := svc.repo.GetQuiz(ctx, id)
	if err != nil {
		return err
	}
	if _, err = svc.courseFor(ctx, qz.CourseCode, actor); err != nil {
		return err
	}
	return svc.repo.DeleteQuiz(ctx, qz.ID)
}

func (svc *service) GetByID(ctx context.Context, id string) (Quiz, error) {
	return svc.repo.GetQuiz(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Quiz, error) {
	return svc.repo.QueryQuizzes(ctx, filter)
}

func (svc *service) QueryByCourse(ctx context.Context, courseCode string) ([]Quiz, error) {
	filter := &QueryFilter{CourseCode: courseCode}
	filter.Clean()
	return svc.repo.QueryQuizzes(ctx, filter)
}

func (svc *service) QueryByInstructor(ctx context.Context, instructorID string) ([]Quiz, error) {
	return svc.repo.QueryQuizzes(ctx, &QueryFilter{InstructorID: instructorID})
}

func (svc *service) AddQuestion(ctx context.Context, quizID string, nq NewQuestion, actor user.User) (Question, error) {
	qz, err := svc.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return Question{}, err
	}
	if _, err = svc.courseFor(ctx, qz.CourseCode, actor); err != nil {
		return Question{}, err
	}

	position := 0
	for _, q := range qz.Questions {
		if q.Position >= position {
			position = q.Position + 1
		}
	}
	return svc.repo.CreateQuestion(ctx, nq.toQuestion(qz.ID, position))
}

// questionFor returns the question with id, making sure actor may manage its quiz.
func (svc *service) questionFor(ctx context.Context, id string, actor user.User) (Question, error) {
	q, err := svc.repo.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	qz, err := svc.repo.GetQuiz(ctx, q.QuizID)
	if err != nil {
		return Question{}, pkgerrors.Wrap(err, "finding quiz of question")
	}
	if _, err = svc.courseFor(ctx, qz.CourseCode, actor); err != nil {
		return Question{}, err
	}
	return q, nil
}

func (svc *service) UpdateQuestion(ctx context.Context, id string, nq NewQuestion, actor user.User) (Question, error) {
	q, err := svc.questionFor(ctx, id, actor)
	if err != nil {
		return Question{}, err
	}
	updated := nq.toQuestion(q.QuizID, q.Position)
	updated.ID = q.ID
	return svc.repo.UpdateQuestion(ctx, updated)
}

func (svc *service) DeleteQuestion(ctx context.Context, id string, actor user.User) error {
	q, err := svc.questionFor(ctx, id, actor)
	if err != nil {
		return err
	}
	return svc.repo.DeleteQuestion(ctx, q.ID)
}

func (svc *service) QuestionsByQuiz(ctx context.Context, quizID string) ([]Question, error) {
	return svc.repo.QuestionsByQuiz(ctx, quizID)
}

func (svc *service) SaveResult(ctx context.Context, r Result) (Result, error) {
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now().UTC()
	}
	return svc.repo.CreateResult(ctx, r)
}

// Submit grades the answers of a student enrolled in the course of the quiz and saves the Result.
// A quiz can only be submitted once.
func (svc *service) Submit(ctx context.Context, studentID, quizID string, answers []int) (Result, error) {
	usr, err := svc.users.GetByID(ctx, studentID)
	if err != nil {
		return Result{}, pkgerrors.Wrap(err, "finding student")
	}
	if !usr.IsStudent() {
		return Result{}, ErrStudentsOnly
	}

	qz, err := svc.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return Result{}, err
	}
	enrolled, err := svc.enrollments.IsEnrolled(ctx, usr.ID, qz.CourseCode)
	if err != nil {
		return Result{}, pkgerrors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return Result{}, core.NewValidationError(ErrNotEnrolled)
	}

	score, total := Grade(qz.Questions, answers)
	r, err := svc.SaveResult(ctx, Result{StudentID: usr.ID, QuizID: qz.ID, Score: score, Total: total})
	if err == ErrAlreadySubmitted {
		return Result{}, core.NewValidationError(err)
	}
	return r, err
}

func (svc *service) ResultsByStudent(ctx context.Context, studentID string) ([]Result, error) {
	return svc.repo.QueryResults(ctx, ResultFilter{StudentID: studentID})
}

func (svc *service) ResultsByQuiz(ctx context.Context, quizID string) ([]Result, error) {
	return svc.repo.QueryResults(ctx, ResultFilter{QuizID: quizID})
}
