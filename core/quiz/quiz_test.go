package quiz_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/enrollment"
	"github.com/trezcool/ums/core/quiz"
	"github.com/trezcool/ums/core/user"
	emailsvc "github.com/trezcool/ums/services/email"
	inmemdb "github.com/trezcool/ums/storage/database/inmem"
	testutil "github.com/trezcool/ums/tests"
)

func questions(correct ...int) []quiz.Question {
	qs := make([]quiz.Question, 0, len(correct))
	for i, idx := range correct {
		qs = append(qs, quiz.Question{CorrectIndex: idx, Position: i})
	}
	return qs
}

func TestGrade(t *testing.T) {
	tests := []struct {
		name      string
		questions []quiz.Question
		answers   []int
		wantScore int
		wantTotal int
	}{
		{name: "no questions", answers: []int{1}, wantScore: 0, wantTotal: 0},
		{name: "all correct", questions: questions(0, 1, 2, 3), answers: []int{0, 1, 2, 3}, wantScore: 4, wantTotal: 4},
		{name: "some wrong", questions: questions(0, 1, 2, 3), answers: []int{0, 0, 2, 0}, wantScore: 2, wantTotal: 4},
		{name: "missing answers", questions: questions(0, 1, 2), answers: []int{0}, wantScore: 1, wantTotal: 3},
		{name: "out of range answers", questions: questions(0, 1), answers: []int{-1, 7}, wantScore: 0, wantTotal: 2},
		{name: "extra answers ignored", questions: questions(3), answers: []int{3, 3, 3}, wantScore: 1, wantTotal: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, total := quiz.Grade(tt.questions, tt.answers)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}

func TestAverageScore(t *testing.T) {
	assert.Nil(t, quiz.AverageScore(nil))

	avg := quiz.AverageScore([]quiz.Result{{Score: 1, Total: 2}, {Score: 3, Total: 4}, {Score: 0, Total: 0}})
	require.NotNil(t, avg)
	assert.InDelta(t, (50.0+75.0+0)/3, *avg, 1e-9)
}

func TestResult_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(quiz.Result{ID: "r1", Score: 1, Total: 4})
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 25.0, got["percentage"])
	assert.Equal(t, "r1", got["id"])
}

func TestQuiz_ForStudent(t *testing.T) {
	qz := quiz.Quiz{ID: "q", Title: "Quiz", CourseCode: "CS101", Questions: questions(2, 3)}
	data, err := json.Marshal(qz.ForStudent())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "correct_index")
	assert.Len(t, qz.ForStudent().Questions, 2)
}

func TestNewQuiz_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()
	one, four := 1, 4

	tests := []struct {
		name     string
		data     quiz.NewQuiz
		wantTags map[string]string
	}{
		{name: "required", wantTags: map[string]string{"title": "required", "course_code": "required"}},
		{name: "blank title", data: quiz.NewQuiz{Title: "   ", CourseCode: "cs101"}, wantTags: map[string]string{"title": "required"}},
		{
			name: "invalid questions",
			data: quiz.NewQuiz{Title: "Quiz", CourseCode: "cs101", Questions: []quiz.NewQuestion{
				{Text: "Q1", Choices: []string{"A", "B", "C"}, CorrectIndex: &one},
				{Text: "Q2", Choices: []string{"A", "B", "C", "D"}, CorrectIndex: &four},
			}},
			wantTags: map[string]string{"choices": "len", "correct_index": "max"},
		},
		{
			name: "valid",
			data: quiz.NewQuiz{Title: " Quiz ", CourseCode: " cs101 ", Questions: []quiz.NewQuestion{
				{Text: " Q1 ", Choices: []string{" A", "B ", "C", "D"}, CorrectIndex: &one},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(validate)
			if tt.wantTags == nil {
				require.NoError(t, err)
				assert.Equal(t, "Quiz", tt.data.Title)
				assert.Equal(t, "CS101", tt.data.CourseCode)
				assert.Equal(t, "Q1", tt.data.Questions[0].Text)
				assert.Equal(t, []string{"A", "B", "C", "D"}, tt.data.Questions[0].Choices)
				return
			}

			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "unexpected error: %v", err)
			tags := make(map[string]string, len(vErrs))
			for _, vErr := range vErrs {
				tags[vErr.Field()] = vErr.Tag()
			}
			assert.Equal(t, tt.wantTags, tags)
		})
	}
}

type fixture struct {
	svc        quiz.Service
	usrRepo    user.Repository
	courseRepo course.Repository
	enrollRepo enrollment.Repository
	quizRepo   quiz.Repository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conf := core.NewTestConfig()
	db := inmemdb.Open()
	f := fixture{
		usrRepo:    inmemdb.NewUserRepository(db),
		courseRepo: inmemdb.NewCourseRepository(db),
		enrollRepo: inmemdb.NewEnrollmentRepository(db),
		quizRepo:   inmemdb.NewQuizRepository(db),
	}
	usrSvc := user.NewService(f.usrRepo, emailsvc.NewConsoleServiceMock(conf, testutil.NewLogger(conf)), conf)
	courseSvc := course.NewService(f.courseRepo, usrSvc)
	f.svc = quiz.NewService(f.quizRepo, courseSvc, usrSvc, enrollment.NewService(f.enrollRepo, usrSvc, courseSvc))
	return f
}

func Test_service_Submit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, f.usrRepo, "Teacher", "teacher@test.cd", "", user.RoleInstructor, true)
	alice := testutil.CreateUser(t, f.usrRepo, "Alice", "alice@test.cd", "", user.RoleStudent, true)
	bob := testutil.CreateUser(t, f.usrRepo, "Bob", "bob@test.cd", "", user.RoleStudent, true)
	cs101 := testutil.CreateCourse(t, f.courseRepo, "CS101", "Intro to CS", "1", &teacher)
	testutil.Enroll(t, f.enrollRepo, alice, cs101)
	qz := testutil.CreateQuiz(t, f.quizRepo, "Quiz", cs101, 2, 1, 0)

	_, err := f.svc.Submit(ctx, teacher.ID, qz.ID, []int{2})
	assert.Equal(t, quiz.ErrStudentsOnly, err)

	_, err = f.svc.Submit(ctx, alice.ID, "lol", []int{2})
	assert.Equal(t, quiz.ErrNotFound, err)

	_, err = f.svc.Submit(ctx, bob.ID, qz.ID, []int{2})
	require.Error(t, err)
	assert.Equal(t, quiz.ErrNotEnrolled.Error(), err.Error())

	r, err := f.svc.Submit(ctx, alice.ID, qz.ID, []int{2, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Score)
	assert.Equal(t, 3, r.Total)
	assert.False(t, r.SubmittedAt.IsZero())

	_, err = f.svc.Submit(ctx, alice.ID, qz.ID, []int{2, 1, 0})
	require.Error(t, err)
	assert.Equal(t, quiz.ErrAlreadySubmitted.Error(), err.Error())

	results, err := f.svc.ResultsByStudent(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []quiz.Result{r}, results)
}

func Test_service_manageQuizzes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := testutil.CreateUser(t, f.usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, f.usrRepo, "Teacher", "teacher@test.cd", "", user.RoleInstructor, true)
	other := testutil.CreateUser(t, f.usrRepo, "Other", "other@test.cd", "", user.RoleInstructor, true)
	cs101 := testutil.CreateCourse(t, f.courseRepo, "CS101", "Intro to CS", "1", &teacher)
	zero := 0

	nq := quiz.NewQuiz{Title: "Quiz", CourseCode: cs101.Code, Questions: []quiz.NewQuestion{
		{Text: "Q1", Choices: []string{"A", "B", "C", "D"}, CorrectIndex: &zero},
	}}
	_, err := f.svc.Create(ctx, nq, other)
	assert.Equal(t, quiz.ErrNotCourseTeacher, err)

	_, err = f.svc.Create(ctx, quiz.NewQuiz{Title: "Quiz", CourseCode: "LOL"}, admin)
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, []core.FieldError{{Field: "course_code", Error: "course not found"}}, vErr.Fields)

	qz, err := f.svc.Create(ctx, nq, teacher)
	require.NoError(t, err)
	assert.Equal(t, &teacher.ID, qz.InstructorID)
	require.Len(t, qz.Questions, 1)

	q, err := f.svc.AddQuestion(ctx, qz.ID, quiz.NewQuestion{Text: "Q2", Choices: []string{"A", "B", "C", "D"}, CorrectIndex: &zero}, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Position)

	byInstructor, err := f.svc.QueryByInstructor(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Len(t, byInstructor, 1)

	assert.Equal(t, quiz.ErrNotCourseTeacher, f.svc.DeleteQuestion(ctx, q.ID, other))
	require.NoError(t, f.svc.DeleteQuestion(ctx, q.ID, teacher))
	remaining, err := f.svc.QuestionsByQuiz(ctx, qz.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	assert.Equal(t, quiz.ErrNotCourseTeacher, f.svc.Delete(ctx, qz.ID, other))
	require.NoError(t, f.svc.Delete(ctx, qz.ID, admin))
	_, err = f.svc.GetByID(ctx, qz.ID)
	assert.Equal(t, quiz.ErrNotFound, err)
}
