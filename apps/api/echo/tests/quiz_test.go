package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ums/apps/api/echo"
	"github.com/trezcool/ums/core/quiz"
	"github.com/trezcool/ums/core/user"
	"github.com/trezcool/ums/tests"
)

var errQuizNotFound = httpErr{Error: "quiz not found"}

func decodeQuiz(t *testing.T, body []byte) quiz.Quiz {
	var qz quiz.Quiz
	if err := json.Unmarshal(body, &qz); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	return qz
}

func newQuestion(text string, correct int) quiz.NewQuestion {
	return quiz.NewQuestion{Text: text, Choices: []string{"A", "B", "C", "D"}, CorrectIndex: &correct}
}

func Test_quizApi_quizCreate(t *testing.T) {
	db.Flush()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleInstructor, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true)
	testutil.CreateCourse(t, courseRepo, "CS101", "Intro to CS", "1", &teacher)
	testutil.CreateCourse(t, courseRepo, "AI201", "Artificial Intelligence", "2", nil)
	teacherToken := getToken(t, teacher)

	reqMsg := "this field is required"
	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Staff required", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "required fields", token: teacherToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": reqMsg, "course_code": reqMsg}),
		},
		{
			name: "title too long", token: teacherToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, quiz.NewQuiz{Title: strings.Repeat("q", 256), CourseCode: "CS101"}),
			wantData: marchallObj(t, map[string]string{"title": "title must be a maximum of 255 characters in length"}),
		},
		{
			name: "unknown course", token: teacherToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, quiz.NewQuiz{Title: "Quiz", CourseCode: "LOL"}),
			wantData: marchallObj(t, map[string]string{"course_code": "course not found"}),
		},
		{
			name: "not the course instructor", token: teacherToken, wantCode: http.StatusForbidden,
			body:     marchallObj(t, quiz.NewQuiz{Title: "Quiz", CourseCode: "AI201"}),
			wantData: marchallObj(t, httpErr{Error: quiz.ErrNotCourseTeacher.Error()}),
		},
		{
			name: "quiz created", token: teacherToken, wantCode: http.StatusCreated,
			body: marchallObj(t, quiz.NewQuiz{
				Title: " Quiz 1 ", CourseCode: "cs101",
				Questions: []quiz.NewQuestion{newQuestion("What is 1+1?", 1), newQuestion("What is 2+2?", 3)},
			}),
			extra: true,
		},
	}
	for _, tt := range tests {
		tt.setDefaults(http.MethodPost, "/v1/quizzes")

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.extra != nil {
				require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				got := decodeQuiz(t, rec.Body.Bytes())
				assert.NotEmpty(t, got.ID)
				assert.Equal(t, "Quiz 1", got.Title)
				assert.Equal(t, "CS101", got.CourseCode)
				assert.Equal(t, &teacher.ID, got.InstructorID)
				require.Len(t, got.Questions, 2)
				assert.Equal(t, 1, got.Questions[0].CorrectIndex)
				assert.Equal(t, 3, got.Questions[1].CorrectIndex)
				assert.Equal(t, 1, got.Questions[1].Position)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_quizApi_quizQueryAndRetrieve(t *testing.T) {
	db.Flush()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleInstructor, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true)
	cs101 := testutil.CreateCourse(t, courseRepo, "CS101", "Intro to CS", "1", &teacher)
	ai201 := testutil.CreateCourse(t, courseRepo, "AI201", "Artificial Intelligence", "2", nil)
	qz1 := testutil.CreateQuiz(t, quizRepo, "Quiz 1", cs101, 0, 2)
	qz2 := testutil.CreateQuiz(t, quizRepo, "Quiz 2", ai201, 1)
	listed := func(qz quiz.Quiz) quiz.Quiz {
		qz.Questions = nil
		return qz
	}

	studentToken := getToken(t, student)
	tests := []httpTest{
		{name: "Auth required", path: "/v1/quizzes", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get all", path: "/v1/quizzes", token: studentToken, wantData: marchallList(t, listed(qz1), listed(qz2))},
		{name: "By course", path: "/v1/quizzes?course_code=ai201", token: studentToken, wantData: marchallList(t, listed(qz2))},
		{name: "By instructor", path: "/v1/quizzes?instructor_id=" + teacher.ID, token: studentToken, wantData: marchallList(t, listed(qz1))},
		{name: "Students do not see answers", path: "/v1/quizzes/" + qz1.ID, token: studentToken, wantData: marchallObj(t, qz1.ForStudent())},
		{name: "Instructors see answers", path: "/v1/quizzes/" + qz1.ID, token: getToken(t, teacher), wantData: marchallObj(t, qz1)},
		{name: "Unknown quiz", path: "/v1/quizzes/lol", token: studentToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errQuizNotFound)},
	}
	runHTTPTests(t, http.MethodGet, "", tests)
}

func Test_quizApi_quizUpdateAndDestroy(t *testing.T) {
	db.Flush()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleInstructor, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleInstructor, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true)
	cs101 := testutil.CreateCourse(t, courseRepo, "CS101", "Intro to CS", "1", &teacher)
	qz := testutil.CreateQuiz(t, quizRepo, "Quiz 1", cs101, 0, 2)
	testutil.Enroll(t, enrollRepo, student, cs101)
	testutil.CreateResult(t, quizRepo, student, qz, 2)
	teacherToken := getToken(t, teacher)

	path := "/v1/quizzes/" + qz.ID
	errNotTeacher := marchallObj(t, httpErr{Error: quiz.ErrNotCourseTeacher.Error()})

	t.Run("update", func(t *testing.T) {
		tests := []httpTest{
			{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
			{name: "Staff required", path: path, token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
			{
				name: "Other instructors not allowed", path: path, token: getToken(t, other), wantCode: http.StatusForbidden,
				body: marchallObj(t, quiz.UpdateQuiz{Title: "Lol"}), wantData: errNotTeacher,
			},
			{name: "Unknown quiz", path: "/v1/quizzes/lol", token: teacherToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errQuizNotFound)},
		}
		runHTTPTests(t, http.MethodPut, "", tests)

		// title only: questions are kept
		req, rec := newAuthRequest(http.MethodPut, path, teacherToken, marchallObj(t, quiz.UpdateQuiz{Title: "Midterm"}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decodeQuiz(t, rec.Body.Bytes())
		assert.Equal(t, "Midterm", got.Title)
		assert.Len(t, got.Questions, 2)

		// questions replaced
		body := marchallObj(t, quiz.UpdateQuiz{Questions: []quiz.NewQuestion{newQuestion("Only question", 2)}})
		req, rec = newAuthRequest(http.MethodPut, path, getToken(t, admin), body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got = decodeQuiz(t, rec.Body.Bytes())
		assert.Equal(t, "Midterm", got.Title)
		require.Len(t, got.Questions, 1)
		assert.Equal(t, "Only question", got.Questions[0].Text)
		assert.Equal(t, 2, got.Questions[0].CorrectIndex)
	})

	t.Run("destroy", func(t *testing.T) {
		tests := []httpTest{
			{name: "Other instructors not allowed", path: path, token: getToken(t, other), wantCode: http.StatusForbidden, wantData: errNotTeacher},
			{name: "Quiz deleted", path: path, token: teacherToken, wantCode: http.StatusNoContent},
			{name: "Unknown quiz", path: path, token: teacherToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errQuizNotFound)},
		}
		runHTTPTests(t, http.MethodDelete, "", tests)

		results, err := quizRepo.QueryResults(context.Background(), quiz.ResultFilter{QuizID: qz.ID})
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func Test_quizApi_questions(t *testing.T) {
	db.Flush()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleInstructor, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleInstructor, true)
	cs101 := testutil.CreateCourse(t, courseRepo, "CS101", "Intro to CS", "1", &teacher)
	qz := testutil.CreateQuiz(t, quizRepo, "Quiz 1", cs101, 0)
	teacherToken := getToken(t, teacher)
	errNotTeacher := marchallObj(t, httpErr{Error: quiz.ErrNotCourseTeacher.Error()})

	t.Run("add", func(t *testing.T) {
		path := "/v1/quizzes/" + qz.ID + "/questions"
		tests := []httpTest{
			{
				name: "invalid question", path: path, token: teacherToken, wantCode: http.StatusBadRequest,
				body: marchallObj(t, quiz.NewQuestion{Text: " ", Choices: []string{"A", "B", "C", "D"}}),
				wantData: marchallObj(t, map[string]string{
					"text":          "this field is required",
					"correct_index": "this field is required",
				}),
			},
			{
				name: "Other instructors not allowed", path: path, token: getToken(t, other), wantCode: http.StatusForbidden,
				body: marchallObj(t, newQuestion("Q", 0)), wantData: errNotTeacher,
			},
			{
				name: "Unknown quiz", path: "/v1/quizzes/lol/questions", token: teacherToken, wantCode: http.StatusNotFound,
				body: marchallObj(t, newQuestion("Q", 0)), wantData: marchallObj(t, errQuizNotFound),
			},
		}
		runHTTPTests(t, http.MethodPost, "", tests)

		req, rec := newAuthRequest(http.MethodPost, path, teacherToken, marchallObj(t, newQuestion("What is 3+3?", 2)))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var q quiz.Question
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
		assert.Equal(t, qz.ID, q.QuizID)
		assert.Equal(t, 1, q.Position) // appended
		assert.Equal(t, 2, q.CorrectIndex)
	})

	t.Run("update & delete", func(t *testing.T) {
		id := qz.Questions[0].ID
		path := "/v1/questions/" + id
		tests := []httpTest{
			{name: "Auth required", path: path, method: http.MethodPut, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
			{name: "Other instructors not allowed", path: path, method: http.MethodDelete, token: getToken(t, other), wantCode: http.StatusForbidden, wantData: errNotTeacher},
			{
				name: "Unknown question", path: "/v1/questions/lol", method: http.MethodPut, token: teacherToken, wantCode: http.StatusNotFound,
				body: marchallObj(t, newQuestion("Q", 0)), wantData: marchallObj(t, httpErr{Error: "question not found"}),
			},
		}
		runHTTPTests(t, "", "", tests)

		req, rec := newAuthRequest(http.MethodPut, path, teacherToken, marchallObj(t, newQuestion("Updated", 3)))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var q quiz.Question
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
		assert.Equal(t, id, q.ID)
		assert.Equal(t, "Updated", q.Text)
		assert.Equal(t, 0, q.Position)

		req, rec = newAuthRequest(http.MethodDelete, path, teacherToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		_, err := quizRepo.GetQuestion(context.Background(), id)
		assert.Equal(t, quiz.ErrQuestionNotFound, err)
	})
}

func Test_quizApi_quizSubmit(t *testing.T) {
	db.Flush()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleInstructor, true)
	alice := testutil.CreateUser(t, usrRepo, "Alice", "alice@test.cd", "", user.RoleStudent, true)
	bob := testutil.CreateUser(t, usrRepo, "Bob", "bob@test.cd", "", user.RoleStudent, true)
	cs101 := testutil.CreateCourse(t, courseRepo, "CS101", "Intro to CS", "1", &teacher)
	testutil.Enroll(t, enrollRepo, alice, cs101)
	qz := testutil.CreateQuiz(t, quizRepo, "Quiz 1", cs101, 1, 3, 0)
	aliceToken := getToken(t, alice)
	answers := func(a ...int) []byte { return marchallObj(t, quiz.Submission{Answers: a}) }

	path := "/v1/quizzes/" + qz.ID + "/submit"
	tests := []httpTest{
		{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Students only", path: path, token: getToken(t, teacher), body: answers(1), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "answers required", path: path, token: aliceToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"answers": "this field is required"}),
		},
		{name: "Unknown quiz", path: "/v1/quizzes/lol/submit", token: aliceToken, body: answers(1), wantCode: http.StatusNotFound, wantData: marchallObj(t, errQuizNotFound)},
		{
			name: "Not enrolled", path: path, token: getToken(t, bob), body: answers(1), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: quiz.ErrNotEnrolled.Error()}),
		},
		{name: "Submitted", path: path, token: aliceToken, body: answers(1, 2), wantCode: http.StatusCreated, extra: 1},
		{
			name: "Already submitted", path: path, token: aliceToken, body: answers(1, 3, 0), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: quiz.ErrAlreadySubmitted.Error()}),
		},
	}
	for _, tt := range tests {
		tt.setDefaults(http.MethodPost, "")

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if score, ok := tt.extra.(int); ok {
				require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				var got map[string]interface{}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, alice.ID, got["student_id"])
				assert.Equal(t, float64(score), got["score"])
				assert.Equal(t, float64(3), got["total"])
				assert.InDelta(t, 33.33, got["percentage"], 0.01)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_quizApi_results(t *testing.T) {
	db.Flush()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleInstructor, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleInstructor, true)
	alice := testutil.CreateUser(t, usrRepo, "Alice", "alice@test.cd", "", user.RoleStudent, true)
	bob := testutil.CreateUser(t, usrRepo, "Bob", "bob@test.cd", "", user.RoleStudent, true)
	cs101 := testutil.CreateCourse(t, courseRepo, "CS101", "Intro to CS", "1", &teacher)
	qz1 := testutil.CreateQuiz(t, quizRepo, "Quiz 1", cs101, 0, 1, 2, 3)
	qz2 := testutil.CreateQuiz(t, quizRepo, "Quiz 2", cs101, 0, 1)
	now := time.Now()
	r1 := testutil.CreateResult(t, quizRepo, alice, qz1, 3, now.Add(-3*time.Hour))
	r2 := testutil.CreateResult(t, quizRepo, bob, qz1, 1, now.Add(-2*time.Hour))
	r3 := testutil.CreateResult(t, quizRepo, alice, qz2, 2, now.Add(-time.Hour))
	avg := func(v float64) *float64 { return &v }

	tests := []httpTest{
		{name: "Staff required", path: "/v1/quizzes/" + qz1.ID + "/results", token: getToken(t, alice), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "Quiz results", path: "/v1/quizzes/" + qz1.ID + "/results", token: getToken(t, teacher),
			wantData: marchallObj(t, echoapi.ResultsResponse{Results: []quiz.Result{r1, r2}, Average: avg(50)}),
		},
		{name: "Other instructors not allowed", path: "/v1/quizzes/" + qz1.ID + "/results", token: getToken(t, other), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "Admin sees quiz results", path: "/v1/quizzes/" + qz2.ID + "/results", token: getToken(t, admin),
			wantData: marchallObj(t, echoapi.ResultsResponse{Results: []quiz.Result{r3}, Average: avg(100)}),
		},
		{name: "Unknown quiz", path: "/v1/quizzes/lol/results", token: getToken(t, teacher), wantCode: http.StatusNotFound, wantData: marchallObj(t, errQuizNotFound)},
		{
			name: "Student results", path: "/v1/users/" + alice.ID + "/results", token: getToken(t, alice),
			wantData: marchallObj(t, echoapi.ResultsResponse{Results: []quiz.Result{r1, r3}, Average: avg(87.5)}),
		},
		{name: "Others hidden", path: "/v1/users/" + alice.ID + "/results", token: getToken(t, bob), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{
			name: "No results", path: "/v1/users/" + teacher.ID + "/results", token: getToken(t, teacher),
			wantData: marchallObj(t, echoapi.ResultsResponse{Results: []quiz.Result{}}),
		},
	}
	runHTTPTests(t, http.MethodGet, "", tests)
}
