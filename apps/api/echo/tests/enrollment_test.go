package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ums/core/enrollment"
	"github.com/trezcool/ums/core/user"
	"github.com/trezcool/ums/tests"
)

func Test_enrollmentApi_enroll(t *testing.T) {
	db.Flush()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleInstructor, true)
	alice := testutil.CreateUser(t, usrRepo, "Alice", "alice@test.cd", "", user.RoleStudent, true)
	bob := testutil.CreateUser(t, usrRepo, "Bob", "bob@test.cd", "", user.RoleStudent, true)
	testutil.CreateCourse(t, courseRepo, "CS101", "Intro to CS", "1", &teacher)
	aliceToken := getToken(t, alice)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Instructors cannot enroll", token: getToken(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "course required", token: aliceToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"course_code": "this field is required"}),
		},
		{
			name: "unknown course", token: aliceToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, enrollment.NewEnrollment{CourseCode: "LOL"}),
			wantData: marchallObj(t, map[string]string{"course_code": "course not found"}),
		},
		{
			name: "student enrolled", token: aliceToken, wantCode: http.StatusCreated,
			body:  marchallObj(t, enrollment.NewEnrollment{CourseCode: "cs101", StudentID: bob.ID}), // student_id ignored for students
			extra: alice.ID,
		},
		{
			name: "already enrolled", token: aliceToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, enrollment.NewEnrollment{CourseCode: "CS101"}),
			wantData: marchallObj(t, map[string]string{"course_code": enrollment.ErrAlreadyEnrolled.Error()}),
		},
		{
			name: "admin must name the student", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, enrollment.NewEnrollment{CourseCode: "CS101"}),
			wantData: marchallObj(t, map[string]string{"student_id": "this field is required"}),
		},
		{
			name: "students only", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, enrollment.NewEnrollment{CourseCode: "CS101", StudentID: teacher.ID}),
			wantData: marchallObj(t, map[string]string{"student_id": enrollment.ErrStudentsOnly.Error()}),
		},
		{
			name: "admin enrolls a student", token: adminToken, wantCode: http.StatusCreated,
			body:  marchallObj(t, enrollment.NewEnrollment{CourseCode: "CS101", StudentID: bob.ID}),
			extra: bob.ID,
		},
	}
	for _, tt := range tests {
		tt.setDefaults(http.MethodPost, "/v1/enrollments")

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if studentID, ok := tt.extra.(string); ok {
				require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				var e enrollment.Enrollment
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
				assert.Equal(t, studentID, e.StudentID)
				assert.Equal(t, "CS101", e.CourseCode)
				assert.False(t, e.EnrolledAt.IsZero())
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_enrollmentApi_drop(t *testing.T) {
	db.Flush()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)
	alice := testutil.CreateUser(t, usrRepo, "Alice", "alice@test.cd", "", user.RoleStudent, true)
	bob := testutil.CreateUser(t, usrRepo, "Bob", "bob@test.cd", "", user.RoleStudent, true)
	cs101 := testutil.CreateCourse(t, courseRepo, "CS101", "Intro to CS", "1", nil)
	testutil.Enroll(t, enrollRepo, alice, cs101)
	testutil.Enroll(t, enrollRepo, bob, cs101)
	aliceToken := getToken(t, alice)

	errNotEnrolled := marchallObj(t, httpErr{Error: "enrollment not found"})
	tests := []httpTest{
		{name: "Auth required", path: "/v1/enrollments/CS101", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Unknown course", path: "/v1/enrollments/LOL", token: aliceToken, wantCode: http.StatusNotFound, wantData: errNotEnrolled},
		{name: "Course dropped", path: "/v1/enrollments/cs101", token: aliceToken, wantCode: http.StatusNoContent},
		{name: "Not enrolled", path: "/v1/enrollments/CS101", token: aliceToken, wantCode: http.StatusNotFound, wantData: errNotEnrolled},
		{name: "Admin drops for a student", path: "/v1/enrollments/CS101?student_id=" + bob.ID, token: getToken(t, admin), wantCode: http.StatusNoContent},
	}
	runHTTPTests(t, http.MethodDelete, "", tests)

	students, err := enrollRepo.StudentsByCourse(context.Background(), cs101.Code)
	require.NoError(t, err)
	assert.Empty(t, students)
}

func Test_enrollmentApi_studentCourses(t *testing.T) {
	db.Flush()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)
	alice := testutil.CreateUser(t, usrRepo, "Alice", "alice@test.cd", "", user.RoleStudent, true)
	bob := testutil.CreateUser(t, usrRepo, "Bob", "bob@test.cd", "", user.RoleStudent, true)
	cs101 := testutil.CreateCourse(t, courseRepo, "CS101", "Intro to CS", "1", nil)
	ai201 := testutil.CreateCourse(t, courseRepo, "AI201", "Artificial Intelligence", "2", nil)
	testutil.Enroll(t, enrollRepo, alice, cs101)
	testutil.Enroll(t, enrollRepo, alice, ai201)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users/" + alice.ID + "/courses", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Others hidden", path: "/v1/users/" + alice.ID + "/courses", token: getToken(t, bob), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "Own courses", path: "/v1/users/" + alice.ID + "/courses", token: getToken(t, alice), wantData: marchallList(t, ai201, cs101)},
		{name: "Admin", path: "/v1/users/" + alice.ID + "/courses", token: getToken(t, admin), wantData: marchallList(t, ai201, cs101)},
		{name: "No courses", path: "/v1/users/" + bob.ID + "/courses", token: getToken(t, bob), wantData: marchallList(t)},
	}
	runHTTPTests(t, http.MethodGet, "", tests)
}
