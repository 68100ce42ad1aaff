package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/user"
)

type (
	fakeRepo     map[string][]QuizLine
	fakeStudents map[string]user.User
	fakeCourses  map[string][]course.Course
	fakeRenderer struct{ err error }
	fakeMailer   struct{ sent []*core.EmailMessage }
)

func (r fakeRepo) QuizLinesByStudent(_ context.Context, studentID string) ([]QuizLine, error) {
	return r[studentID], nil
}

func (s fakeStudents) GetByID(_ context.Context, id string) (user.User, error) {
	usr, ok := s[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (s fakeStudents) QueryByRole(_ context.Context, role string) ([]user.User, error) {
	usrs := make([]user.User, 0, len(s))
	for _, usr := range s {
		if usr.Role == role {
			usrs = append(usrs, usr)
		}
	}
	return usrs, nil
}

func (c fakeCourses) CoursesByStudent(_ context.Context, studentID string) ([]course.Course, error) {
	return c[studentID], nil
}

func (fr fakeRenderer) Render(w io.Writer, rep StudentReport) error {
	if fr.err != nil {
		return fr.err
	}
	_, err := fmt.Fprintf(w, "report of %s", rep.Student.Name)
	return err
}

func (fakeRenderer) ContentType() string { return "application/pdf" }

func (m *fakeMailer) SendMessages(messages ...*core.EmailMessage) {
	m.sent = append(m.sent, messages...)
}

func (*fakeMailer) Wait() {}

var (
	now     = time.Date(2024, 3, 1, 10, 30, 15, 0, time.UTC)
	alice   = user.User{ID: "s1", Name: "Alice", Email: "alice@ums.edu", Role: user.RoleStudent, Level: 1, Grade: 80}
	bob     = user.User{ID: "s2", Name: "Bob", Email: "bob@ums.edu", Role: user.RoleStudent, Level: 2}
	teacher = user.User{ID: "i1", Name: "Ian", Email: "ian@ums.edu", Role: user.RoleInstructor}

	cs101 = course.Course{Code: "CS101", Name: "Programming"}
	ai201 = course.Course{Code: "AI201", Name: "Machine Learning"}
)

func newTestService(t *testing.T, renderer Renderer) (Service, *fakeMailer) {
	t.Helper()
	oldNow := nowFunc
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = oldNow })

	mailer := new(fakeMailer)
	svc := NewService(
		fakeRepo{
			alice.ID: {
				{QuizID: "q1", Title: "Loops", CourseCode: "CS101", Score: 3, Total: 4},
				{QuizID: "q2", Title: "Functions", CourseCode: "CS101", Score: 2, Total: 2},
			},
		},
		fakeStudents{alice.ID: alice, bob.ID: bob, teacher.ID: teacher},
		fakeCourses{alice.ID: {cs101, ai201}},
		renderer,
		mailer,
		core.NewTestConfig(),
	)
	return svc, mailer
}

func TestService_Build(t *testing.T) {
	svc, _ := newTestService(t, fakeRenderer{})
	ctx := context.Background()

	t.Run("aggregates results per course", func(t *testing.T) {
		rep, err := svc.Build(ctx, alice.ID)
		require.NoError(t, err)

		assert.Equal(t, now, rep.GeneratedAt)
		assert.Equal(t, "80.00%", rep.GradeString())
		require.Len(t, rep.Grades, 2)
		assert.Equal(t, CourseGrade{Code: "CS101", Name: "Programming", Score: 5, Total: 6, Taken: 2}, rep.Grades[0])
		assert.Equal(t, "5/6", rep.Grades[0].PointsString())
		assert.Equal(t, "83.33%", rep.Grades[0].GradeString())
		assert.Equal(t, NoQuizzesYet, rep.Grades[1].PointsString())
		assert.Equal(t, NotAvailable, rep.Grades[1].GradeString())

		assert.Equal(t, Summary{QuizzesTaken: 2, Points: 5, Total: 6}, rep.Summary)
		avg, ok := rep.Summary.Average()
		assert.True(t, ok)
		assert.Equal(t, "83.33%", avg)
		assert.Equal(t, "Student_Report_s1_20240301_103015.pdf", rep.Filename())
	})

	t.Run("student without results", func(t *testing.T) {
		rep, err := svc.Build(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, rep.Courses)
		assert.Empty(t, rep.Quizzes)
		_, ok := rep.Summary.Average()
		assert.False(t, ok)
	})

	t.Run("not a student", func(t *testing.T) {
		_, err := svc.Build(ctx, teacher.ID)
		require.Error(t, err)
		vErr, ok := err.(*core.ValidationError)
		require.True(t, ok)
		assert.Equal(t, user.ErrNotStudent, vErr.Err)
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := svc.Build(ctx, "nope")
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func TestService_Generate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	t.Run("writes the report file", func(t *testing.T) {
		svc, _ := newTestService(t, fakeRenderer{})
		path, err := svc.Generate(context.Background(), alice.ID, dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "Student_Report_s1_20240301_103015.pdf"), path)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "report of Alice", string(content))
	})

	t.Run("renderer failure leaves no file", func(t *testing.T) {
		svc, _ := newTestService(t, fakeRenderer{err: fmt.Errorf("boom")})
		_, err := svc.Generate(context.Background(), bob.ID, dir)
		require.Error(t, err)
		_, statErr := os.Stat(filepath.Join(dir, "Student_Report_s2_20240301_103015.pdf"))
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestService_GenerateAll(t *testing.T) {
	svc, _ := newTestService(t, fakeRenderer{})
	dir := t.TempDir()

	paths, err := svc.GenerateAll(context.Background(), dir)
	require.NoError(t, err)
	sort.Strings(paths)
	assert.Equal(t, []string{
		filepath.Join(dir, "Student_Report_s1_20240301_103015.pdf"),
		filepath.Join(dir, "Student_Report_s2_20240301_103015.pdf"),
	}, paths)
}

func TestService_Email(t *testing.T) {
	svc, mailer := newTestService(t, fakeRenderer{})

	require.NoError(t, svc.Email(context.Background(), alice.ID))
	require.Len(t, mailer.sent, 1)

	msg := mailer.sent[0]
	assert.Equal(t, "alice@ums.edu", msg.To[0].Address)
	assert.Equal(t, "student_report", msg.TemplateName)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "Student_Report_s1_20240301_103015.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
}
