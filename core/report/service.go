package report

import (
	"bytes"
	"context"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/user"
)

var nowFunc = time.Now // mockable

type (
	Repository interface {
		// QuizLinesByStudent returns the results of a student joined with their quiz, oldest first.
		// Results whose quiz no longer exists are left out.
		QuizLinesByStudent(ctx context.Context, studentID string) ([]QuizLine, error)
	}

	// Renderer writes a StudentReport out as a document.
	Renderer interface {
		Render(w io.Writer, rep StudentReport) error
		ContentType() string
	}

	// StudentLister lists students; satisfied by user.Service.
	StudentLister interface {
		GetByID(ctx context.Context, id string) (user.User, error)
		QueryByRole(ctx context.Context, role string) ([]user.User, error)
	}

	// CourseLister lists the courses of a student; satisfied by enrollment.Service.
	CourseLister interface {
		CoursesByStudent(ctx context.Context, studentID string) ([]course.Course, error)
	}

	Service interface {
		Build(ctx context.Context, studentID string) (StudentReport, error)
		Render(w io.Writer, rep StudentReport) error
		// Generate writes the report of a student into dir and returns the path of the file.
		Generate(ctx context.Context, studentID, dir string) (string, error)
		// GenerateAll generates the reports of every student concurrently.
		GenerateAll(ctx context.Context, dir string) ([]string, error)
		// Email mails the report of a student to them.
		Email(ctx context.Context, studentID string) error
	}

	service struct {
		repo     Repository
		students StudentLister
		courses  CourseLister
		renderer Renderer
		mailSvc  core.EmailService
		workers  int
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	students StudentLister,
	courses CourseLister,
	renderer Renderer,
	mailSvc core.EmailService,
	conf *core.Config,
) Service {
	workers := conf.Reports.Workers
	if workers < 1 {
		workers = 1
	}
	return &service{
		repo:     repo,
		students: students,
		courses:  courses,
		renderer: renderer,
		mailSvc:  mailSvc,
		workers:  workers,
	}
}

func (svc *service) Build(ctx context.Context, studentID string) (StudentReport, error) {
	student, err := svc.students.GetByID(ctx, studentID)
	if err != nil {
		return StudentReport{}, err
	}
	if !student.IsStudent() {
		return StudentReport{}, core.NewValidationError(user.ErrNotStudent)
	}
	return svc.build(ctx, student)
}

func (svc *service) build(ctx context.Context, student user.User) (StudentReport, error) {
	courses, err := svc.courses.CoursesByStudent(ctx, student.ID)
	if err != nil {
		return StudentReport{}, errors.Wrap(err, "querying student courses")
	}
	lines, err := svc.repo.QuizLinesByStudent(ctx, student.ID)
	if err != nil {
		return StudentReport{}, errors.Wrap(err, "querying student quiz results")
	}
	return newStudentReport(student, courses, lines, nowFunc()), nil
}

func (svc *service) Render(w io.Writer, rep StudentReport) error {
	return errors.Wrap(svc.renderer.Render(w, rep), "rendering report")
}

func (svc *service) Generate(ctx context.Context, studentID, dir string) (string, error) {
	rep, err := svc.Build(ctx, studentID)
	if err != nil {
		return "", err
	}
	return svc.writeFile(rep, dir)
}

func (svc *service) writeFile(rep StudentReport, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating reports dir")
	}

	path := filepath.Join(dir, rep.Filename())
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "creating report file")
	}
	if err = svc.Render(f, rep); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrap(err, "closing report file")
	}
	return path, nil
}

func (svc *service) GenerateAll(ctx context.Context, dir string) ([]string, error) {
	students, err := svc.students.QueryByRole(ctx, user.RoleStudent)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	var (
		paths = make([]string, 0, len(students))
		mu    sync.Mutex
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(svc.workers)
	for _, student := range students {
		student := student
		g.Go(func() error {
			rep, err := svc.build(gctx, student)
			if err != nil {
				return errors.Wrapf(err, "building report of %s", student.ID)
			}
			path, err := svc.writeFile(rep, dir)
			if err != nil {
				return errors.Wrapf(err, "writing report of %s", student.ID)
			}
			mu.Lock()
			paths = append(paths, path)
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	return paths, err
}

func (svc *service) Email(ctx context.Context, studentID string) error {
	rep, err := svc.Build(ctx, studentID)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err = svc.Render(&buf, rep); err != nil {
		return err
	}

	avg, _ := rep.Summary.Average()
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: rep.Student.Name, Address: rep.Student.Email}},
		Subject:      "Your Academic Report",
		TemplateName: "student_report",
		TemplateData: map[string]interface{}{
			"Name":         rep.Student.Name,
			"GeneratedAt":  rep.GeneratedAt.Format("02/01/2006 15:04:05"),
			"QuizzesTaken": rep.Summary.QuizzesTaken,
			"Average":      avg,
		},
	}
	if err = msg.Attach(&buf, rep.Filename(), svc.renderer.ContentType()); err != nil {
		return errors.Wrap(err, "attaching report")
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}
