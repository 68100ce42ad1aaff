package dig_container

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/ums/apps/api/echo"
	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/enrollment"
	"github.com/trezcool/ums/core/quiz"
	"github.com/trezcool/ums/core/report"
	"github.com/trezcool/ums/core/user"
	emailsvc "github.com/trezcool/ums/services/email"
	logsvc "github.com/trezcool/ums/services/logger"
	pdfsvc "github.com/trezcool/ums/services/pdf"
	"github.com/trezcool/ums/storage/database"
	boiledrepos "github.com/trezcool/ums/storage/database/sqlboiler"
	sqlxrepos "github.com/trezcool/ums/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In
	Conf          *core.Config
	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	UserSvc       user.Service
	CourseSvc     course.Service
	EnrollmentSvc enrollment.Service
	QuizSvc       quiz.Service
	ReportSvc     report.Service
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, *sql.DB) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db.DB
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newCourseService(repo course.Repository, usrSvc user.Service) course.Service {
	return course.NewService(repo, usrSvc)
}

func newEnrollmentService(repo enrollment.Repository, usrSvc user.Service, courseSvc course.Service) enrollment.Service {
	return enrollment.NewService(repo, usrSvc, courseSvc)
}

func newQuizService(
	repo quiz.Repository,
	courseSvc course.Service,
	usrSvc user.Service,
	enrollSvc enrollment.Service,
) quiz.Service {
	return quiz.NewService(repo, courseSvc, usrSvc, enrollSvc)
}

func newReportRenderer(conf *core.Config) report.Renderer {
	return pdfsvc.NewReportRenderer(conf.AppName)
}

func newReportRepository(db *sqlx.DB) report.Repository {
	return boiledrepos.NewReportRepository(db)
}

func newReportService(
	repo report.Repository,
	usrSvc user.Service,
	enrollSvc enrollment.Service,
	renderer report.Renderer,
	mailSvc core.EmailService,
	conf *core.Config,
) report.Service {
	return report.NewService(repo, usrSvc, enrollSvc, renderer, mailSvc, conf)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		CourseSvc:     p.CourseSvc,
		EnrollmentSvc: p.EnrollmentSvc,
		QuizSvc:       p.QuizSvc,
		ReportSvc:     p.ReportSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository))
	must(c.Provide(sqlxrepos.NewCourseRepository))
	must(c.Provide(sqlxrepos.NewEnrollmentRepository))
	must(c.Provide(sqlxrepos.NewQuizRepository))
	must(c.Provide(newReportRepository))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(newCourseService))
	must(c.Provide(newEnrollmentService))
	must(c.Provide(newQuizService))
	must(c.Provide(newReportRenderer))
	must(c.Provide(newReportService))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
