package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/enrollment"
	"github.com/trezcool/ums/core/report"
	"github.com/trezcool/ums/core/user"
	emailsvc "github.com/trezcool/ums/services/email"
	logsvc "github.com/trezcool/ums/services/logger"
	pdfsvc "github.com/trezcool/ums/services/pdf"
	"github.com/trezcool/ums/storage/database"
	boiledrepos "github.com/trezcool/ums/storage/database/sqlboiler"
	sqlxrepos "github.com/trezcool/ums/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	core.ParseEmailTemplates(conf, logger)

	usrRepo := sqlxrepos.NewUserRepository(db)
	courseRepo := sqlxrepos.NewCourseRepository(db)
	enrollRepo := sqlxrepos.NewEnrollmentRepository(db)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	courseSvc := course.NewService(courseRepo, usrSvc)
	enrollSvc := enrollment.NewService(enrollRepo, usrSvc, courseSvc)
	reportSvc := report.NewService(
		boiledrepos.NewReportRepository(db),
		usrSvc,
		enrollSvc,
		pdfsvc.NewReportRenderer(conf.AppName),
		mailSvc,
		conf,
	)

	// start CLI
	cli := commandLine{
		conf:       conf,
		db:         db.DB,
		usrRepo:    usrRepo,
		courseRepo: courseRepo,
		enrollRepo: enrollRepo,
		reportSvc:  reportSvc,
		mailSvc:    mailSvc,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
			logger.Flush()
		}
		os.Exit(1)
	}
}
