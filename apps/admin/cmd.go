package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/enrollment"
	"github.com/trezcool/ums/core/report"
	"github.com/trezcool/ums/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf       *core.Config
	db         *sql.DB
	usrRepo    user.Repository
	courseRepo course.Repository
	enrollRepo enrollment.Repository
	reportSvc  report.Service
	mailSvc    core.EmailService
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -name NAME -email EMAIL [-role ROLE] - create (or update) a user")
	fmt.Println("  resetpassword -email EMAIL - reset user's password")
	fmt.Println("  migrate COMMAND [ARGS...] - run a goose command (up, down, status, ...)")
	fmt.Println("  seed - load the demo users & courses")
	fmt.Println("  report -student ID|-all [-dir DIR] [-email] - generate student reports")
}

func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", user.RoleAdmin, "One of admin, instructor, student.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	reportCmd := flag.NewFlagSet("report", flag.ExitOnError)
	reportStudent := reportCmd.String("student", "", "The ID of the student.")
	reportAll := reportCmd.Bool("all", false, "Generate the reports of every student.")
	reportDir := reportCmd.String("dir", cli.conf.Reports.Dir, "The directory the reports are written into.")
	reportEmail := reportCmd.Bool("email", false, "Email the report to the student instead of writing it.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(*addUserName, *addUserEmail, pwd, *addUserRole)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "seed":
		return cli.seed()

	case "report":
		if err := reportCmd.Parse(args[2:]); err != nil {
			return err
		}
		switch {
		case *reportAll && *reportStudent == "" && !*reportEmail:
			return cli.reportAll(*reportDir)
		case !*reportAll && *reportStudent != "":
			if *reportEmail {
				return cli.emailReport(*reportStudent)
			}
			return cli.report(*reportStudent, *reportDir)
		default:
			reportCmd.Usage()
			return errHelp
		}

	default:
		cli.printUsage()
		return errHelp
	}
}
