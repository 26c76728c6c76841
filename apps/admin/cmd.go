package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/academia/lms/core/course"
	"github.com/academia/lms/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

// reminderSender sends the deadline reminders of assignments due within window.
type reminderSender interface {
	SendDeadlineReminders(ctx context.Context, window time.Duration) (int, error)
}

type commandLine struct {
	db        *sqlx.DB
	engine    string
	usrSvc    *user.Service
	courseSvc *course.Service
	reminders reminderSender
	window    time.Duration
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Println("  createuser -email EMAIL -name NAME -role ROLE - create a user of any role")
	fmt.Println("  resetpassword -email EMAIL - reset user's password")
	fmt.Println("  approvecourse -id COURSE_ID - approve a course")
	fmt.Println("  sendreminders - e-mail the students whose assignments are due soon")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createUserCmd := flag.NewFlagSet("createuser", flag.ContinueOnError)
	createUserEmail := createUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	createUserName := createUserCmd.String("name", "", "The user's name.")
	createUserRole := createUserCmd.String("role", "admin", "student, instructor or admin.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	approveCourseCmd := flag.NewFlagSet("approvecourse", flag.ContinueOnError)
	approveCourseID := approveCourseCmd.String("id", "", "The course ID.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "createuser":
		if err := createUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createUserEmail == "" || *createUserName == "" {
			createUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			createUserCmd.Usage()
			return errHelp
		}
		return cli.createUser(*createUserName, *createUserEmail, pwd, *createUserRole)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "approvecourse":
		if err := approveCourseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *approveCourseID == "" {
			approveCourseCmd.Usage()
			return errHelp
		}
		return cli.approveCourse(*approveCourseID)

	case "sendreminders":
		return cli.sendReminders()

	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
