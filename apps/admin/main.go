package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/assignment"
	"github.com/academia/lms/core/course"
	"github.com/academia/lms/core/enrollment"
	"github.com/academia/lms/core/user"
	emailsvc "github.com/academia/lms/services/email"
	logsvc "github.com/academia/lms/services/logger"
	"github.com/academia/lms/storage/database"
	sqlxrepos "github.com/academia/lms/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("setting up database", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}

	// set up services
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	courseSvc := course.NewService(sqlxrepos.NewCourseRepository(db), validate)
	gate := enrollment.NewGate(sqlxrepos.NewEnrollmentRepository(db))
	asgSvc := assignment.NewService(
		sqlxrepos.NewAssignmentRepository(db), courseSvc, gate, emailsvc.NewService(conf, logger), validate,
	)

	// start CLI
	cli := commandLine{
		db:        db,
		engine:    conf.Database.Engine,
		usrSvc:    user.NewService(sqlxrepos.NewUserRepository(db), validate),
		courseSvc: courseSvc,
		reminders: asgSvc,
		window:    conf.Scheduler.ReminderWindow,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
