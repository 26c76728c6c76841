package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	echoapi "github.com/academia/lms/apps/api/echo"
	"github.com/academia/lms/core"
	"github.com/academia/lms/core/assignment"
	"github.com/academia/lms/core/course"
	"github.com/academia/lms/core/enrollment"
	"github.com/academia/lms/core/quiz"
	"github.com/academia/lms/core/user"
	cachesvc "github.com/academia/lms/services/cache"
	emailsvc "github.com/academia/lms/services/email"
	logsvc "github.com/academia/lms/services/logger"
	schedulersvc "github.com/academia/lms/services/scheduler"
	"github.com/academia/lms/storage/database"
	sqlxrepos "github.com/academia/lms/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

// newDB creates (if needed), opens and migrates the database.
func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB, core.DBExecutor) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db, conf.Database.Engine); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db, db
}

// newValidator registers every validation tag and its message on translator.
func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	assignment.InitValidators(validate, translator)
	quiz.InitValidators(validate, translator)
	return validate
}

func newEnrollmentService(repo enrollment.Repository, courses *course.Service, validate *validator.Validate) *enrollment.Service {
	return enrollment.NewService(repo, courses, validate)
}

func newAssignmentService(
	repo assignment.Repository,
	courses *course.Service,
	enrollments *enrollment.Service,
	mailSvc core.EmailService,
	validate *validator.Validate,
) *assignment.Service {
	return assignment.NewService(repo, courses, enrollments.Gate, mailSvc, validate)
}

func newQuizService(
	db core.DB,
	repo quiz.Repository,
	courses *course.Service,
	enrollments *enrollment.Service,
	validate *validator.Validate,
) *quiz.Service {
	return quiz.NewService(db, repo, courses, enrollments.Gate, validate)
}

func newScheduler(conf *core.Config, logger core.Logger, svc *assignment.Service) (*schedulersvc.Scheduler, error) {
	return schedulersvc.New(conf, logger, svc)
}

func newRedisClient(conf *core.Config) *redis.Client {
	return cachesvc.NewRedisClient(conf)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(newRedisClient))
	must(c.Provide(cachesvc.NewLimiter))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewCourseRepository, dig.As(new(course.Repository))))
	must(c.Provide(sqlxrepos.NewEnrollmentRepository, dig.As(new(enrollment.Repository))))
	must(c.Provide(sqlxrepos.NewAssignmentRepository, dig.As(new(assignment.Repository))))
	must(c.Provide(sqlxrepos.NewQuizRepository, dig.As(new(quiz.Repository))))

	// services
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(course.NewService))
	must(c.Provide(newEnrollmentService))
	must(c.Provide(newAssignmentService))
	must(c.Provide(newQuizService))
	must(c.Provide(newScheduler))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
