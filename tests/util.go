package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/assignment"
	"github.com/academia/lms/core/course"
	"github.com/academia/lms/core/quiz"
	"github.com/academia/lms/core/user"
	"github.com/academia/lms/storage/database"
)

// UnknownID is a well-formed identifier no fixture ever gets.
const UnknownID = "00000000-0000-4000-8000-000000000000"

// PrepareDB opens a migrated sqlite database living in the test's temp dir.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conf := core.NewTestConfig()
	conf.Database.Name = filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=1&_busy_timeout=5000"

	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db, conf.Database.Engine); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

// NewValidator returns a validator with every custom validation registered.
func NewValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	assignment.InitValidators(validate, translator)
	quiz.InitValidators(validate, translator)
	return validate
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := core.Now()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, instructorID, title string, approved bool) course.Course {
	t.Helper()

	ctx := context.Background()
	now := core.Now()
	c, err := repo.CreateCourse(ctx, course.Course{
		InstructorID: instructorID,
		Title:        title,
		Description:  title + " description",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	if approved {
		if c, err = repo.ApproveCourse(ctx, c.ID); err != nil {
			t.Fatalf("CreateCourse() failed: %v", err)
		}
	}
	return c
}

func CreateModule(t *testing.T, repo course.Repository, courseID, title string) course.Module {
	t.Helper()

	m, err := repo.CreateModule(context.Background(), course.Module{
		CourseID:  courseID,
		Title:     title,
		Position:  -1,
		CreatedAt: core.Now(),
	})
	if err != nil {
		t.Fatalf("CreateModule() failed: %v", err)
	}
	return m
}

func CreateLesson(t *testing.T, repo course.Repository, moduleID, title string) course.Lesson {
	t.Helper()

	l, err := repo.CreateLesson(context.Background(), course.Lesson{
		ModuleID:  moduleID,
		Title:     title,
		Content:   title + " content",
		Position:  -1,
		CreatedAt: core.Now(),
	})
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}
	return l
}

// Hierarchy is a course with a single module holding a single lesson.
type Hierarchy struct {
	Course course.Course
	Module course.Module
	Lesson course.Lesson
}

func CreateHierarchy(t *testing.T, repo course.Repository, instructorID string, approved bool) Hierarchy {
	t.Helper()

	c := CreateCourse(t, repo, instructorID, "Go 101", approved)
	m := CreateModule(t, repo, c.ID, "Basics")
	l := CreateLesson(t, repo, m.ID, "Hello, World")
	return Hierarchy{Course: c, Module: m, Lesson: l}
}
