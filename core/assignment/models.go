package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/academia/lms/core"
)

type Assignment struct {
	ID          string    `json:"id" db:"id"`
	LessonID    string    `json:"lesson_id" db:"lesson_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Deadline    null.Time `json:"deadline" db:"deadline"` // UTC; null means no deadline
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// DeadlinePassed reports whether submissions are closed at t.
func (a Assignment) DeadlinePassed(t time.Time) bool {
	return a.Deadline.Valid && t.After(a.Deadline.Time)
}

type Submission struct {
	ID             string      `json:"id" db:"id"`
	AssignmentID   string      `json:"assignment_id" db:"assignment_id"`
	UserID         string      `json:"user_id" db:"user_id"`
	SubmissionURL  null.String `json:"submission_url" db:"submission_url"`
	SubmissionText null.String `json:"submission_text" db:"submission_text"`
	SubmittedAt    time.Time   `json:"submitted_at" db:"submitted_at"`
	Grade          null.Int    `json:"grade" db:"grade"`
	Feedback       null.String `json:"feedback" db:"feedback"`
	GradedAt       null.Time   `json:"graded_at" db:"graded_at"`
}

// StudentSubmission is a Submission joined with its author, as listed to the instructor.
type StudentSubmission struct {
	Submission
	StudentName  string `json:"student_name" db:"student_name"`
	StudentEmail string `json:"student_email" db:"student_email"`
}

// GradedSubmission carries what the grading notification needs.
type GradedSubmission struct {
	Submission
	AssignmentTitle string `db:"assignment_title"`
	StudentName     string `db:"student_name"`
	StudentEmail    string `db:"student_email"`
}

// PendingReminder is an enrolled student who has not submitted an assignment yet.
type PendingReminder struct {
	AssignmentID    string    `db:"assignment_id"`
	AssignmentTitle string    `db:"assignment_title"`
	CourseTitle     string    `db:"course_title"`
	Deadline        time.Time `db:"deadline"`
	StudentName     string    `db:"student_name"`
	StudentEmail    string    `db:"student_email"`
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title       string    `json:"title" validate:"required,notblank"`
	Description string    `json:"description" validate:"required,notblank"`
	Deadline    null.Time `json:"deadline"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	if na.Deadline.Valid {
		na.Deadline.Time = na.Deadline.Time.UTC()
	}
	return validate.Struct(na)
}

// NewSubmission needs at least one of SubmissionURL or SubmissionText.
// SubmissionURL is an absolute URL or a path to an uploaded file.
type NewSubmission struct {
	SubmissionURL  string `json:"submission_url" validate:"omitempty,uri"`
	SubmissionText string `json:"submission_text"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.SubmissionURL = core.CleanString(ns.SubmissionURL)
	ns.SubmissionText = core.CleanString(ns.SubmissionText)
	return validate.Struct(ns)
}

type GradeSubmission struct {
	Grade    *int   `json:"grade" validate:"required,min=0,max=100"`
	Feedback string `json:"feedback"`
}

func (gs *GradeSubmission) Validate(validate *validator.Validate) error {
	gs.Feedback = core.CleanString(gs.Feedback)
	return validate.Struct(gs)
}

// Detail is an Assignment as seen by a principal: students also get their own submission.
type Detail struct {
	Assignment      Assignment
	Submission      *Submission
	IsStudent       bool
	SubmissionCount int // instructors only
}
