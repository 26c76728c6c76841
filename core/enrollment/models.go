package enrollment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
)

type Enrollment struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	CourseID    string    `json:"course_id" db:"course_id"`
	Progress    int       `json:"progress" db:"progress"`
	EnrolledAt  time.Time `json:"enrolled_at" db:"enrolled_at"`   // UTC
	CompletedAt null.Time `json:"completed_at" db:"completed_at"` // set iff Progress == 100
}

// CourseEnrollment is an Enrollment joined with its course, as listed to the student.
type CourseEnrollment struct {
	Enrollment
	CourseTitle       string `json:"course_title" db:"course_title"`
	CourseDescription string `json:"course_description" db:"course_description"`
}

// StudentEnrollment is an Enrollment joined with its student, as listed to the instructor.
type StudentEnrollment struct {
	Enrollment
	StudentName  string `json:"student_name" db:"student_name"`
	StudentEmail string `json:"student_email" db:"student_email"`
}

type PopularCourse struct {
	CourseID    string `json:"course_id" db:"course_id"`
	Title       string `json:"title" db:"title"`
	Enrollments int    `json:"enrollments" db:"enrollments"`
}

type Stats struct {
	Total          int             `json:"total"`
	Active         int             `json:"active"`
	Completed      int             `json:"completed"`
	PopularCourses []PopularCourse `json:"popular_courses"`
}

type NewEnrollment struct {
	CourseID string `json:"course_id" validate:"required"`
}

func (ne NewEnrollment) Validate(validate *validator.Validate) error { return validate.Struct(ne) }

type UpdateProgress struct {
	Progress *int `json:"progress" validate:"required,min=0,max=100"`
}

func (up UpdateProgress) Validate(validate *validator.Validate) error { return validate.Struct(up) }
