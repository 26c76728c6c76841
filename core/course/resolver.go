package course

import (
	"context"

	"github.com/academia/lms/core"
)

// EntityKind names the level of the content hierarchy an EntityRef points to.
type EntityKind uint8

const (
	EntityCourse EntityKind = iota
	EntityModule
	EntityLesson
	EntityAssignment
	EntitySubmission
	EntityQuestion
)

func (k EntityKind) String() string {
	switch k {
	case EntityModule:
		return "module"
	case EntityLesson:
		return "lesson"
	case EntityAssignment:
		return "assignment"
	case EntitySubmission:
		return "submission"
	case EntityQuestion:
		return "question"
	default:
		return "course"
	}
}

type EntityRef struct {
	Kind EntityKind
	ID   string
}

func CourseRef(id string) EntityRef     { return EntityRef{Kind: EntityCourse, ID: id} }
func ModuleRef(id string) EntityRef     { return EntityRef{Kind: EntityModule, ID: id} }
func LessonRef(id string) EntityRef     { return EntityRef{Kind: EntityLesson, ID: id} }
func AssignmentRef(id string) EntityRef { return EntityRef{Kind: EntityAssignment, ID: id} }
func SubmissionRef(id string) EntityRef { return EntityRef{Kind: EntitySubmission, ID: id} }
func QuestionRef(id string) EntityRef   { return EntityRef{Kind: EntityQuestion, ID: id} }

// Owner is the course at the top of an entity's hierarchy.
type Owner struct {
	CourseID     string `db:"course_id"`
	InstructorID string `db:"instructor_id"`
	IsApproved   bool   `db:"is_approved"`
}

// Resolver walks lesson -> module -> course for any entity of the hierarchy.
type Resolver interface {
	// ResolveOwner returns NotFoundErr(ref.Kind) when any link of the chain is missing.
	ResolveOwner(ctx context.Context, ref EntityRef, exec ...core.DBExecutor) (Owner, error)
}

// Decision is the outcome of a capability check.
type Decision struct {
	Allowed bool
	Reason  string
}

var (
	Allowed = Decision{Allowed: true}

	reasonNotOwner = "You are not the instructor of this course"
)

func Denied(reason string) Decision { return Decision{Reason: reason} }

// Err returns nil when allowed, a Forbidden error otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return core.NewError(core.KindForbidden, d.Reason)
}

// Authorize allows admins and the owning instructor.
func Authorize(p core.Principal, o Owner) Decision {
	switch {
	case p.IsAdmin():
		return Allowed
	case p.IsInstructor() && p.ID == o.InstructorID:
		return Allowed
	default:
		return Denied(reasonNotOwner)
	}
}
