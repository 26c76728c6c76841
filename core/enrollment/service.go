package enrollment

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/course"
)

const (
	completeProgress = 100
	popularLimit     = 5
)

var (
	// errors
	ErrNotFound          = core.NewError(core.KindNotFound, "enrollment not found")
	ErrExists            = core.NewError(core.KindConflict, "you are already enrolled in this course")
	ErrCourseUnavailable = core.NewError(core.KindNotFound, "course not found or not approved")
	ErrStudentsOnly      = core.NewError(core.KindForbidden, "only students can enroll in courses")
	ErrAdminOnly         = core.NewError(core.KindForbidden, "permission denied")
	ErrNotEnrolled       = core.NewError(core.KindForbidden, "you are not enrolled in this course").
				WithHint("Make sure you are enrolled in the course containing this lesson")
)

type (
	Repository interface {
		CreateEnrollment(ctx context.Context, e Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		EnrollmentExists(ctx context.Context, userID, courseID string, exec ...core.DBExecutor) (bool, error)
		// UpdateProgress only touches the enrollment if it belongs to userID.
		UpdateProgress(ctx context.Context, id, userID string, progress int, completedAt null.Time, exec ...core.DBExecutor) (Enrollment, error)
		QueryUserEnrollments(ctx context.Context, userID string, exec ...core.DBExecutor) ([]CourseEnrollment, error)
		QueryCourseEnrollments(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]StudentEnrollment, error)
		CountEnrollments(ctx context.Context, exec ...core.DBExecutor) (total, completed int, err error)
		QueryPopularCourses(ctx context.Context, limit int, exec ...core.DBExecutor) ([]PopularCourse, error)
	}

	OwnerResolver interface {
		ResolveOwner(ctx context.Context, ref course.EntityRef) (course.Owner, error)
	}

	// Gate decides whether a principal may access the content of a course.
	Gate struct {
		repo Repository
	}

	Service struct {
		*Gate
		repo     Repository
		courses  OwnerResolver
		validate *validator.Validate
	}
)

func NewGate(repo Repository) *Gate {
	return &Gate{repo: repo}
}

func (g *Gate) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	return g.repo.EnrollmentExists(ctx, userID, courseID)
}

// RequireEnrollment lets non-students through; students need an enrollment in courseID.
func (g *Gate) RequireEnrollment(ctx context.Context, p core.Principal, courseID string) error {
	if !p.IsStudent() {
		return nil
	}
	ok, err := g.IsEnrolled(ctx, p.ID, courseID)
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	if !ok {
		return ErrNotEnrolled
	}
	return nil
}

func NewService(repo Repository, courses OwnerResolver, validate *validator.Validate) *Service {
	return &Service{
		Gate:     NewGate(repo),
		repo:     repo,
		courses:  courses,
		validate: validate,
	}
}

func (svc *Service) Enroll(ctx context.Context, p core.Principal, ne NewEnrollment) (Enrollment, error) {
	if !p.IsStudent() {
		return Enrollment{}, ErrStudentsOnly
	}
	if err := ne.Validate(svc.validate); err != nil {
		return Enrollment{}, err
	}

	owner, err := svc.courses.ResolveOwner(ctx, course.CourseRef(ne.CourseID))
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return Enrollment{}, ErrCourseUnavailable
		}
		return Enrollment{}, errors.Wrap(err, "resolving course")
	}
	if !owner.IsApproved {
		return Enrollment{}, ErrCourseUnavailable
	}

	return svc.repo.CreateEnrollment(ctx, Enrollment{
		UserID:     p.ID,
		CourseID:   owner.CourseID,
		Progress:   0,
		EnrolledAt: core.Now(),
	})
}

func (svc *Service) MyCourses(ctx context.Context, p core.Principal) ([]CourseEnrollment, error) {
	return svc.repo.QueryUserEnrollments(ctx, p.ID)
}

func (svc *Service) CourseStudents(ctx context.Context, p core.Principal, courseID string) ([]StudentEnrollment, error) {
	owner, err := svc.courses.ResolveOwner(ctx, course.CourseRef(courseID))
	if err != nil {
		return nil, err
	}
	if err = course.Authorize(p, owner).Err(); err != nil {
		return nil, err
	}
	return svc.repo.QueryCourseEnrollments(ctx, courseID)
}

// UpdateProgress sets the progress of the caller's own enrollment.
// completed_at is stamped when progress reaches 100 and cleared for any other value.
func (svc *Service) UpdateProgress(ctx context.Context, p core.Principal, enrollmentID string, up UpdateProgress) (Enrollment, error) {
	if err := up.Validate(svc.validate); err != nil {
		return Enrollment{}, err
	}
	progress := *up.Progress

	var completedAt null.Time
	if progress == completeProgress {
		completedAt = null.TimeFrom(core.Now())
	}
	return svc.repo.UpdateProgress(ctx, enrollmentID, p.ID, progress, completedAt)
}

func (svc *Service) Stats(ctx context.Context, p core.Principal) (Stats, error) {
	if !p.IsAdmin() {
		return Stats{}, ErrAdminOnly
	}
	total, completed, err := svc.repo.CountEnrollments(ctx)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting enrollments")
	}
	popular, err := svc.repo.QueryPopularCourses(ctx, popularLimit)
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying popular courses")
	}
	if popular == nil {
		popular = []PopularCourse{}
	}
	return Stats{
		Total:          total,
		Active:         total - completed,
		Completed:      completed,
		PopularCourses: popular,
	}, nil
}
