package course

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/academia/lms/core"
)

var (
	// errors
	ErrNotFound           = core.NewError(core.KindNotFound, "course not found")
	ErrModuleNotFound     = core.NewError(core.KindNotFound, "module not found")
	ErrLessonNotFound     = core.NewError(core.KindNotFound, "lesson not found")
	ErrAssignmentNotFound = core.NewError(core.KindNotFound, "assignment not found")
	ErrSubmissionNotFound = core.NewError(core.KindNotFound, "submission not found")
	ErrQuestionNotFound   = core.NewError(core.KindNotFound, "question not found")
	ErrCannotCreate       = core.NewError(core.KindForbidden, "only instructors can create courses")
	ErrAdminOnly          = core.NewError(core.KindForbidden, "permission denied")
)

// NotFoundErr returns the NotFound error matching the kind of entity.
func NotFoundErr(kind EntityKind) *core.Error {
	switch kind {
	case EntityModule:
		return ErrModuleNotFound
	case EntityLesson:
		return ErrLessonNotFound
	case EntityAssignment:
		return ErrAssignmentNotFound
	case EntitySubmission:
		return ErrSubmissionNotFound
	case EntityQuestion:
		return ErrQuestionNotFound
	default:
		return ErrNotFound
	}
}

type (
	Repository interface {
		Resolver

		CreateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		GetCourseByID(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		FilterCourses(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Course, error)
		UpdateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		ApproveCourse(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateModule(ctx context.Context, m Module, exec ...core.DBExecutor) (Module, error)
		CreateLesson(ctx context.Context, l Lesson, exec ...core.DBExecutor) (Lesson, error)
		QueryModules(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]Module, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// ResolveOwner resolves the course owning ref.
func (svc *Service) ResolveOwner(ctx context.Context, ref EntityRef) (Owner, error) {
	return svc.repo.ResolveOwner(ctx, ref)
}

// RequireOwner resolves ref and checks that p may manage its course.
func (svc *Service) RequireOwner(ctx context.Context, p core.Principal, ref EntityRef) (Owner, error) {
	owner, err := svc.repo.ResolveOwner(ctx, ref)
	if err != nil {
		return Owner{}, err
	}
	if err = Authorize(p, owner).Err(); err != nil {
		return Owner{}, err
	}
	return owner, nil
}

func (svc *Service) Create(ctx context.Context, p core.Principal, nc NewCourse) (Course, error) {
	if !(p.IsInstructor() || p.IsAdmin()) {
		return Course{}, ErrCannotCreate
	}
	if err := nc.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	now := core.Now()
	return svc.repo.CreateCourse(ctx, Course{
		InstructorID: p.ID,
		Title:        nc.Title,
		Description:  nc.Description,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// List returns approved courses. Admins see every course; mine restricts the list to the caller's own courses.
func (svc *Service) List(ctx context.Context, p core.Principal, mine bool, ordering []core.DBOrdering) ([]Course, error) {
	filter := QueryFilter{ApprovedOnly: !p.IsAdmin()}
	if mine {
		filter = QueryFilter{InstructorID: p.ID}
	}
	return svc.repo.FilterCourses(ctx, filter, ordering)
}

// Get hides unapproved courses from everyone but their owner and admins.
func (svc *Service) Get(ctx context.Context, p core.Principal, id string) (Course, error) {
	c, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !c.IsApproved && !Authorize(p, svc.owner(c)).Allowed {
		return Course{}, ErrNotFound
	}
	return c, nil
}

func (svc *Service) Update(ctx context.Context, p core.Principal, id string, uc UpdateCourse) (Course, error) {
	c, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if err = Authorize(p, svc.owner(c)).Err(); err != nil {
		return Course{}, err
	}
	if err = uc.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	if uc.Title != nil {
		c.Title = *uc.Title
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	c.UpdatedAt = core.Now()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, p core.Principal, id string) error {
	if _, err := svc.RequireOwner(ctx, p, CourseRef(id)); err != nil {
		return err
	}
	return svc.repo.DeleteCourse(ctx, id)
}

func (svc *Service) Approve(ctx context.Context, p core.Principal, id string) (Course, error) {
	if !p.IsAdmin() {
		return Course{}, ErrAdminOnly
	}
	return svc.repo.ApproveCourse(ctx, id)
}

func (svc *Service) CreateModule(ctx context.Context, p core.Principal, courseID string, nm NewModule) (Module, error) {
	owner, err := svc.RequireOwner(ctx, p, CourseRef(courseID))
	if err != nil {
		return Module{}, err
	}
	if err = nm.Validate(svc.validate); err != nil {
		return Module{}, err
	}
	m := Module{CourseID: owner.CourseID, Title: nm.Title, CreatedAt: core.Now()}
	if nm.Position != nil {
		m.Position = *nm.Position
	} else {
		m.Position = -1 // append
	}
	return svc.repo.CreateModule(ctx, m)
}

func (svc *Service) CreateLesson(ctx context.Context, p core.Principal, moduleID string, nl NewLesson) (Lesson, error) {
	if _, err := svc.RequireOwner(ctx, p, ModuleRef(moduleID)); err != nil {
		return Lesson{}, err
	}
	if err := nl.Validate(svc.validate); err != nil {
		return Lesson{}, err
	}
	l := Lesson{ModuleID: moduleID, Title: nl.Title, Content: nl.Content, CreatedAt: core.Now()}
	if nl.Position != nil {
		l.Position = *nl.Position
	} else {
		l.Position = -1 // append
	}
	return svc.repo.CreateLesson(ctx, l)
}

// ListModules returns the modules of a visible course with their lessons.
func (svc *Service) ListModules(ctx context.Context, p core.Principal, courseID string) ([]Module, error) {
	if _, err := svc.Get(ctx, p, courseID); err != nil {
		return nil, err
	}
	modules, err := svc.repo.QueryModules(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying modules")
	}
	return modules, nil
}

func (svc *Service) owner(c Course) Owner {
	return Owner{CourseID: c.ID, InstructorID: c.InstructorID, IsApproved: c.IsApproved}
}
