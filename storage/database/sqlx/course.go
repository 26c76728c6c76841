package sqlxrepos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/course"
)

const (
	courseColumns = "id, instructor_id, title, description, is_approved, created_at, updated_at"
	moduleColumns = "id, course_id, title, position, created_at"
	lessonColumns = "id, module_id, title, content, position, created_at"

	ownerSelect = "SELECT c.id AS course_id, c.instructor_id, c.is_approved FROM "
)

// ownerQueries walk each kind of entity up to its course.
var ownerQueries = map[course.EntityKind]string{
	course.EntityCourse: ownerSelect + "courses c WHERE c.id = ?",
	course.EntityModule: ownerSelect + `modules m
		JOIN courses c ON c.id = m.course_id
		WHERE m.id = ?`,
	course.EntityLesson: ownerSelect + `lessons l
		JOIN modules m ON m.id = l.module_id
		JOIN courses c ON c.id = m.course_id
		WHERE l.id = ?`,
	course.EntityAssignment: ownerSelect + `assignments a
		JOIN lessons l ON l.id = a.lesson_id
		JOIN modules m ON m.id = l.module_id
		JOIN courses c ON c.id = m.course_id
		WHERE a.id = ?`,
	course.EntitySubmission: ownerSelect + `submissions s
		JOIN assignments a ON a.id = s.assignment_id
		JOIN lessons l ON l.id = a.lesson_id
		JOIN modules m ON m.id = l.module_id
		JOIN courses c ON c.id = m.course_id
		WHERE s.id = ?`,
	course.EntityQuestion: ownerSelect + `quiz_questions q
		JOIN lessons l ON l.id = q.lesson_id
		JOIN modules m ON m.id = l.module_id
		JOIN courses c ON c.id = m.course_id
		WHERE q.id = ?`,
}

// courseOrderFields whitelists the columns courses may be sorted by.
var courseOrderFields = map[string]bool{
	"title":      true,
	"created_at": true,
	"updated_at": true,
}

type courseRepository struct {
	repository
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) *courseRepository {
	return &courseRepository{repository{exec: exec}}
}

func (repo courseRepository) ResolveOwner(ctx context.Context, ref course.EntityRef, exec ...core.DBExecutor) (course.Owner, error) {
	query, ok := ownerQueries[ref.Kind]
	if !ok {
		return course.Owner{}, errors.Errorf("resolving owner: unknown entity kind %d", ref.Kind)
	}
	exe := repo.getExec(exec)
	var owner course.Owner
	if err := exe.GetContext(ctx, &owner, exe.Rebind(query), ref.ID); err != nil {
		return course.Owner{}, trapNoRowsErr(err, course.NotFoundErr(ref.Kind), "resolving "+ref.Kind.String()+" owner")
	}
	return owner, nil
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course, exec ...core.DBExecutor) (course.Course, error) {
	exe := repo.getExec(exec)
	c.ID = uuid.New().String()
	q := exe.Rebind("INSERT INTO courses (" + courseColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)")
	_, err := exe.ExecContext(ctx, q,
		c.ID, c.InstructorID, c.Title, c.Description, c.IsApproved, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	exe := repo.getExec(exec)
	var c course.Course
	q := exe.Rebind("SELECT " + courseColumns + " FROM courses WHERE id = ?")
	if err := exe.GetContext(ctx, &c, q, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "getting course by ID")
	}
	return c, nil
}

func (repo courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]course.Course, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.InstructorID != "" {
		where = append(where, "instructor_id = ?")
		args = append(args, filter.InstructorID)
	}
	if filter.ApprovedOnly {
		where = append(where, "is_approved = ?")
		args = append(args, true)
	}

	q := "SELECT " + courseColumns + " FROM courses"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}

	orderList := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if courseOrderFields[ord.Field] {
			orderList = append(orderList, ord.String())
		}
	}
	if len(orderList) == 0 {
		orderList = append(orderList, core.DBOrdering{Field: "created_at"}.String())
	}
	q += " ORDER BY " + strings.Join(orderList, ", ")

	exe := repo.getExec(exec)
	courses := make([]course.Course, 0)
	if err := exe.SelectContext(ctx, &courses, exe.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "filtering courses")
	}
	return courses, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, c course.Course, exec ...core.DBExecutor) (course.Course, error) {
	exe := repo.getExec(exec)
	q := exe.Rebind("UPDATE courses SET title = ?, description = ?, updated_at = ? WHERE id = ?")
	res, err := exe.ExecContext(ctx, q, c.Title, c.Description, c.UpdatedAt.UTC(), c.ID)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if err = mustAffect(res, course.ErrNotFound); err != nil {
		return course.Course{}, err
	}
	return c, nil
}

func (repo courseRepository) ApproveCourse(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	exe := repo.getExec(exec)
	q := exe.Rebind("UPDATE courses SET is_approved = ?, updated_at = ? WHERE id = ?")
	res, err := exe.ExecContext(ctx, q, true, core.Now(), id)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "approving course")
	}
	if err = mustAffect(res, course.ErrNotFound); err != nil {
		return course.Course{}, err
	}
	return repo.GetCourseByID(ctx, id, exe)
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, exe.Rebind("DELETE FROM courses WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return mustAffect(res, course.ErrNotFound)
}

// nextPosition returns the position after the last child of parent in table.
func nextPosition(ctx context.Context, exe core.DBExecutor, table, parentCol, parentID string) (int, error) {
	var pos int
	q := exe.Rebind("SELECT COALESCE(MAX(position), -1) + 1 FROM " + table + " WHERE " + parentCol + " = ?")
	if err := exe.GetContext(ctx, &pos, q, parentID); err != nil {
		return 0, errors.Wrap(err, "computing next "+table+" position")
	}
	return pos, nil
}

func (repo courseRepository) CreateModule(ctx context.Context, m course.Module, exec ...core.DBExecutor) (course.Module, error) {
	exe := repo.getExec(exec)
	if m.Position < 0 {
		pos, err := nextPosition(ctx, exe, "modules", "course_id", m.CourseID)
		if err != nil {
			return course.Module{}, err
		}
		m.Position = pos
	}
	m.ID = uuid.New().String()
	q := exe.Rebind("INSERT INTO modules (" + moduleColumns + ") VALUES (?, ?, ?, ?, ?)")
	if _, err := exe.ExecContext(ctx, q, m.ID, m.CourseID, m.Title, m.Position, m.CreatedAt.UTC()); err != nil {
		return course.Module{}, errors.Wrap(err, "inserting module")
	}
	m.Lessons = []course.Lesson{}
	return m, nil
}

func (repo courseRepository) CreateLesson(ctx context.Context, l course.Lesson, exec ...core.DBExecutor) (course.Lesson, error) {
	exe := repo.getExec(exec)
	if l.Position < 0 {
		pos, err := nextPosition(ctx, exe, "lessons", "module_id", l.ModuleID)
		if err != nil {
			return course.Lesson{}, err
		}
		l.Position = pos
	}
	l.ID = uuid.New().String()
	q := exe.Rebind("INSERT INTO lessons (" + lessonColumns + ") VALUES (?, ?, ?, ?, ?, ?)")
	if _, err := exe.ExecContext(ctx, q, l.ID, l.ModuleID, l.Title, l.Content, l.Position, l.CreatedAt.UTC()); err != nil {
		return course.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return l, nil
}

// QueryModules returns the modules of a course with their lessons, both in position order.
func (repo courseRepository) QueryModules(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]course.Module, error) {
	exe := repo.getExec(exec)

	modules := make([]course.Module, 0)
	q := exe.Rebind("SELECT " + moduleColumns + " FROM modules WHERE course_id = ? ORDER BY position, created_at")
	if err := exe.SelectContext(ctx, &modules, q, courseID); err != nil {
		return nil, errors.Wrap(err, "querying modules")
	}

	var lessons []course.Lesson
	q = exe.Rebind(`SELECT l.id, l.module_id, l.title, l.content, l.position, l.created_at
		FROM lessons l
		JOIN modules m ON m.id = l.module_id
		WHERE m.course_id = ?
		ORDER BY l.position, l.created_at`)
	if err := exe.SelectContext(ctx, &lessons, q, courseID); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}

	byModule := make(map[string][]course.Lesson, len(modules))
	for _, l := range lessons {
		byModule[l.ModuleID] = append(byModule[l.ModuleID], l)
	}
	for i := range modules {
		modules[i].Lessons = byModule[modules[i].ID]
		if modules[i].Lessons == nil {
			modules[i].Lessons = []course.Lesson{}
		}
	}
	return modules, nil
}
