package enrollment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/course"
	"github.com/academia/lms/core/enrollment"
	"github.com/academia/lms/core/user"
	sqlxrepos "github.com/academia/lms/storage/database/sqlx"
	testutil "github.com/academia/lms/tests"
)

type fixture struct {
	svc        *enrollment.Service
	usrRepo    user.Repository
	courseRepo course.Repository
	instructor core.Principal
}

func setup(t *testing.T) fixture {
	t.Helper()

	db := testutil.PrepareDB(t)
	f := fixture{
		usrRepo:    sqlxrepos.NewUserRepository(db),
		courseRepo: sqlxrepos.NewCourseRepository(db),
	}
	validate := testutil.NewValidator()
	f.svc = enrollment.NewService(
		sqlxrepos.NewEnrollmentRepository(db), course.NewService(f.courseRepo, validate), validate,
	)
	f.instructor = testutil.CreateUser(t, f.usrRepo, "Prof", "prof@test.cd", "", core.RoleInstructor, true).Principal()
	return f
}

func (f fixture) student(t *testing.T, name string) core.Principal {
	return testutil.CreateUser(t, f.usrRepo, name, name+"@test.cd", "", core.RoleStudent, true).Principal()
}

func intPtr(i int) *int { return &i }

func TestGate_RequireEnrollment(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := testutil.CreateCourse(t, f.courseRepo, f.instructor.ID, "Go 101", true)
	hero := f.student(t, "hero")
	lurker := f.student(t, "lurker")

	_, err := f.svc.Enroll(ctx, hero, enrollment.NewEnrollment{CourseID: c.ID})
	require.NoError(t, err)

	tests := []struct {
		name    string
		p       core.Principal
		wantErr error
	}{
		{name: "enrolled student", p: hero},
		{name: "other student", p: lurker, wantErr: enrollment.ErrNotEnrolled},
		{name: "instructor of another course", p: core.Principal{ID: "x", Role: core.RoleInstructor}},
		{name: "admin", p: core.Principal{ID: "y", Role: core.RoleAdmin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.RequireEnrollment(ctx, tt.p, c.ID)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, "Make sure you are enrolled in the course containing this lesson", err.(*core.Error).Hint)
		})
	}
}

func TestService_Enroll(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	approved := testutil.CreateCourse(t, f.courseRepo, f.instructor.ID, "Go 101", true)
	draft := testutil.CreateCourse(t, f.courseRepo, f.instructor.ID, "Rust 101", false)
	hero := f.student(t, "hero")

	tests := []struct {
		name     string
		p        core.Principal
		courseID string
		wantErr  error
	}{
		{name: "instructor", p: f.instructor, courseID: approved.ID, wantErr: enrollment.ErrStudentsOnly},
		{name: "unknown course", p: hero, courseID: testutil.UnknownID, wantErr: enrollment.ErrCourseUnavailable},
		{name: "unapproved course", p: hero, courseID: draft.ID, wantErr: enrollment.ErrCourseUnavailable},
		{name: "enrolled", p: hero, courseID: approved.ID},
		{name: "twice", p: hero, courseID: approved.ID, wantErr: enrollment.ErrExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := f.svc.Enroll(ctx, tt.p, enrollment.NewEnrollment{CourseID: tt.courseID})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, e.Progress)
			assert.False(t, e.CompletedAt.Valid)
		})
	}

	mine, err := f.svc.MyCourses(ctx, hero)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Go 101", mine[0].CourseTitle)

	students, err := f.svc.CourseStudents(ctx, f.instructor, approved.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "hero@test.cd", students[0].StudentEmail)

	_, err = f.svc.CourseStudents(ctx, hero, approved.ID)
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
}

func TestService_UpdateProgress(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := testutil.CreateCourse(t, f.courseRepo, f.instructor.ID, "Go 101", true)
	hero := f.student(t, "hero")
	e, err := f.svc.Enroll(ctx, hero, enrollment.NewEnrollment{CourseID: c.ID})
	require.NoError(t, err)

	_, err = f.svc.UpdateProgress(ctx, f.student(t, "thief"), e.ID, enrollment.UpdateProgress{Progress: intPtr(100)})
	assert.ErrorIs(t, err, enrollment.ErrNotFound)
	for _, p := range []int{-1, 101} {
		_, err = f.svc.UpdateProgress(ctx, hero, e.ID, enrollment.UpdateProgress{Progress: intPtr(p)})
		assert.Equal(t, core.KindInvalidInput, core.KindOf(err), "progress %d", p)
	}

	steps := []struct {
		progress      int
		wantCompleted bool
	}{{40, false}, {100, true}, {99, false}, {0, false}, {100, true}}
	for _, s := range steps {
		got, err := f.svc.UpdateProgress(ctx, hero, e.ID, enrollment.UpdateProgress{Progress: intPtr(s.progress)})
		require.NoError(t, err)
		assert.Equal(t, s.progress, got.Progress)
		assert.Equal(t, s.wantCompleted, got.CompletedAt.Valid, "progress %d", s.progress)
	}
}

func TestService_Stats(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	goCourse := testutil.CreateCourse(t, f.courseRepo, f.instructor.ID, "Go 101", true)
	rustCourse := testutil.CreateCourse(t, f.courseRepo, f.instructor.ID, "Rust 101", true)
	hero, ada := f.student(t, "hero"), f.student(t, "ada")

	_, err := f.svc.Stats(ctx, hero)
	assert.ErrorIs(t, err, enrollment.ErrAdminOnly)

	admin := core.Principal{ID: "admin", Role: core.RoleAdmin}
	stats, err := f.svc.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, enrollment.Stats{PopularCourses: []enrollment.PopularCourse{}}, stats)

	e, err := f.svc.Enroll(ctx, hero, enrollment.NewEnrollment{CourseID: goCourse.ID})
	require.NoError(t, err)
	_, err = f.svc.Enroll(ctx, ada, enrollment.NewEnrollment{CourseID: goCourse.ID})
	require.NoError(t, err)
	_, err = f.svc.Enroll(ctx, ada, enrollment.NewEnrollment{CourseID: rustCourse.ID})
	require.NoError(t, err)
	_, err = f.svc.UpdateProgress(ctx, hero, e.ID, enrollment.UpdateProgress{Progress: intPtr(100)})
	require.NoError(t, err)

	stats, err = f.svc.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 2, stats.Active)
	require.Len(t, stats.PopularCourses, 2)
	assert.Equal(t, enrollment.PopularCourse{CourseID: goCourse.ID, Title: "Go 101", Enrollments: 2}, stats.PopularCourses[0])
}
